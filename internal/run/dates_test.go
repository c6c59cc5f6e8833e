package run

import (
	"testing"
	"time"

	"github.com/alecgard/tally/internal/focus"
)

func TestParseDay(t *testing.T) {
	p, err := ParseDay("2026-01-05")
	if err != nil {
		t.Fatalf("ParseDay failed: %v", err)
	}
	if p.String() != "2026-01-05" || p.Granularity != focus.GranularityDaily {
		t.Errorf("got %s (%s)", p, p.Granularity)
	}

	for _, bad := range []string{"2026-1-5", "05-01-2026", "yesterday", ""} {
		if _, err := ParseDay(bad); err == nil {
			t.Errorf("ParseDay(%q) should fail", bad)
		}
	}
}

func TestYesterday(t *testing.T) {
	now := time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC)
	p := Yesterday(now)
	if p.String() != "2026-01-04" {
		t.Errorf("got %s, want 2026-01-04", p)
	}
}

func TestParseMonth(t *testing.T) {
	p, err := ParseMonth(2026, 2)
	if err != nil {
		t.Fatalf("ParseMonth failed: %v", err)
	}
	if p.Days() != 28 || p.Granularity != focus.GranularityMonthly {
		t.Errorf("got %d days (%s)", p.Days(), p.Granularity)
	}

	if _, err := ParseMonth(2026, 0); err == nil {
		t.Error("month 0 should fail")
	}
	if _, err := ParseMonth(2026, 13); err == nil {
		t.Error("month 13 should fail")
	}
	if _, err := ParseMonth(0, 5); err == nil {
		t.Error("year 0 should fail")
	}
}
