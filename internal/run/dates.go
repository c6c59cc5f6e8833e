package run

import (
	"fmt"
	"time"

	"github.com/alecgard/tally/internal/focus"
)

// ParseDay parses a --date flag value into a single-day period.
func ParseDay(s string) (focus.Period, error) {
	t, err := time.Parse(focus.DateLayout, s)
	if err != nil {
		return focus.Period{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return focus.Day(t), nil
}

// Yesterday returns the default period: the day before now, in UTC, so the
// run always covers a complete 24-hour window.
func Yesterday(now time.Time) focus.Period {
	return focus.Day(now.UTC().AddDate(0, 0, -1))
}

// ParseMonth builds a whole-month period from --year/--month flag values.
func ParseMonth(year, month int) (focus.Period, error) {
	if year < 2000 || year > 9999 {
		return focus.Period{}, fmt.Errorf("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return focus.Period{}, fmt.Errorf("invalid month %d: expected 1-12", month)
	}
	return focus.Month(year, time.Month(month)), nil
}
