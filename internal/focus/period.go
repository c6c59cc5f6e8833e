package focus

import (
	"fmt"
	"time"
)

// Granularity describes how a billing period was selected.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityMonthly Granularity = "monthly"
)

// Period is an inclusive calendar date range. Start and End are truncated to
// midnight UTC.
type Period struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// Day returns the single-day period containing t.
func Day(t time.Time) Period {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Period{Start: d, End: d, Granularity: GranularityDaily}
}

// Month returns the period covering the whole calendar month.
func Month(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return Period{Start: start, End: end, Granularity: GranularityMonthly}
}

// Days returns the inclusive length of the period in days.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// DaysInMonth returns the number of days in the calendar month containing the
// period start. Used to pro-rate per-month rates.
func (p Period) DaysInMonth() int {
	start := time.Date(p.Start.Year(), p.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, 1, -1).Day()
}

func (p Period) String() string {
	if p.Start.Equal(p.End) {
		return p.Start.Format(DateLayout)
	}
	return fmt.Sprintf("%s_to_%s", p.Start.Format(DateLayout), p.End.Format(DateLayout))
}
