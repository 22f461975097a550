package report

import "time"

// Period is a named, relative calendar window used to filter transactions on
// the dashboard. All periods except LastMonth are open-ended at "now".
type Period string

const (
	PeriodToday     Period = "today"
	PeriodWeek      Period = "week"
	PeriodMonth     Period = "month"
	PeriodLastMonth Period = "last-month"
	PeriodQuarter   Period = "quarter"
	PeriodYear      Period = "year"
	PeriodAll       Period = "all"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodLastMonth, PeriodQuarter, PeriodYear, PeriodAll:
		return true
	}
	return false
}

// Bounds returns the window for p relative to now. bounded reports whether an
// upper bound applies; only LastMonth has one. For PeriodAll the zero start
// admits every record. Unknown periods fall back to the current month.
func (p Period) Bounds(now time.Time) (start, end time.Time, bounded bool) {
	y, m, d := now.Date()
	loc := now.Location()

	switch p {
	case PeriodToday:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
	case PeriodWeek:
		start = now.Add(-7 * 24 * time.Hour)
	case PeriodLastMonth:
		start = time.Date(y, m-1, 1, 0, 0, 0, 0, loc)
		end = time.Date(y, m, 0, 0, 0, 0, 0, loc) // last day of previous month
		bounded = true
	case PeriodQuarter:
		quarterStart := time.Month((int(m)-1)/3*3 + 1)
		start = time.Date(y, quarterStart, 1, 0, 0, 0, 0, loc)
	case PeriodYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	case PeriodAll:
		// zero start, no bounds
	default: // PeriodMonth and anything unrecognized
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
	return start, end, bounded
}

// Contains reports whether a record's calendar date falls inside the window.
func (p Period) Contains(date time.Time, now time.Time) bool {
	if p == PeriodAll {
		return true
	}
	start, end, bounded := p.Bounds(now)
	if date.Before(start) {
		return false
	}
	if bounded && date.After(end) {
		return false
	}
	return true
}
