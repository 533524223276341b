// Package period implements calendar-period boundaries used as filter
// windows for subscription and attendance queries.
//
// A Period is a date range with optionally-open start and/or end. The sum
// type makes it impossible to construct a half-open state by omission: call
// sites pick one of Bounded, LowerBounded, UpperBounded or Unbounded.
package period

import (
	"fmt"
	"time"

	"github.com/paraplan-hub/paraplan-report-hub/internal/domain/shared"
	"github.com/paraplan-hub/paraplan-report-hub/pkg/timeutil"
)

// Kind discriminates the period variants.
type Kind int

const (
	// KindBounded has both a start and an end date.
	KindBounded Kind = iota
	// KindLowerBounded has a start date and no end ("from here onward").
	KindLowerBounded
	// KindUpperBounded has an end date and no start.
	KindUpperBounded
	// KindUnbounded has neither bound and matches everything.
	KindUnbounded
)

// Period is an immutable date range. Dates are Moscow calendar days
// truncated to midnight.
type Period struct {
	kind  Kind
	start time.Time
	end   time.Time
}

// Bounded constructs a period with both bounds.
// Invariant: start must not be after end.
func Bounded(start, end time.Time) (Period, error) {
	start, end = timeutil.StartOfDay(start), timeutil.StartOfDay(end)
	if start.After(end) {
		return Period{}, shared.WrapError("period", "Bounded", shared.ErrInvalidPeriod,
			fmt.Sprintf("start %s is after end %s", timeutil.FormatDateStr(start), timeutil.FormatDateStr(end)), nil)
	}
	return Period{kind: KindBounded, start: start, end: end}, nil
}

// LowerBounded constructs an open-ended period starting at start.
func LowerBounded(start time.Time) Period {
	return Period{kind: KindLowerBounded, start: timeutil.StartOfDay(start)}
}

// UpperBounded constructs an open-started period ending at end.
func UpperBounded(end time.Time) Period {
	return Period{kind: KindUpperBounded, end: timeutil.StartOfDay(end)}
}

// Unbounded constructs a period matching all dates.
func Unbounded() Period {
	return Period{kind: KindUnbounded}
}

// Kind returns the period variant.
func (p Period) Kind() Kind { return p.kind }

// Start returns the start bound and whether it is present.
func (p Period) Start() (time.Time, bool) {
	return p.start, p.kind == KindBounded || p.kind == KindLowerBounded
}

// End returns the end bound and whether it is present.
func (p Period) End() (time.Time, bool) {
	return p.end, p.kind == KindBounded || p.kind == KindUpperBounded
}

// String renders the period for logs and cache keys, e.g.
// "2024-01-01..2024-01-31", "2024-02-05..", "..2024-03-31" or "*".
func (p Period) String() string {
	switch p.kind {
	case KindBounded:
		return timeutil.FormatDateStr(p.start) + ".." + timeutil.FormatDateStr(p.end)
	case KindLowerBounded:
		return timeutil.FormatDateStr(p.start) + ".."
	case KindUpperBounded:
		return ".." + timeutil.FormatDateStr(p.end)
	default:
		return "*"
	}
}

// MonthRef selects which month window to compute relative to a reference date.
type MonthRef int

const (
	// Current is the month window ending at the last day of the month
	// before the reference date.
	Current MonthRef = iota
	// Previous is one month earlier than Current.
	Previous
	// Next is one month later than Current.
	Next
)

// Month computes a calendar-month window relative to today.
//
// The window convention comes from the production report definitions and is
// deliberately shifted: the period end is today minus today's day-of-month
// number, i.e. the last day of the month *before* today. Current covers that
// whole month, Previous the month before it, and Next the month after it
// (the month containing today). Callers depend on this shift; do not
// "correct" it to the intuitive calendar month.
func Month(today time.Time, ref MonthRef) Period {
	today = timeutil.StartOfDay(today)
	periodEnd := today.AddDate(0, 0, -today.Day())

	switch ref {
	case Previous:
		periodEnd = periodEnd.AddDate(0, 0, -periodEnd.Day())
	case Next:
		// First day after the Current window, then that month's true last
		// calendar day (Gregorian, leap-aware).
		periodEnd = timeutil.LastDayOfMonth(periodEnd.AddDate(0, 0, 1))
	}

	start := timeutil.Date(periodEnd.Year(), int(periodEnd.Month()), 1)
	p, _ := Bounded(start, periodEnd)
	return p
}

// CurrentWeek returns the Monday-through-Sunday week containing today.
func CurrentWeek(today time.Time) Period {
	today = timeutil.StartOfDay(today)
	offset := (int(today.Weekday()) + 6) % 7 // Monday = 0
	start := today.AddDate(0, 0, -offset)
	p, _ := Bounded(start, start.AddDate(0, 0, 6))
	return p
}

// AfterCurrentWeek returns the open-ended period starting next Monday,
// meaning "everything from next Monday onward".
func AfterCurrentWeek(today time.Time) Period {
	start, _ := CurrentWeek(today).Start()
	return LowerBounded(start.AddDate(0, 0, 7))
}
