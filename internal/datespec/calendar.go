package datespec

import (
	"fmt"
	"time"

	"github.com/SimonSchneider/goslu/date"
)

// New returns the normalized date for the given year, month and day.
// Out of range values roll over the same way time.Date does.
func New(year int, month time.Month, day int) date.Date {
	return date.FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// utc is the midnight of d in UTC. Dates count days since the epoch in UTC,
// reading them in the local zone shifts west of Greenwich to the previous day.
func utc(d date.Date) time.Time {
	return d.ToStdTime().UTC()
}

// Format renders d as YYYY-MM-DD independently of the local time zone.
func Format(d date.Date) string {
	return utc(d).Format(time.DateOnly)
}

func civil(d date.Date) (int, time.Month, int) {
	return utc(d).Date()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func addDays(d date.Date, n int) date.Date {
	return d.Add(date.Duration(n) * date.Day)
}

func daysBetween(from, to date.Date) int {
	return int(to - from)
}

// AddMonths moves d by n calendar months, keeping the day of month and
// clamping it to the last day of the target month (Jan 31 + 1 month is Feb 28/29).
func AddMonths(d date.Date, n int) date.Date {
	return monthDay(d, n, dayOf(d))
}

// AddYears is AddMonths by 12*n, so Feb 29 maps to Feb 28 on non leap years.
func AddYears(d date.Date, n int) date.Date {
	return AddMonths(d, 12*n)
}

func dayOf(d date.Date) int {
	_, _, day := civil(d)
	return day
}

// monthDay returns the date n months after d's month, on the given day clamped to the month length.
func monthDay(d date.Date, n int, day int) date.Date {
	y, m, _ := civil(d)
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return New(first.Year(), first.Month(), min(day, daysIn(first.Year(), first.Month())))
}

func monthsBetween(from, to date.Date) int {
	fy, fm, _ := civil(from)
	ty, tm, _ := civil(to)
	return (ty-fy)*12 + int(tm-fm)
}

func isWeekend(d date.Date) bool {
	switch utc(d).Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}

// Window is an inclusive range of days.
type Window struct {
	Start date.Date
	End   date.Date
}

func (w Window) Contains(d date.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

func (w Window) Empty() bool {
	return w.End.Before(w.Start)
}

// Narrow intersects the window with the optional bounds.
func (w Window) Narrow(from, to *date.Date) Window {
	if from != nil && from.After(w.Start) {
		w.Start = *from
	}
	if to != nil && to.Before(w.End) {
		w.End = *to
	}
	return w
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", Format(w.Start), Format(w.End))
}
