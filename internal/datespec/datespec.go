// Package datespec expands recurrence rules into concrete calendar dates.
package datespec

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/SimonSchneider/goslu/date"
)

var ErrInvalid = errors.New("invalid date spec")

type Kind string

const (
	KindOnce         Kind = "once"
	KindPeriodic     Kind = "periodic"
	KindMonthlyByDay Kind = "monthly_by_day"
	KindCron         Kind = "cron"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindOnce, KindPeriodic, KindMonthlyByDay, KindCron:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown recurrence kind %q", ErrInvalid, s)
	}
}

type Unit string

const (
	UnitDay   Unit = "day"
	UnitWeek  Unit = "week"
	UnitMonth Unit = "month"
	UnitYear  Unit = "year"
)

func ParseUnit(s string) (Unit, error) {
	switch u := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"); u {
	case "day", "daily":
		return UnitDay, nil
	case "week", "weekly":
		return UnitWeek, nil
	case "month", "monthly":
		return UnitMonth, nil
	case "year", "yearly":
		return UnitYear, nil
	default:
		return "", fmt.Errorf("%w: unknown interval unit %q", ErrInvalid, s)
	}
}

// Overflow decides what monthly_by_day does when the month is shorter than the requested day.
type Overflow string

const (
	// OverflowClamp places the event on the last day of the month.
	OverflowClamp Overflow = "clamp"
	// OverflowSkip drops the event for that month.
	OverflowSkip Overflow = "skip"
)

func ParseOverflow(s string) (Overflow, error) {
	switch o := Overflow(strings.ToLower(strings.TrimSpace(s))); o {
	case "", OverflowClamp:
		return OverflowClamp, nil
	case OverflowSkip:
		return OverflowSkip, nil
	default:
		return "", fmt.Errorf("%w: unknown overflow policy %q", ErrInvalid, s)
	}
}

// Spec describes a recurrence. Which fields are read depends on Kind.
type Spec struct {
	Kind Kind

	Date date.Date // once

	Anchor date.Date // periodic
	Unit   Unit
	Count  int

	Day      int // monthly_by_day
	Overflow Overflow

	Cron date.Cron // cron, e.g. "*-*-25"

	SkipWeekends bool
	SkipHolidays bool
}

func Once(d date.Date) Spec {
	return Spec{Kind: KindOnce, Date: d}
}

func Every(anchor date.Date, count int, unit Unit) Spec {
	return Spec{Kind: KindPeriodic, Anchor: anchor, Count: count, Unit: unit}
}

func MonthlyOn(day int, overflow Overflow) Spec {
	return Spec{Kind: KindMonthlyByDay, Day: day, Overflow: overflow}
}

func Matching(cron date.Cron) Spec {
	return Spec{Kind: KindCron, Cron: cron}
}

func (s Spec) Validate() error {
	switch s.Kind {
	case KindOnce:
	case KindPeriodic:
		if _, err := ParseUnit(string(s.Unit)); err != nil {
			return err
		}
		if s.Count < 1 {
			return fmt.Errorf("%w: interval count must be at least 1, got %d", ErrInvalid, s.Count)
		}
	case KindMonthlyByDay:
		if s.Day < 1 || s.Day > 31 {
			return fmt.Errorf("%w: day of month must be 1..31, got %d", ErrInvalid, s.Day)
		}
		if _, err := ParseOverflow(string(s.Overflow)); err != nil {
			return err
		}
	case KindCron:
		if strings.TrimSpace(string(s.Cron)) == "" {
			return fmt.Errorf("%w: cron expression is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown recurrence kind %q", ErrInvalid, s.Kind)
	}
	return nil
}

// Resolver resolves specs against a holiday calendar.
type Resolver struct {
	holidays map[date.Date]struct{}
}

func NewResolver(holidays ...date.Date) *Resolver {
	r := &Resolver{holidays: make(map[date.Date]struct{}, len(holidays))}
	for _, h := range holidays {
		r.holidays[h] = struct{}{}
	}
	return r
}

// Resolve expands s with no holidays configured.
func Resolve(s Spec, w Window) ([]date.Date, error) {
	return NewResolver().Resolve(s, w)
}

// Resolve returns the strictly increasing dates of s inside w.
//
// Weekend and holiday adjustment is applied to dates already placed in the
// window, so an occurrence never moves into a different period. Adjusted
// dates that fall after the window end are dropped.
func (r *Resolver) Resolve(s Spec, w Window) ([]date.Date, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if w.Empty() {
		return nil, nil
	}
	var days []date.Date
	switch s.Kind {
	case KindOnce:
		if w.Contains(s.Date) {
			days = append(days, s.Date)
		}
	case KindPeriodic:
		days = periodic(s, w)
	case KindMonthlyByDay:
		days = monthlyByDay(s, w)
	case KindCron:
		for d := w.Start; !d.After(w.End); d = addDays(d, 1) {
			if s.Cron.Matches(d) {
				days = append(days, d)
			}
		}
	}
	if s.SkipWeekends || s.SkipHolidays {
		days = r.adjust(s, w, days)
	}
	return days, nil
}

func periodic(s Spec, w Window) []date.Date {
	if s.Anchor.After(w.End) {
		return nil
	}
	var (
		days []date.Date
		nth  func(n int) date.Date
		skip int
	)
	unit, _ := ParseUnit(string(s.Unit))
	switch unit {
	case UnitDay, UnitWeek:
		step := s.Count
		if unit == UnitWeek {
			step *= 7
		}
		nth = func(n int) date.Date { return addDays(s.Anchor, n*step) }
		if s.Anchor.Before(w.Start) {
			skip = daysBetween(s.Anchor, w.Start) / step
		}
	case UnitMonth, UnitYear:
		step := s.Count
		if unit == UnitYear {
			step *= 12
		}
		day := dayOf(s.Anchor)
		nth = func(n int) date.Date { return monthDay(s.Anchor, n*step, day) }
		if s.Anchor.Before(w.Start) {
			skip = max(0, monthsBetween(s.Anchor, w.Start)/step-1)
		}
	}
	for n := skip; ; n++ {
		d := nth(n)
		if d.After(w.End) {
			return days
		}
		if !d.Before(w.Start) {
			days = append(days, d)
		}
	}
}

func monthlyByDay(s Spec, w Window) []date.Date {
	var days []date.Date
	months := monthsBetween(w.Start, w.End)
	for n := 0; n <= months; n++ {
		first := monthDay(w.Start, n, 1)
		y, m, _ := civil(first)
		if s.Day > daysIn(y, m) && s.Overflow == OverflowSkip {
			continue
		}
		if d := monthDay(first, 0, s.Day); w.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

func (r *Resolver) adjust(s Spec, w Window, days []date.Date) []date.Date {
	out := make([]date.Date, 0, len(days))
	for _, d := range days {
		for r.skipped(s, d) {
			d = addDays(d, 1)
		}
		if d.After(w.End) {
			break
		}
		out = append(out, d)
	}
	return slices.Compact(out)
}

func (r *Resolver) skipped(s Spec, d date.Date) bool {
	if s.SkipWeekends && isWeekend(d) {
		return true
	}
	if s.SkipHolidays {
		if _, ok := r.holidays[d]; ok {
			return true
		}
	}
	return false
}
