package datespec

import (
	"fmt"
	"strings"
	"time"

	"github.com/SimonSchneider/goslu/date"
)

// Period is a calendar bucket size used to re-sample balance series.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		panic(fmt.Sprintf("unknown period %d", int(p)))
	}
}

func ParsePeriod(p string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "daily", "day", "d":
		return Daily, nil
	case "weekly", "week", "w":
		return Weekly, nil
	case "monthly", "month", "m":
		return Monthly, nil
	case "quarterly", "quarter", "q":
		return Quarterly, nil
	case "yearly", "year", "y":
		return Yearly, nil
	default:
		return Monthly, fmt.Errorf("unknown period %q", p)
	}
}

// StartOf returns the first day of the period containing d. Weeks start on Monday.
func StartOf(d date.Date, p Period) date.Date {
	y, m, _ := civil(d)
	switch p {
	case Daily:
		return d
	case Weekly:
		sinceMonday := (int(utc(d).Weekday()) + 6) % 7
		return addDays(d, -sinceMonday)
	case Monthly:
		return New(y, m, 1)
	case Quarterly:
		return New(y, m-(m-1)%3, 1)
	case Yearly:
		return New(y, time.January, 1)
	default:
		panic(fmt.Sprintf("unknown period %d", int(p)))
	}
}

// Next returns the first day of the period following the one containing d.
func Next(d date.Date, p Period) date.Date {
	start := StartOf(d, p)
	switch p {
	case Daily:
		return addDays(start, 1)
	case Weekly:
		return addDays(start, 7)
	case Monthly:
		return AddMonths(start, 1)
	case Quarterly:
		return AddMonths(start, 3)
	default:
		return AddYears(start, 1)
	}
}

// EndOf returns the last day of the period containing d.
func EndOf(d date.Date, p Period) date.Date {
	return addDays(Next(d, p), -1)
}

// Label names the period containing d: 2024-01-03, 2024-W01, 2024-01, 2024-Q1 or 2024.
func Label(d date.Date, p Period) string {
	start := StartOf(d, p)
	y, m, _ := civil(start)
	switch p {
	case Daily:
		return Format(start)
	case Weekly:
		year, week := utc(start).ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return fmt.Sprintf("%04d-%02d", y, int(m))
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", y, (int(m)-1)/3+1)
	default:
		return fmt.Sprintf("%04d", y)
	}
}
