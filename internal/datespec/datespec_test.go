package datespec_test

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/goslu/date"
)

func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func d(s string) date.Date {
	return Must(date.ParseDate(s))
}

func days(ss ...string) []date.Date {
	out := make([]date.Date, len(ss))
	for i, s := range ss {
		out[i] = d(s)
	}
	return out
}

func window(from, to string) datespec.Window {
	return datespec.Window{Start: d(from), End: d(to)}
}

func withAdjust(weekends, holidays bool) func(*datespec.Spec) {
	return func(s *datespec.Spec) {
		s.SkipWeekends = weekends
		s.SkipHolidays = holidays
	}
}

func spec(s datespec.Spec, features ...func(*datespec.Spec)) datespec.Spec {
	for _, f := range features {
		f(&s)
	}
	return s
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		spec     datespec.Spec
		window   datespec.Window
		holidays []date.Date
		want     []date.Date
	}{
		{
			name:   "once inside window",
			spec:   datespec.Once(d("2024-02-10")),
			window: window("2024-01-01", "2024-03-31"),
			want:   days("2024-02-10"),
		},
		{
			name:   "once outside window",
			spec:   datespec.Once(d("2023-12-31")),
			window: window("2024-01-01", "2024-03-31"),
			want:   nil,
		},
		{
			name:   "monthly anchor on the 31st does not drift",
			spec:   datespec.Every(d("2024-01-31"), 1, datespec.UnitMonth),
			window: window("2024-01-01", "2024-05-31"),
			want:   days("2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"),
		},
		{
			name:   "biweekly anchored before the window",
			spec:   datespec.Every(d("2023-12-25"), 2, datespec.UnitWeek),
			window: window("2024-01-01", "2024-01-31"),
			want:   days("2024-01-08", "2024-01-22"),
		},
		{
			name:   "yearly anchored on a leap day",
			spec:   datespec.Every(d("2020-02-29"), 1, datespec.UnitYear),
			window: window("2023-01-01", "2024-12-31"),
			want:   days("2023-02-28", "2024-02-29"),
		},
		{
			name:   "every third day",
			spec:   datespec.Every(d("2024-01-01"), 3, "days"),
			window: window("2024-01-02", "2024-01-12"),
			want:   days("2024-01-04", "2024-01-07", "2024-01-10"),
		},
		{
			name:   "anchor after window",
			spec:   datespec.Every(d("2025-01-01"), 1, datespec.UnitMonth),
			window: window("2024-01-01", "2024-12-31"),
			want:   nil,
		},
		{
			name:   "monthly by day clamps short months",
			spec:   datespec.MonthlyOn(31, datespec.OverflowClamp),
			window: window("2024-01-01", "2024-04-30"),
			want:   days("2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"),
		},
		{
			name:   "monthly by day defaults to clamp",
			spec:   datespec.MonthlyOn(30, ""),
			window: window("2023-02-01", "2023-03-31"),
			want:   days("2023-02-28", "2023-03-30"),
		},
		{
			name:   "monthly by day skips short months",
			spec:   datespec.MonthlyOn(31, datespec.OverflowSkip),
			window: window("2024-01-01", "2024-04-30"),
			want:   days("2024-01-31", "2024-03-31"),
		},
		{
			name:   "monthly by day clipped to a partial window",
			spec:   datespec.MonthlyOn(1, datespec.OverflowClamp),
			window: window("2024-01-15", "2024-03-10"),
			want:   days("2024-02-01", "2024-03-01"),
		},
		{
			name:   "weekend shifted to monday",
			spec:   spec(datespec.MonthlyOn(6, datespec.OverflowClamp), withAdjust(true, false)),
			window: window("2024-01-01", "2024-03-31"),
			want:   days("2024-01-08", "2024-02-06", "2024-03-06"),
		},
		{
			name:     "holiday shifted to next day",
			spec:     spec(datespec.Once(d("2024-12-25")), withAdjust(false, true)),
			window:   window("2024-12-01", "2024-12-31"),
			holidays: days("2024-12-25"),
			want:     days("2024-12-26"),
		},
		{
			name:     "holidays ignored unless requested",
			spec:     datespec.Once(d("2024-12-25")),
			window:   window("2024-12-01", "2024-12-31"),
			holidays: days("2024-12-25"),
			want:     days("2024-12-25"),
		},
		{
			name:   "shifted dates are deduplicated",
			spec:   spec(datespec.Every(d("2024-01-05"), 1, datespec.UnitDay), withAdjust(true, false)),
			window: window("2024-01-05", "2024-01-08"),
			want:   days("2024-01-05", "2024-01-08"),
		},
		{
			name:   "shifted past window end is dropped",
			spec:   spec(datespec.Every(d("2024-01-05"), 1, datespec.UnitDay), withAdjust(true, false)),
			window: window("2024-01-05", "2024-01-06"),
			want:   days("2024-01-05"),
		},
		{
			name:   "cron day of month",
			spec:   datespec.Matching("*-*-25"),
			window: window("2024-01-01", "2024-03-31"),
			want:   days("2024-01-25", "2024-02-25", "2024-03-25"),
		},
		{
			name:   "empty window",
			spec:   datespec.MonthlyOn(1, datespec.OverflowClamp),
			window: window("2024-02-01", "2024-01-01"),
			want:   nil,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := datespec.NewResolver(tc.holidays...).Resolve(tc.spec, tc.window)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if !slices.Equal(got, tc.want) {
				t.Errorf("Resolve() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	s := spec(datespec.Every(d("2023-11-30"), 1, datespec.UnitMonth), withAdjust(true, true))
	w := window("2024-01-01", "2025-12-31")
	r := datespec.NewResolver(days("2024-05-30", "2025-01-30")...)
	first := Must(r.Resolve(s, w))
	second := Must(r.Resolve(s, w))
	if !slices.Equal(first, second) {
		t.Fatalf("two resolutions differ: %v vs %v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if !first[i-1].Before(first[i]) {
			t.Errorf("dates not strictly increasing at %d: %s, %s", i, first[i-1], first[i])
		}
	}
}

func TestResolveInvalid(t *testing.T) {
	invalid := map[string]datespec.Spec{
		"unknown kind":     {Kind: "fortnightly"},
		"zero count":       datespec.Every(d("2024-01-01"), 0, datespec.UnitMonth),
		"unknown unit":     datespec.Every(d("2024-01-01"), 1, "decade"),
		"day out of range": datespec.MonthlyOn(32, datespec.OverflowClamp),
		"unknown overflow": datespec.MonthlyOn(12, "wrap"),
		"missing cron":     datespec.Matching(""),
	}
	for name, s := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := datespec.Resolve(s, window("2024-01-01", "2024-12-31"))
			if !errors.Is(err, datespec.ErrInvalid) {
				t.Errorf("Resolve() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	if k, err := datespec.ParseKind(" Monthly_By_Day "); err != nil || k != datespec.KindMonthlyByDay {
		t.Errorf("ParseKind() = %q, %v", k, err)
	}
	if _, err := datespec.ParseKind("hourly"); !errors.Is(err, datespec.ErrInvalid) {
		t.Errorf("ParseKind(hourly) error = %v, want ErrInvalid", err)
	}
}

func TestAddMonths(t *testing.T) {
	if got := datespec.AddMonths(d("2024-01-31"), 1); got != d("2024-02-29") {
		t.Errorf("AddMonths(2024-01-31, 1) = %s", got)
	}
	if got := datespec.AddYears(d("2024-02-29"), 1); got != d("2025-02-28") {
		t.Errorf("AddYears(2024-02-29, 1) = %s", got)
	}
	if got := datespec.AddMonths(d("2024-03-15"), -3); got != d("2023-12-15") {
		t.Errorf("AddMonths(2024-03-15, -3) = %s", got)
	}
}

func TestPeriodBuckets(t *testing.T) {
	testCases := []struct {
		name       string
		in         date.Date
		period     datespec.Period
		start, end date.Date
		label      string
	}{
		{"day", d("2024-01-03"), datespec.Daily, d("2024-01-03"), d("2024-01-03"), "2024-01-03"},
		{"iso week", d("2024-01-03"), datespec.Weekly, d("2024-01-01"), d("2024-01-07"), "2024-W01"},
		{"week across years", d("2024-12-31"), datespec.Weekly, d("2024-12-30"), d("2025-01-05"), "2025-W01"},
		{"leap february", d("2024-02-15"), datespec.Monthly, d("2024-02-01"), d("2024-02-29"), "2024-02"},
		{"second quarter", d("2024-05-10"), datespec.Quarterly, d("2024-04-01"), d("2024-06-30"), "2024-Q2"},
		{"year", d("2024-07-04"), datespec.Yearly, d("2024-01-01"), d("2024-12-31"), "2024"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := datespec.StartOf(tc.in, tc.period); got != tc.start {
				t.Errorf("StartOf() = %s, want %s", got, tc.start)
			}
			if got := datespec.EndOf(tc.in, tc.period); got != tc.end {
				t.Errorf("EndOf() = %s, want %s", got, tc.end)
			}
			if got := datespec.Label(tc.in, tc.period); got != tc.label {
				t.Errorf("Label() = %s, want %s", got, tc.label)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]datespec.Period{"month": datespec.Monthly, "Weekly": datespec.Weekly, "q": datespec.Quarterly} {
		if got, err := datespec.ParsePeriod(in); err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := datespec.ParsePeriod("fortnight"); err == nil {
		t.Error("ParsePeriod(fortnight) expected error")
	}
}

// inZone runs the rest of the test with time.Local set to a fixed offset.
func inZone(t *testing.T, offsetHours int) {
	t.Helper()
	local := time.Local
	time.Local = time.FixedZone("test", offsetHours*3600)
	t.Cleanup(func() { time.Local = local })
}

func TestCalendarIgnoresLocalZone(t *testing.T) {
	for _, offset := range []int{-10, -5, 0, 9, 14} {
		t.Run(fmt.Sprintf("UTC%+d", offset), func(t *testing.T) {
			inZone(t, offset)
			if got := datespec.Format(datespec.New(2024, time.January, 1)); got != "2024-01-01" {
				t.Errorf("Format(New(2024-01-01)) = %s", got)
			}
			got := Must(datespec.Resolve(datespec.MonthlyOn(1, datespec.OverflowClamp), window("2024-01-01", "2024-03-31")))
			if want := days("2024-01-01", "2024-02-01", "2024-03-01"); !slices.Equal(got, want) {
				t.Errorf("monthly on the 1st = %v, want %v", got, want)
			}
			saturday := datespec.Once(d("2024-06-01"))
			saturday.SkipWeekends = true
			if got := Must(datespec.Resolve(saturday, window("2024-06-01", "2024-06-30"))); !slices.Equal(got, days("2024-06-03")) {
				t.Errorf("saturday shifted to %v, want 2024-06-03", got)
			}
			if got := datespec.StartOf(d("2024-01-03"), datespec.Weekly); got != d("2024-01-01") {
				t.Errorf("week of 2024-01-03 starts %s", datespec.Format(got))
			}
			if got := datespec.Label(d("2024-01-03"), datespec.Weekly); got != "2024-W01" {
				t.Errorf("Label(weekly) = %s", got)
			}
			if got := datespec.Label(d("2024-03-31"), datespec.Monthly); got != "2024-03" {
				t.Errorf("Label(monthly) = %s", got)
			}
			if got := window("2024-01-01", "2024-12-31").String(); got != "2024-01-01..2024-12-31" {
				t.Errorf("Window.String() = %s", got)
			}
		})
	}
}
