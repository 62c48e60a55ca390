package ui_test

import (
	"slices"
	"testing"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/ui"
	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		val, code, want string
	}{
		{"1234.5", "USD", "$1,234.50"},
		{"0.005", "USD", "$0.01"},
		{"12", "", "$12.00"},
		{"12", "nope", "$12.00"},
	}
	for _, tt := range tests {
		t.Run(tt.val+tt.code, func(t *testing.T) {
			if got := ui.FormatMoney(decimal.RequireFromString(tt.val), tt.code); got != tt.want {
				t.Errorf("FormatMoney(%s, %q) = %s, want %s", tt.val, tt.code, got, tt.want)
			}
		})
	}
}

func TestCurrency(t *testing.T) {
	if got := ui.Currency("EUR"); got != "EUR" {
		t.Errorf("Currency(EUR) = %s", got)
	}
	if got := ui.Currency(""); got != ui.DefaultCurrency {
		t.Errorf("Currency() = %s", got)
	}
}

func TestSeriesColor(t *testing.T) {
	if ui.SeriesColor(0) == ui.SeriesColor(1) {
		t.Error("neighbouring series share a color")
	}
	if ui.SeriesColor(0) != ui.SeriesColor(10) {
		t.Error("palette does not wrap")
	}
	if got := ui.ContrastTextColor(ui.SeriesColor(0)); got != "#fff" {
		t.Errorf("ContrastTextColor(%s) = %s", ui.SeriesColor(0), got)
	}
	if got := ui.ContrastTextColor("#edc948"); got != "#000" {
		t.Errorf("ContrastTextColor(#edc948) = %s", got)
	}
	if got := ui.ContrastTextColor("bad"); got != "#000" {
		t.Errorf("ContrastTextColor(bad) = %s", got)
	}
}

func TestParsing(t *testing.T) {
	if d, err := ui.ParseNullableDate(" "); err != nil || d != nil {
		t.Errorf("ParseNullableDate(blank) = %v, %v", d, err)
	}
	d, err := ui.ParseNullableDate("2024-02-29")
	if err != nil || d == nil || datespec.Format(*d) != "2024-02-29" {
		t.Errorf("ParseNullableDate(2024-02-29) = %v, %v", d, err)
	}
	if _, err := ui.ParseDate("29/02/2024"); err == nil {
		t.Error("ParseDate expected error")
	}
	if got, _ := ui.ParseList("a, b,,c "); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("ParseList() = %v", got)
	}
	if got := ui.OrDefault(nil, 3); got != 3 {
		t.Errorf("OrDefault(nil) = %d", got)
	}
}
