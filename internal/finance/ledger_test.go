package finance_test

import (
	"testing"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/finance"
	"github.com/shopspring/decimal"
)

func TestAccumulateOrdersEvents(t *testing.T) {
	acc := &finance.Account{ID: "checking", InitialBalance: dec("100")}
	events := []finance.Event{
		finance.FixedEvent(d("2024-01-05"), 1, "b", dec("5")),
		finance.FixedEvent(d("2024-01-05"), 0, "a", dec("10")),
		finance.FixedEvent(d("2024-01-02"), 2, "c", dec("-3")),
	}
	ledger, err := finance.Accumulate(acc, d("2024-01-01"), events)
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	assertLedger(t, ledger, []entry{
		{"2024-01-01", "0", "100", finance.SeedLabel},
		{"2024-01-02", "-3", "97", "c"},
		{"2024-01-05", "10", "107", "a"},
		{"2024-01-05", "5", "112", "b"},
	})
	if events[0].Label != "b" {
		t.Error("Accumulate() reordered the caller's events")
	}
}

func TestAccumulatePassesRunningBalance(t *testing.T) {
	acc := &finance.Account{ID: "savings", InitialBalance: dec("200")}
	half := finance.Event{Date: d("2024-01-02"), Label: "half", Delta: func(running decimal.Decimal) (decimal.Decimal, error) {
		return running.Div(decimal.NewFromInt(2)).Neg(), nil
	}}
	ledger, err := finance.Accumulate(acc, d("2024-01-01"), []finance.Event{half, half})
	if err != nil {
		t.Fatalf("Accumulate() error = %v", err)
	}
	if got := ledger[len(ledger)-1].Balance; !got.Equal(dec("50")) {
		t.Errorf("final balance = %s, want 50", got)
	}
}

func TestAccumulateRejectsEventsBeforeSeed(t *testing.T) {
	acc := &finance.Account{ID: "checking"}
	_, err := finance.Accumulate(acc, d("2024-01-10"), []finance.Event{finance.FixedEvent(d("2024-01-09"), 0, "early", dec("1"))})
	if err == nil {
		t.Error("Accumulate() expected error for an event before the seed")
	}
}

func TestBalanceAsOf(t *testing.T) {
	spec := newSpec(
		mks(newAccount("checking", withBalance("100"), startingOn("2024-01-05"))),
		newRule("a", finance.Deposit, "checking", "10", once("2024-01-07")),
		newRule("b", finance.Deposit, "checking", "5", once("2024-01-07")),
	)
	acc := account(t, project(t, spec, "2024-01-01", "2024-01-31"), "checking")
	testCases := []struct {
		day  string
		want string
	}{
		{"2024-01-01", "100"},
		{"2024-01-05", "100"},
		{"2024-01-06", "100"},
		{"2024-01-07", "115"},
		{"2024-01-31", "115"},
	}
	for _, tc := range testCases {
		if got := acc.BalanceAsOf(d(tc.day)); !got.Equal(dec(tc.want)) {
			t.Errorf("BalanceAsOf(%s) = %s, want %s", tc.day, got, tc.want)
		}
	}
}

func TestGroup(t *testing.T) {
	ledger := []finance.LedgerEntry{
		{Date: d("2024-01-30"), Balance: dec("10"), Label: finance.SeedLabel},
		{Date: d("2024-02-02"), Delta: dec("5"), Balance: dec("15"), Label: "x"},
		{Date: d("2024-04-10"), Delta: dec("-20"), Balance: dec("-5"), Label: "y"},
	}
	w := datespec.Window{Start: d("2024-01-30"), End: d("2024-05-01")}
	got := finance.Group(ledger, datespec.Monthly, w)
	want := []struct{ label, balance string }{
		{"2024-01", "10"},
		{"2024-02", "15"},
		{"2024-03", "15"},
		{"2024-04", "-5"},
		{"2024-05", "-5"},
	}
	if len(got) != len(want) {
		t.Fatalf("Group() = %+v", got)
	}
	for i, b := range want {
		if got[i].Label != b.label || !got[i].Balance.Equal(dec(b.balance)) {
			t.Errorf("bucket %d = %s %s, want %s %s", i, got[i].Label, got[i].Balance, b.label, b.balance)
		}
	}
	if got[1].Start != d("2024-02-01") || got[1].End != d("2024-02-29") {
		t.Errorf("February bucket spans %s..%s", got[1].Start, got[1].End)
	}
	if got := finance.Group(nil, datespec.Monthly, w); got != nil {
		t.Errorf("Group(nil) = %+v", got)
	}
}
