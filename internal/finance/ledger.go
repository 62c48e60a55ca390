package finance

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
)

const SeedLabel = "seed"

type LedgerEntry struct {
	Date    date.Date
	Delta   decimal.Decimal
	Balance decimal.Decimal
	Label   string
}

// Event is a dated cash flow waiting to be folded into a ledger. Delta
// receives the running balance just before the event.
type Event struct {
	Date  date.Date
	Index int
	Label string
	Delta func(running decimal.Decimal) (decimal.Decimal, error)
}

func FixedEvent(day date.Date, index int, label string, delta decimal.Decimal) Event {
	return Event{Date: day, Index: index, Label: label, Delta: func(decimal.Decimal) (decimal.Decimal, error) {
		return delta, nil
	}}
}

func compareEvents(a, b Event) int {
	if c := cmp.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}

// Accumulate folds events into a ledger seeded with the account's initial
// balance on seed. Events are applied in (date, declaration index) order;
// events before seed are rejected.
func Accumulate(acc *Account, seed date.Date, events []Event) ([]LedgerEntry, error) {
	events = slices.Clone(events)
	slices.SortStableFunc(events, compareEvents)
	ledger := make([]LedgerEntry, 0, len(events)+1)
	balance := acc.InitialBalance
	ledger = append(ledger, LedgerEntry{Date: seed, Delta: decimal.Zero, Balance: balance, Label: SeedLabel})
	for _, e := range events {
		if e.Date.Before(seed) {
			return nil, fmt.Errorf("event %q on %s is before the seed of account %q on %s", e.Label, datespec.Format(e.Date), acc.ID, datespec.Format(seed))
		}
		delta, err := e.Delta(balance)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", acc.ID, err)
		}
		balance = balance.Add(delta)
		ledger = append(ledger, LedgerEntry{Date: e.Date, Delta: delta, Balance: balance, Label: e.Label})
	}
	return ledger, nil
}
