package finance

import (
	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
)

type GroupedBalance struct {
	Label   string
	Start   date.Date
	End     date.Date
	Balance decimal.Decimal
}

// Group reduces a ledger to one closing balance per period, from the period
// holding the first entry through the one holding w.End. Periods without
// entries carry the previous closing balance forward.
func Group(ledger []LedgerEntry, period datespec.Period, w datespec.Window) []GroupedBalance {
	if len(ledger) == 0 || ledger[0].Date.After(w.End) {
		return nil
	}
	var out []GroupedBalance
	balance := ledger[0].Balance
	i := 0
	for start := datespec.StartOf(ledger[0].Date, period); !start.After(w.End); start = datespec.Next(start, period) {
		end := datespec.EndOf(start, period)
		for i < len(ledger) && !ledger[i].Date.After(end) {
			balance = ledger[i].Balance
			i++
		}
		out = append(out, GroupedBalance{
			Label:   datespec.Label(start, period),
			Start:   start,
			End:     end,
			Balance: balance,
		})
	}
	return out
}
