package finance

import (
	"slices"
	"sort"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID             string
	Name           string
	InitialBalance decimal.Decimal
	StartDate      date.Date
	CostBasis      string // brokerage account whose lot total seeds the balance

	// Rules referencing the account as source or destination, in declaration order.
	Rules []*Rule

	window    datespec.Window
	ledger    []LedgerEntry
	projected bool
}

// Seed is the first day of the account's ledger. Accounts whose seed falls
// after the window end have an empty ledger.
func (a *Account) Seed() date.Date {
	return max(a.StartDate, a.window.Start)
}

func (a *Account) Ledger() []LedgerEntry {
	return slices.Clone(a.ledger)
}

// Balance is the closing balance of the projection.
func (a *Account) Balance() decimal.Decimal {
	if len(a.ledger) == 0 {
		return a.InitialBalance
	}
	return a.ledger[len(a.ledger)-1].Balance
}

// BalanceAsOf returns the balance after every event on or before day.
// Before the seed it is the initial balance.
func (a *Account) BalanceAsOf(day date.Date) decimal.Decimal {
	i := sort.Search(len(a.ledger), func(i int) bool {
		return a.ledger[i].Date.After(day)
	})
	if i == 0 {
		return a.InitialBalance
	}
	return a.ledger[i-1].Balance
}

func (a *Account) RunningBalanceGrouped(period datespec.Period) []GroupedBalance {
	return Group(a.ledger, period, a.window)
}
