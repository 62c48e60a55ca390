package finance

import (
	"fmt"
	"strings"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/formula"
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	Deposit    Direction = "deposit"
	Withdrawal Direction = "withdrawal"
	Transfer   Direction = "transfer"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Deposit, Withdrawal, Transfer:
		return d, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// AmountPlaces is the number of decimal places amounts are rounded to.
const AmountPlaces = 2

// Rule is one recurring cash flow. Index is the declaration position and
// orders same-day events.
type Rule struct {
	Index     int
	Label     string
	Amount    *formula.Expression
	Direction Direction

	SourceAccountID string
	DestAccountID   string // transfer only

	DateSpec       datespec.Spec
	EffectiveStart *date.Date
	EffectiveEnd   *date.Date
}

// Reads returns the accounts other than the source whose balance the amount reads.
func (r *Rule) Reads() []string {
	var out []string
	for _, id := range r.Amount.Accounts() {
		if id != r.SourceAccountID {
			out = append(out, id)
		}
	}
	return out
}

func (r *Rule) ActiveWindow(w datespec.Window) datespec.Window {
	return w.Narrow(r.EffectiveStart, r.EffectiveEnd)
}

// Evaluate returns the signed delta the rule applies to its source account
// on day. A transfer credits the destination with the negated value.
func (r *Rule) Evaluate(day date.Date, env formula.Env) (decimal.Decimal, error) {
	amount, err := r.Amount.Eval(env)
	if err != nil {
		return decimal.Zero, fmt.Errorf("evaluating %q of rule %q on %s: %w", r.Amount, r.Label, datespec.Format(day), err)
	}
	amount = amount.Round(AmountPlaces)
	if r.Direction == Deposit {
		return amount, nil
	}
	return amount.Neg(), nil
}
