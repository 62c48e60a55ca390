// Package finance projects account balances from a forecast spec: it expands
// every rule into dated events, orders accounts by their balance and transfer
// dependencies and folds the events into per account ledgers.
package finance

import (
	"fmt"
	"slices"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/formula"
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
)

type options struct {
	costBasis map[string]decimal.Decimal
}

type Option func(*options)

// WithCostBasis seeds accounts declaring a cost_basis with the brokerage lot
// total of that name, keyed by brokerage account name.
func WithCostBasis(totals map[string]decimal.Decimal) Option {
	return func(o *options) {
		o.costBasis = totals
	}
}

// TransferRecord is one applied transfer. The source was debited and the
// destination credited with Amount on Date.
type TransferRecord struct {
	Rule            string
	Index           int
	SourceAccountID string
	DestAccountID   string
	Date            date.Date
	Amount          decimal.Decimal

	settled bool
}

type AccountSeries struct {
	ID     string
	Name   string
	Points []GroupedBalance
}

type Chart struct {
	Name   string
	Series []AccountSeries
}

type Projector struct {
	Currency string

	window    datespec.Window
	accounts  []*Account
	byID      map[string]*Account
	order     []string
	rules     []*Rule
	charts    []ChartSpec
	transfers []*TransferRecord
}

// FromSpec validates spec and projects every account over [start, end].
// Nothing is returned unless the whole projection succeeds.
func FromSpec(spec *Spec, start, end date.Date, opts ...Option) (*Projector, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	w := datespec.Window{Start: start, End: end}
	if w.Empty() {
		return nil, fmt.Errorf("%w %s", ErrEmptyWindow, w)
	}
	holidays, err := spec.holidays()
	if err != nil {
		return nil, err
	}
	p := &Projector{
		Currency: spec.Currency,
		window:   w,
		byID:     make(map[string]*Account, len(spec.Accounts)),
		charts:   spec.Charts,
	}
	for _, as := range spec.Accounts {
		acc, err := as.build(start)
		if err != nil {
			return nil, err
		}
		if _, ok := p.byID[acc.ID]; ok {
			return nil, &SpecValidationError{Account: acc.ID, Field: "id", Reason: "is declared more than once"}
		}
		costBasisBalance(acc, o.costBasis)
		acc.window = w
		p.accounts = append(p.accounts, acc)
		p.byID[acc.ID] = acc
	}
	for i, rs := range spec.Rules {
		r, err := rs.build(i, p.byID)
		if err != nil {
			return nil, err
		}
		p.rules = append(p.rules, r)
		p.byID[r.SourceAccountID].Rules = append(p.byID[r.SourceAccountID].Rules, r)
		if r.DestAccountID != "" {
			p.byID[r.DestAccountID].Rules = append(p.byID[r.DestAccountID].Rules, r)
		}
	}
	for _, c := range spec.Charts {
		for _, id := range c.AccountIDs {
			if _, ok := p.byID[id]; !ok {
				return nil, &UnknownAccountError{Chart: c.Name, AccountID: id}
			}
		}
	}
	if p.order, err = p.dependencies().order(); err != nil {
		return nil, err
	}
	if err := p.project(datespec.NewResolver(holidays...)); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Projector) dependencies() *graph {
	ids := make([]string, len(p.accounts))
	for i, acc := range p.accounts {
		ids[i] = acc.ID
	}
	g := newGraph(ids)
	for _, r := range p.rules {
		for _, id := range r.Reads() {
			g.addEdge(id, r.SourceAccountID)
		}
		if r.Direction == Transfer {
			g.addEdge(r.SourceAccountID, r.DestAccountID)
		}
	}
	return g
}

func (p *Projector) project(resolver *datespec.Resolver) error {
	events := make(map[string][]Event, len(p.accounts))
	for _, r := range p.rules {
		src := p.byID[r.SourceAccountID]
		w := r.ActiveWindow(p.window)
		w.Start = max(w.Start, src.Seed())
		var dst *Account
		if r.Direction == Transfer {
			dst = p.byID[r.DestAccountID]
			w.Start = max(w.Start, dst.Seed())
		}
		days, err := resolver.Resolve(r.DateSpec, w)
		if err != nil {
			return &SpecValidationError{Rule: r.Label, Field: "date_spec", Err: err}
		}
		for _, day := range days {
			if dst == nil {
				events[src.ID] = append(events[src.ID], p.ruleEvent(r, day, nil))
				continue
			}
			t := &TransferRecord{
				Rule:            r.Label,
				Index:           r.Index,
				SourceAccountID: src.ID,
				DestAccountID:   dst.ID,
				Date:            day,
			}
			p.transfers = append(p.transfers, t)
			events[src.ID] = append(events[src.ID], p.ruleEvent(r, day, t))
			events[dst.ID] = append(events[dst.ID], creditEvent(r, t))
		}
	}
	for _, id := range p.order {
		acc := p.byID[id]
		if acc.Seed().After(p.window.End) {
			// opens after the window, nothing to record
			acc.projected = true
			continue
		}
		ledger, err := Accumulate(acc, acc.Seed(), events[id])
		if err != nil {
			return err
		}
		acc.ledger = ledger
		acc.projected = true
	}
	slices.SortStableFunc(p.transfers, func(a, b *TransferRecord) int {
		return compareEvents(Event{Date: a.Date, Index: a.Index}, Event{Date: b.Date, Index: b.Index})
	})
	return nil
}

// ruleEvent evaluates r against its source account. For transfers the
// evaluated amount is stored on t for the matching credit.
func (p *Projector) ruleEvent(r *Rule, day date.Date, t *TransferRecord) Event {
	return Event{Date: day, Index: r.Index, Label: r.Label, Delta: func(running decimal.Decimal) (decimal.Decimal, error) {
		delta, err := r.Evaluate(day, p.env(r.SourceAccountID, day, running))
		if err != nil {
			return decimal.Zero, err
		}
		if t != nil {
			t.Amount = delta.Neg()
			t.settled = true
		}
		return delta, nil
	}}
}

func creditEvent(r *Rule, t *TransferRecord) Event {
	return Event{Date: t.Date, Index: r.Index, Label: r.Label, Delta: func(decimal.Decimal) (decimal.Decimal, error) {
		if !t.settled {
			return decimal.Zero, &DependencyCycleError{Accounts: []string{t.SourceAccountID, t.DestAccountID}}
		}
		return t.Amount, nil
	}}
}

// env resolves balance reads for a rule of account self. The account's own
// balance is the running balance before the event; any other account must
// already be projected.
func (p *Projector) env(self string, day date.Date, running decimal.Decimal) formula.Env {
	return formula.EnvFunc(func(id string) (decimal.Decimal, error) {
		if id == self {
			return running, nil
		}
		acc, ok := p.byID[id]
		if !ok {
			return decimal.Zero, &UnknownAccountError{AccountID: id}
		}
		if !acc.projected {
			return decimal.Zero, &DependencyCycleError{Accounts: []string{id, self}}
		}
		return acc.BalanceAsOf(day), nil
	})
}

func (p *Projector) Window() datespec.Window {
	return p.window
}

func (p *Projector) Account(id string) (*Account, error) {
	acc, ok := p.byID[id]
	if !ok {
		return nil, &UnknownAccountError{AccountID: id}
	}
	return acc, nil
}

// Accounts returns the accounts in declaration order.
func (p *Projector) Accounts() []*Account {
	return slices.Clone(p.accounts)
}

// Order returns the account ids in the order they were projected.
func (p *Projector) Order() []string {
	return slices.Clone(p.order)
}

// Transfers returns every applied transfer ordered by date and declaration index.
func (p *Projector) Transfers() []TransferRecord {
	out := make([]TransferRecord, len(p.transfers))
	for i, t := range p.transfers {
		out[i] = *t
	}
	return out
}

// Grouped returns the grouped series of every account in declaration order.
func (p *Projector) Grouped(period datespec.Period) []AccountSeries {
	out := make([]AccountSeries, len(p.accounts))
	for i, acc := range p.accounts {
		out[i] = series(acc, period)
	}
	return out
}

func (p *Projector) Charts(period datespec.Period) []Chart {
	out := make([]Chart, 0, len(p.charts))
	for _, c := range p.charts {
		chart := Chart{Name: c.Name, Series: make([]AccountSeries, 0, len(c.AccountIDs))}
		for _, id := range c.AccountIDs {
			chart.Series = append(chart.Series, series(p.byID[id], period))
		}
		out = append(out, chart)
	}
	return out
}

func series(acc *Account, period datespec.Period) AccountSeries {
	return AccountSeries{ID: acc.ID, Name: acc.Name, Points: acc.RunningBalanceGrouped(period)}
}

// Replay feeds every ledger entry, account by account in declaration order,
// and then every transfer to rec.
func (p *Projector) Replay(rec Recorder) error {
	for _, acc := range p.accounts {
		for _, e := range acc.ledger {
			if err := rec.OnEntry(acc.ID, e); err != nil {
				return fmt.Errorf("recording entry of %s on %s: %w", acc.ID, datespec.Format(e.Date), err)
			}
		}
	}
	for _, t := range p.transfers {
		if err := rec.OnTransfer(t.SourceAccountID, t.DestAccountID, t.Date, t.Amount); err != nil {
			return fmt.Errorf("recording transfer %q from %s to %s on %s: %w", t.Rule, t.SourceAccountID, t.DestAccountID, datespec.Format(t.Date), err)
		}
	}
	return nil
}
