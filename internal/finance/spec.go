package finance

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/formula"
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Spec is the declarative forecast document.
type Spec struct {
	Currency string        `yaml:"currency"`
	Holidays []string      `yaml:"holidays"`
	Accounts []AccountSpec `yaml:"accounts"`
	Rules    []RuleSpec    `yaml:"rules"`
	Charts   []ChartSpec   `yaml:"charts"`
}

type AccountSpec struct {
	ID             string `yaml:"id"`
	Name           string `yaml:"name"`
	InitialBalance string `yaml:"initial_balance"`
	StartDate      string `yaml:"start_date"`
	CostBasis      string `yaml:"cost_basis"`
}

type RuleSpec struct {
	Label           string       `yaml:"label"`
	Direction       string       `yaml:"direction"`
	SourceAccountID string       `yaml:"source_account_id"`
	DestAccountID   string       `yaml:"dest_account_id"`
	Amount          string       `yaml:"amount"`
	DateSpec        DateSpecSpec `yaml:"date_spec"`
	EffectiveStart  string       `yaml:"effective_start"`
	EffectiveEnd    string       `yaml:"effective_end"`
}

type DateSpecSpec struct {
	Kind         string `yaml:"kind"`
	Date         string `yaml:"date"`
	Anchor       string `yaml:"anchor"`
	Unit         string `yaml:"unit"`
	Count        int    `yaml:"count"`
	Day          int    `yaml:"day"`
	Overflow     string `yaml:"overflow"`
	Cron         string `yaml:"cron"`
	SkipWeekends bool   `yaml:"skip_weekends"`
	SkipHolidays bool   `yaml:"skip_holidays"`
}

type ChartSpec struct {
	Name       string   `yaml:"name"`
	AccountIDs []string `yaml:"account_ids"`
}

// LoadSpec decodes a YAML forecast document. Unknown keys and mistyped
// values are reported as *SpecValidationError.
func LoadSpec(r io.Reader) (*Spec, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return &spec, nil
		}
		return nil, &SpecValidationError{Reason: "decoding yaml", Err: err}
	}
	return &spec, nil
}

func parseDate(raw string) (date.Date, error) {
	return date.ParseDate(strings.TrimSpace(raw))
}

func parseOptionalDate(raw string) (*date.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Spec) holidays() ([]date.Date, error) {
	out := make([]date.Date, 0, len(s.Holidays))
	for _, h := range s.Holidays {
		d, err := parseDate(h)
		if err != nil {
			return nil, &SpecValidationError{Field: "holidays", Reason: fmt.Sprintf("parsing %q", h), Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}

func (as AccountSpec) build(defaultStart date.Date) (*Account, error) {
	invalid := func(field string, err error) error {
		return &SpecValidationError{Account: as.ID, Field: field, Err: err}
	}
	id := strings.TrimSpace(as.ID)
	if id == "" {
		return nil, &SpecValidationError{Account: as.Name, Field: "id", Reason: "is required"}
	}
	acc := &Account{ID: id, Name: as.Name, StartDate: defaultStart, CostBasis: strings.TrimSpace(as.CostBasis)}
	if acc.Name == "" {
		acc.Name = id
	}
	if strings.TrimSpace(as.InitialBalance) != "" {
		b, err := formula.ParseAmount(as.InitialBalance)
		if err != nil {
			return nil, invalid("initial_balance", err)
		}
		acc.InitialBalance = b
	}
	if strings.TrimSpace(as.StartDate) != "" {
		d, err := parseDate(as.StartDate)
		if err != nil {
			return nil, invalid("start_date", err)
		}
		acc.StartDate = d
	}
	return acc, nil
}

func (ds DateSpecSpec) build() (datespec.Spec, error) {
	kind, err := datespec.ParseKind(ds.Kind)
	if err != nil {
		return datespec.Spec{}, err
	}
	s := datespec.Spec{Kind: kind, SkipWeekends: ds.SkipWeekends, SkipHolidays: ds.SkipHolidays}
	switch kind {
	case datespec.KindOnce:
		if s.Date, err = parseDate(ds.Date); err != nil {
			return s, fmt.Errorf("%w: date: %w", datespec.ErrInvalid, err)
		}
	case datespec.KindPeriodic:
		if s.Anchor, err = parseDate(ds.Anchor); err != nil {
			return s, fmt.Errorf("%w: anchor: %w", datespec.ErrInvalid, err)
		}
		if s.Unit, err = datespec.ParseUnit(ds.Unit); err != nil {
			return s, err
		}
		s.Count = ds.Count
		if s.Count == 0 {
			s.Count = 1
		}
	case datespec.KindMonthlyByDay:
		s.Day = ds.Day
		if s.Overflow, err = datespec.ParseOverflow(ds.Overflow); err != nil {
			return s, err
		}
	case datespec.KindCron:
		s.Cron = date.Cron(strings.TrimSpace(ds.Cron))
	}
	return s, s.Validate()
}

func (rs RuleSpec) build(index int, accounts map[string]*Account) (*Rule, error) {
	label := strings.TrimSpace(rs.Label)
	if label == "" {
		label = fmt.Sprintf("rule #%d", index+1)
	}
	invalid := func(field, reason string, err error) error {
		return &SpecValidationError{Rule: label, Field: field, Reason: reason, Err: err}
	}
	r := &Rule{
		Index:           index,
		Label:           label,
		SourceAccountID: strings.TrimSpace(rs.SourceAccountID),
		DestAccountID:   strings.TrimSpace(rs.DestAccountID),
	}
	var err error
	if r.Direction, err = ParseDirection(rs.Direction); err != nil {
		return nil, invalid("direction", "", err)
	}
	if r.SourceAccountID == "" {
		return nil, invalid("source_account_id", "is required", nil)
	}
	if _, ok := accounts[r.SourceAccountID]; !ok {
		return nil, &UnknownAccountError{Rule: label, AccountID: r.SourceAccountID}
	}
	switch {
	case r.Direction == Transfer && r.DestAccountID == "":
		return nil, invalid("dest_account_id", "is required for transfers", nil)
	case r.Direction != Transfer && r.DestAccountID != "":
		return nil, invalid("dest_account_id", fmt.Sprintf("is only allowed for transfers, not %s", r.Direction), nil)
	case r.Direction == Transfer && r.DestAccountID == r.SourceAccountID:
		return nil, invalid("dest_account_id", "must differ from source_account_id", nil)
	}
	if r.DestAccountID != "" {
		if _, ok := accounts[r.DestAccountID]; !ok {
			return nil, &UnknownAccountError{Rule: label, AccountID: r.DestAccountID}
		}
	}
	if r.Amount, err = formula.Parse(rs.Amount); err != nil {
		return nil, invalid("amount", "", err)
	}
	for _, id := range r.Amount.Accounts() {
		if _, ok := accounts[id]; !ok {
			return nil, &UnknownAccountError{Rule: label, AccountID: id}
		}
	}
	if r.DateSpec, err = rs.DateSpec.build(); err != nil {
		return nil, invalid("date_spec", "", err)
	}
	if r.EffectiveStart, err = parseOptionalDate(rs.EffectiveStart); err != nil {
		return nil, invalid("effective_start", "", err)
	}
	if r.EffectiveEnd, err = parseOptionalDate(rs.EffectiveEnd); err != nil {
		return nil, invalid("effective_end", "", err)
	}
	if r.EffectiveStart != nil && r.EffectiveEnd != nil && r.EffectiveEnd.Before(*r.EffectiveStart) {
		return nil, invalid("effective_end", fmt.Sprintf("%s is before effective_start %s", datespec.Format(*r.EffectiveEnd), datespec.Format(*r.EffectiveStart)), nil)
	}
	return r, nil
}

// costBasisBalance replaces the initial balance with the brokerage lot total
// when one is known for the account's cost basis.
func costBasisBalance(acc *Account, totals map[string]decimal.Decimal) {
	if acc.CostBasis == "" {
		return
	}
	if total, ok := totals[acc.CostBasis]; ok {
		acc.InitialBalance = total
	}
}
