// Package brokerage reads scraped brokerage cost-basis exports and flattens
// their lots for spreadsheets and account seeding.
package brokerage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Prefix is the file name prefix of exports and of the generated file.
const Prefix = "brokerage"

// Value is a scalar that exports carry either as a string or as a number.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected a string or number, got %s", b)
		}
		*v = Value(n)
	}
	return nil
}

// Decimal parses the value, ignoring currency symbols and thousands separators.
func (v Value) Decimal() (decimal.Decimal, error) {
	s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(string(v))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// Collection decodes either a json array or an object whose values are taken
// in key order.
type Collection[T any] []T

func (c *Collection[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var m map[string]T
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		out := make([]T, 0, len(m))
		for _, k := range slices.Sorted(maps.Keys(m)) {
			out = append(out, m[k])
		}
		*c = out
		return nil
	}
	var s []T
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*c = s
	return nil
}

type Lot struct {
	DateAcquired Value `json:"date_acquired"`
	NumShares    Value `json:"num_shares"`
	CostPerShare Value `json:"cost_per_share"`
	TotalCost    Value `json:"total_cost"`
	Term         Value `json:"term"`
}

type Holding struct {
	Ticker      string          `json:"ticker"`
	CompanyName string          `json:"company_name"`
	TotalShares Value           `json:"total_shares"`
	Lots        Collection[Lot] `json:"lots"`
}

type Account struct {
	AccountName string              `json:"account_name"`
	Cash        Value               `json:"cash"`
	CostBasis   Collection[Holding] `json:"cost_basis"`
}

type Meta struct {
	Brokerage string `json:"brokerage"`
	Version   string `json:"version"`
}

type Export struct {
	Meta     Meta                `json:"_meta"`
	Accounts Collection[Account] `json:"accounts"`
}

func ReadExport(r io.Reader) (*Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decoding export: %w", err)
	}
	return &e, nil
}

// ReadExports reads every brokerage*.json file in fsys, in name order.
func ReadExports(fsys fs.FS) ([]*Export, error) {
	names, err := fs.Glob(fsys, Prefix+"*.json")
	if err != nil {
		return nil, fmt.Errorf("listing exports: %w", err)
	}
	exports := make([]*Export, 0, len(names))
	for _, name := range names {
		f, err := fsys.Open(name)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", name, err)
		}
		e, err := ReadExport(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		exports = append(exports, e)
	}
	return exports, nil
}

// Row is one lot together with the account and ticker holding it.
type Row struct {
	AccountName string
	Ticker      string
	Lot
}

func Rows(exports []*Export) []Row {
	var rows []Row
	for _, e := range exports {
		for _, a := range e.Accounts {
			for _, h := range a.CostBasis {
				for _, l := range h.Lots {
					rows = append(rows, Row{AccountName: a.AccountName, Ticker: h.Ticker, Lot: l})
				}
			}
		}
	}
	return rows
}

// TotalCost sums the total cost of every lot per account name.
func TotalCost(exports []*Export) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	for _, r := range Rows(exports) {
		cost, err := r.TotalCost.Decimal()
		if err != nil {
			return nil, fmt.Errorf("total cost of %s lot in %s acquired %s: %w", r.Ticker, r.AccountName, r.DateAcquired, err)
		}
		totals[r.AccountName] = totals[r.AccountName].Add(cost)
	}
	return totals, nil
}
