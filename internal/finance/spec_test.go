package finance_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/finance"
)

const forecastYAML = `
currency: USD
holidays: [2024-12-25]
accounts:
  - id: checking
    name: Checking
    initial_balance: 1000
    start_date: 2024-01-01
  - {id: savings, name: Savings}
rules:
  - label: salary
    direction: deposit
    source_account_id: checking
    amount: 2000
    date_spec: {kind: monthly_by_day, day: 1}
    effective_start: 2024-01-01
    effective_end: 2024-03-01
  - label: rent
    direction: withdrawal
    source_account_id: checking
    amount: 1200
    date_spec: {kind: monthly_by_day, day: 3}
  - label: save
    direction: transfer
    source_account_id: checking
    dest_account_id: savings
    amount: "balance(checking) * 10%"
    date_spec: {kind: periodic, anchor: 2024-01-15, unit: month, count: 1}
charts:
  - name: Cash
    account_ids: [checking, savings]
`

func TestLoadSpec(t *testing.T) {
	spec, err := finance.LoadSpec(strings.NewReader(forecastYAML))
	if err != nil {
		t.Fatalf("LoadSpec() error = %v", err)
	}
	if spec.Currency != "USD" || len(spec.Accounts) != 2 || len(spec.Rules) != 3 || len(spec.Charts) != 1 {
		t.Fatalf("LoadSpec() = %+v", spec)
	}
	if got := spec.Rules[2].DateSpec; got.Kind != "periodic" || got.Anchor != "2024-01-15" || got.Count != 1 {
		t.Errorf("date spec = %+v", got)
	}
	if got := spec.Accounts[0].InitialBalance; got != "1000" {
		t.Errorf("initial balance = %q", got)
	}

	p := project(t, spec, "2024-01-01", "2024-03-31")
	// Jan: 1000 + 2000 - 1200 = 1800, 10% saved on the 15th leaves 1620.
	assertLedger(t, account(t, p, "checking").Ledger()[:5], []entry{
		{"2024-01-01", "0", "1000", finance.SeedLabel},
		{"2024-01-01", "2000", "3000", "salary"},
		{"2024-01-03", "-1200", "1800", "rent"},
		{"2024-01-15", "-180", "1620", "save"},
		{"2024-02-01", "2000", "3620", "salary"},
	})
	charts := p.Charts(datespec.Monthly)
	if len(charts) != 1 || charts[0].Name != "Cash" || charts[0].Series[1].Name != "Savings" {
		t.Fatalf("charts = %+v", charts)
	}
	if got := charts[0].Series[1].Points[0].Balance; !got.Equal(dec("180")) {
		t.Errorf("savings in January = %s, want 180", got)
	}
	assertTransfersAtomic(t, p)
}

func TestLoadSpecRejectsMalformedDocuments(t *testing.T) {
	docs := map[string]string{
		"unknown key":       "accounts:\n  - id: checking\n    balance: 10\n",
		"mistyped count":    "rules:\n  - label: r\n    date_spec: {kind: periodic, count: often}\n",
		"accounts not list": "accounts: checking\n",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			_, err := finance.LoadSpec(strings.NewReader(doc))
			var invalid *finance.SpecValidationError
			if !errors.As(err, &invalid) {
				t.Errorf("LoadSpec() error = %v, want SpecValidationError", err)
			}
		})
	}
}

func TestLoadSpecEmptyDocument(t *testing.T) {
	spec, err := finance.LoadSpec(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadSpec() error = %v", err)
	}
	if len(spec.Accounts) != 0 {
		t.Errorf("LoadSpec() = %+v", spec)
	}
}
