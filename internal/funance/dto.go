package funance

import (
	"fmt"
	"slices"

	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/finance"
	"github.com/SimonSchneider/funance/internal/ui"
	"github.com/SimonSchneider/goslu/date"
	"github.com/shopspring/decimal"
)

type Point struct {
	Label   string          `json:"label"`
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Balance decimal.Decimal `json:"balance"`
	Display string          `json:"display"`
}

type Series struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	TextColor string  `json:"textColor"`
	Points    []Point `json:"points,omitempty"`
}

type Chart struct {
	Name   string   `json:"name"`
	Series []Series `json:"series"`
}

type Charts struct {
	Currency string  `json:"currency"`
	Period   string  `json:"period"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Charts   []Chart `json:"charts"`
}

type Entry struct {
	Date    string          `json:"date"`
	Label   string          `json:"label"`
	Delta   decimal.Decimal `json:"delta"`
	Balance decimal.Decimal `json:"balance"`
}

type Ledger struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Currency string   `json:"currency"`
	Rules    []string `json:"rules"`
	Entries  []Entry  `json:"entries"`
}

type Transfer struct {
	Date   string          `json:"date"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Journal is the replayed projection: the ledgers of the selected accounts
// and the transfers touching them.
type Journal struct {
	Currency  string     `json:"currency"`
	Ledgers   []Ledger   `json:"ledgers"`
	Transfers []Transfer `json:"transfers"`
}

// ChartsOf converts the projector's charts. Without declared charts every
// account is drawn on a single one.
func ChartsOf(p *finance.Projector, period datespec.Period, only []string) Charts {
	currency := ui.Currency(p.Currency)
	charts := p.Charts(period)
	if len(charts) == 0 {
		charts = []finance.Chart{{Name: "Accounts", Series: p.Grouped(period)}}
	}
	out := Charts{
		Currency: currency,
		Period:   period.String(),
		Start:    datespec.Format(p.Window().Start),
		End:      datespec.Format(p.Window().End),
		Charts:   make([]Chart, 0, len(charts)),
	}
	for _, c := range charts {
		if len(only) > 0 && !slices.Contains(only, c.Name) {
			continue
		}
		chart := Chart{Name: c.Name, Series: make([]Series, len(c.Series))}
		for i, s := range c.Series {
			chart.Series[i] = seriesOf(s, i, currency)
		}
		out.Charts = append(out.Charts, chart)
	}
	return out
}

func seriesOf(s finance.AccountSeries, i int, currency string) Series {
	color := ui.SeriesColor(i)
	out := Series{ID: s.ID, Name: s.Name, Color: color, TextColor: ui.ContrastTextColor(color), Points: make([]Point, len(s.Points))}
	for j, p := range s.Points {
		out.Points[j] = Point{
			Label:   p.Label,
			Start:   datespec.Format(p.Start),
			End:     datespec.Format(p.End),
			Balance: p.Balance,
			Display: ui.FormatMoney(p.Balance, currency),
		}
	}
	return out
}

// JournalOf replays p into the ledgers of the accounts named by ids, every
// account when ids is empty.
func JournalOf(p *finance.Projector, ids ...string) (Journal, error) {
	currency := ui.Currency(p.Currency)
	out := Journal{Currency: currency, Ledgers: []Ledger{}, Transfers: []Transfer{}}
	index := make(map[string]int)
	for _, acc := range p.Accounts() {
		if len(ids) > 0 && !slices.Contains(ids, acc.ID) {
			continue
		}
		index[acc.ID] = len(out.Ledgers)
		out.Ledgers = append(out.Ledgers, ledgerOf(acc, currency))
	}
	rec := finance.CompositeRecorder{
		EntryRecorder: finance.EntryRecorderFunc(func(id string, e finance.LedgerEntry) error {
			if i, ok := index[id]; ok {
				out.Ledgers[i].Entries = append(out.Ledgers[i].Entries, Entry{Date: datespec.Format(e.Date), Label: e.Label, Delta: e.Delta, Balance: e.Balance})
			}
			return nil
		}),
		TransferRecorder: finance.TransferRecorderFunc(func(from, to string, day date.Date, amount decimal.Decimal) error {
			_, src := index[from]
			_, dst := index[to]
			if src || dst {
				out.Transfers = append(out.Transfers, Transfer{Date: datespec.Format(day), From: from, To: to, Amount: amount})
			}
			return nil
		}),
	}
	if err := p.Replay(rec); err != nil {
		return Journal{}, fmt.Errorf("replaying projection: %w", err)
	}
	return out, nil
}

func ledgerOf(acc *finance.Account, currency string) Ledger {
	l := Ledger{ID: acc.ID, Name: acc.Name, Currency: currency, Rules: make([]string, len(acc.Rules)), Entries: []Entry{}}
	for i, r := range acc.Rules {
		l.Rules[i] = r.Label
	}
	return l
}
