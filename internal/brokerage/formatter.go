package brokerage

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
)

type Formatter interface {
	// Extension is the file extension of the output, without the dot.
	Extension() string
	Format(w io.Writer, exports []*Export) error
}

var formatters = map[string]func() Formatter{
	"csv": func() Formatter { return CSVFormatter{} },
}

func SupportedFormatters() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type UnsupportedFormatterError struct {
	Name      string
	Supported []string
}

func (e *UnsupportedFormatterError) Error() string {
	return fmt.Sprintf("unsupported formatter %q, must be one of %s", e.Name, strings.Join(e.Supported, ", "))
}

func NewFormatter(name string) (Formatter, error) {
	f, ok := formatters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &UnsupportedFormatterError{Name: name, Supported: SupportedFormatters()}
	}
	return f(), nil
}

var Headers = []string{"account_name", "ticker", "date_acquired", "num_shares", "cost_per_share", "total_cost", "term"}

// CSVFormatter writes one row per lot in export order.
type CSVFormatter struct{}

func (CSVFormatter) Extension() string { return "csv" }

func (CSVFormatter) Format(w io.Writer, exports []*Export) error {
	rows := Rows(exports)
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.AccountName,
			r.Ticker,
			string(r.DateAcquired),
			string(r.NumShares),
			string(r.CostPerShare),
			string(r.TotalCost),
			string(r.Term),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing %s lot of %s: %w", r.Ticker, r.AccountName, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
