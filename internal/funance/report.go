package funance

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/SimonSchneider/funance/internal/ui"
	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// ChartsMarkdown renders one table per chart with a row per period and a
// column per account.
func ChartsMarkdown(c Charts) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Forecast %s to %s\n\n", c.Start, c.End)
	for _, chart := range c.Charts {
		fmt.Fprintf(&sb, "## %s\n\n", chart.Name)
		header := []string{strings.ToUpper(c.Period[:1]) + c.Period[1:]}
		align := []string{":--"}
		for _, s := range chart.Series {
			header = append(header, s.Name)
			align = append(align, "--:")
		}
		row(&sb, header)
		row(&sb, align)
		for _, p := range periods(chart) {
			cells := []string{p}
			for _, s := range chart.Series {
				i := slices.IndexFunc(s.Points, func(pt Point) bool { return pt.Label == p })
				if i < 0 {
					cells = append(cells, "")
				} else {
					cells = append(cells, s.Points[i].Display)
				}
			}
			row(&sb, cells)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// periods lists the labels of every series point ordered by period start.
func periods(chart Chart) []string {
	type period struct{ start, label string }
	var all []period
	for _, s := range chart.Series {
		for _, p := range s.Points {
			all = append(all, period{p.Start, p.Label})
		}
	}
	slices.SortFunc(all, func(a, b period) int { return strings.Compare(a.start, b.start) })
	all = slices.Compact(all)
	out := make([]string, len(all))
	for i, p := range all {
		out[i] = p.label
	}
	return out
}

// JournalMarkdown renders a table per ledger followed by the transfers.
func JournalMarkdown(j Journal) string {
	var sb strings.Builder
	for _, l := range j.Ledgers {
		sb.WriteString(LedgerMarkdown(l))
	}
	if len(j.Transfers) == 0 {
		return sb.String()
	}
	sb.WriteString("## Transfers\n\n")
	row(&sb, []string{"Date", "From", "To", "Amount"})
	row(&sb, []string{":--", ":--", ":--", "--:"})
	for _, t := range j.Transfers {
		row(&sb, []string{t.Date, t.From, t.To, ui.FormatMoney(t.Amount, j.Currency)})
	}
	sb.WriteString("\n")
	return sb.String()
}

func LedgerMarkdown(l Ledger) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", l.Name)
	if len(l.Rules) > 0 {
		fmt.Fprintf(&sb, "Rules: %s\n\n", strings.Join(l.Rules, ", "))
	}
	row(&sb, []string{"Date", "Label", "Delta", "Balance"})
	row(&sb, []string{":--", ":--", "--:", "--:"})
	for _, e := range l.Entries {
		row(&sb, []string{e.Date, e.Label, ui.FormatMoney(e.Delta, l.Currency), ui.FormatMoney(e.Balance, l.Currency)})
	}
	sb.WriteString("\n")
	return sb.String()
}

func row(sb *strings.Builder, cells []string) {
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(strings.ReplaceAll(c, "|", `\|`))
		sb.WriteString(" |")
	}
	sb.WriteString("\n")
}

// WriteMarkdown writes md as is, or rendered for a terminal when a glamour
// style (dark, light, notty, auto...) is given.
func WriteMarkdown(w io.Writer, md, style string) error {
	if style != "" {
		out, err := glamour.Render(md, style)
		if err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

func MarkdownHTML(md string) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(md), &buf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}
	return buf.Bytes(), nil
}
