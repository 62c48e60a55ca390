package funance

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/SimonSchneider/funance/internal/brokerage"
	"github.com/SimonSchneider/funance/internal/cache"
	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/finance"
	"github.com/SimonSchneider/funance/internal/ui"
	"github.com/SimonSchneider/goslu/sid"
	"github.com/SimonSchneider/goslu/srvu"
	"github.com/google/subcommands"
)

func (a *app) path(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := a.getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return filepath.Join(wd, p), nil
}

// forecaster loads the spec and the optional brokerage lots directory.
func (a *app) forecaster(lots string, watch bool) (*Forecaster, string, error) {
	wd, err := a.getwd()
	if err != nil {
		return nil, "", fmt.Errorf("getting working directory: %w", err)
	}
	specPath, err := findSpec(wd, a.cfg.Spec)
	if err != nil {
		return nil, "", err
	}
	var lotsFS fs.FS
	if lots != "" {
		dir, err := a.path(lots)
		if err != nil {
			return nil, "", err
		}
		lotsFS = os.DirFS(dir)
	}
	opts, err := loadCostBasis(lotsFS)
	if err != nil {
		return nil, "", err
	}
	return NewForecaster(FileSpec(specPath, watch), a.today, opts...), specPath, nil
}

type projectCmd struct {
	*app
	start   string
	end     string
	period  string
	account string
	charts  string
	lots    string
	style   string
	ledger  bool
	json    bool
}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "project account balances over the forecast window" }
func (*projectCmd) Usage() string {
	return `project [-start <date>] [-end <date>] [-period <period>] [-account <id>] [-ledger] [-json]

  Projects every account of the forecast spec and prints one balance per
  period, or the raw ledgers and transfers of the accounts with -ledger.
`
}

func (c *projectCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "First day of the forecast (defaults to tomorrow).")
	f.StringVar(&c.end, "end", "", "Last day of the forecast (defaults to one year after the start).")
	f.StringVar(&c.period, "period", "monthly", "Grouping period (daily, weekly, monthly, quarterly, yearly).")
	f.StringVar(&c.account, "account", "", "Only show this account.")
	f.StringVar(&c.charts, "charts", "", "Comma separated chart names to show.")
	f.StringVar(&c.lots, "lots", c.cfg.Lots, "Directory of brokerage exports seeding cost basis accounts.")
	f.StringVar(&c.style, "style", "", "Render the tables for a terminal with this glamour style (dark, light, notty, auto).")
	f.BoolVar(&c.ledger, "ledger", false, "Print the raw ledger instead of grouped balances.")
	f.BoolVar(&c.json, "json", false, "Print json instead of markdown.")
}

func (c *projectCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.run(); err != nil {
		return c.fail(fmt.Errorf("project: %w", err))
	}
	return subcommands.ExitSuccess
}

func (c *projectCmd) run() error {
	start, err := ui.ParseNullableDate(c.start)
	if err != nil {
		return err
	}
	end, err := ui.ParseNullableDate(c.end)
	if err != nil {
		return err
	}
	period, err := datespec.ParsePeriod(c.period)
	if err != nil {
		return err
	}
	only, err := ui.ParseList(c.charts)
	if err != nil {
		return fmt.Errorf("parsing charts: %w", err)
	}
	f, _, err := c.forecaster(c.lots, false)
	if err != nil {
		return err
	}
	p, err := f.Project(start, end)
	if err != nil {
		return err
	}
	var acc *finance.Account
	if c.account != "" {
		if acc, err = p.Account(c.account); err != nil {
			return err
		}
	}
	if c.ledger {
		var ids []string
		if acc != nil {
			ids = []string{acc.ID}
		}
		journal, err := JournalOf(p, ids...)
		if err != nil {
			return err
		}
		if c.json {
			return c.writeJSON(journal)
		}
		return WriteMarkdown(c.stdout, JournalMarkdown(journal), c.style)
	}
	charts := ChartsOf(p, period, only)
	if acc != nil {
		s := finance.AccountSeries{ID: acc.ID, Name: acc.Name, Points: acc.RunningBalanceGrouped(period)}
		charts.Charts = []Chart{{Name: acc.Name, Series: []Series{seriesOf(s, 0, charts.Currency)}}}
	}
	if c.json {
		return c.writeJSON(charts)
	}
	return WriteMarkdown(c.stdout, ChartsMarkdown(charts), c.style)
}

func (c *projectCmd) writeJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type serveCmd struct {
	*app
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve chart data over http" }
func (*serveCmd) Usage() string {
	return `serve

  Serves the projected charts as json (/charts), server sent events
  (/charts/stream) and html (/report). Raw ledgers are served from
  /journal and /accounts/{id}/ledger. Chart payloads are cached in the
  sqlite db and served from /cache/{key}, or as html from /cache/{key}/report.
`
}

func (c *serveCmd) SetFlags(*flag.FlagSet) {}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.serve(ctx); err != nil {
		return c.fail(fmt.Errorf("serve: %w", err))
	}
	return subcommands.ExitSuccess
}

func (c *serveCmd) serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, os.Kill)
	defer cancel()
	logger := srvu.LogToOutput(c.log)

	f, specPath, err := c.forecaster(c.cfg.Lots, c.cfg.Watch)
	if err != nil {
		return err
	}
	if _, err := f.Project(nil, nil); err != nil {
		return fmt.Errorf("validating forecast: %w", err)
	}
	store, err := cache.Open(ctx, c.cfg.DbURL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()

	srv := &http.Server{
		BaseContext: func(listener net.Listener) context.Context {
			return ctx
		},
		Addr:    c.cfg.Addr,
		Handler: srvu.With(NewHandler(f, store), srvu.WithCompression(), srvu.WithLogger(logger)),
	}
	logger.Printf("starting funance server %s, listening on %s\n  spec: %s (watch: %t)\n  sqliteDB: %s", sid.MustNewString(8), c.cfg.Addr, specPath, c.cfg.Watch, c.cfg.DbURL)
	return srvu.RunServerGracefully(ctx, srv, logger)
}

type exportLotsCmd struct {
	*app
	dir    string
	format string
	output string
}

func (*exportLotsCmd) Name() string     { return "export-lots" }
func (*exportLotsCmd) Synopsis() string { return "flatten brokerage exports into one lot per row" }
func (*exportLotsCmd) Usage() string {
	return `export-lots [-dir <dir>] [-format csv] [-o <file>]

  Reads every brokerage*.json export in dir and writes their lots to
  brokerage.<format> in the same directory.
`
}

func (c *exportLotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dir, "dir", c.cfg.Lots, "Directory holding the brokerage exports (defaults to the working directory).")
	f.StringVar(&c.format, "format", "csv", fmt.Sprintf("Output format, one of %v.", brokerage.SupportedFormatters()))
	f.StringVar(&c.output, "o", "", "Output file (defaults to brokerage.<format> in dir).")
}

func (c *exportLotsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.run(); err != nil {
		return c.fail(fmt.Errorf("export-lots: %w", err))
	}
	return subcommands.ExitSuccess
}

func (c *exportLotsCmd) run() error {
	formatter, err := brokerage.NewFormatter(c.format)
	if err != nil {
		return err
	}
	dir, err := c.path(c.dir)
	if err != nil {
		return err
	}
	exports, err := brokerage.ReadExports(os.DirFS(dir))
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		return fmt.Errorf("no %s*.json exports in %s", brokerage.Prefix, dir)
	}
	output := c.output
	if output == "" {
		output = filepath.Join(dir, brokerage.Prefix+"."+formatter.Extension())
	} else if output, err = c.path(output); err != nil {
		return err
	}
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	if err := formatter.Format(out, exports); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", output, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", output, err)
	}
	fmt.Fprintf(c.stdout, "wrote %d lots from %d exports to %s\n", len(brokerage.Rows(exports)), len(exports), output)
	return nil
}
