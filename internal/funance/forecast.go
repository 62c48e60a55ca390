package funance

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/SimonSchneider/funance/internal/brokerage"
	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/finance"
	"github.com/SimonSchneider/funance/internal/ui"
	"github.com/SimonSchneider/goslu/date"
)

// Spec files looked up in the working directory when none is configured.
var specCandidates = []string{"forecast.yaml", "forecast.dist.yaml"}

// findSpec resolves the forecast document: the configured path relative to wd,
// or the first existing candidate.
func findSpec(wd, configured string) (string, error) {
	if configured != "" {
		if !filepath.IsAbs(configured) {
			configured = filepath.Join(wd, configured)
		}
		return configured, nil
	}
	for _, name := range specCandidates {
		path := filepath.Join(wd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no forecast spec found in %s (looked for %v)", wd, specCandidates)
}

func loadSpecFile(path string) (*finance.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening spec: %w", err)
	}
	defer f.Close()
	spec, err := finance.LoadSpec(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return spec, nil
}

// loadCostBasis totals the lots of every brokerage export in lots. A nil fs or
// one without exports seeds nothing.
func loadCostBasis(lots fs.FS) ([]finance.Option, error) {
	if lots == nil {
		return nil, nil
	}
	exports, err := brokerage.ReadExports(lots)
	if err != nil {
		return nil, fmt.Errorf("reading brokerage exports: %w", err)
	}
	if len(exports) == 0 {
		return nil, nil
	}
	totals, err := brokerage.TotalCost(exports)
	if err != nil {
		return nil, fmt.Errorf("totaling brokerage lots: %w", err)
	}
	return []finance.Option{finance.WithCostBasis(totals)}, nil
}

// Forecaster projects the current spec over a requested window.
type Forecaster struct {
	load  func() (*finance.Spec, error)
	opts  []finance.Option
	today func() date.Date
}

func NewForecaster(load func() (*finance.Spec, error), today func() date.Date, opts ...finance.Option) *Forecaster {
	return &Forecaster{load: load, opts: opts, today: today}
}

// StaticSpec loads the spec once and serves it for every projection.
func StaticSpec(spec *finance.Spec) func() (*finance.Spec, error) {
	return func() (*finance.Spec, error) { return spec, nil }
}

// FileSpec re-reads path on every call when watch is set, otherwise only once.
func FileSpec(path string, watch bool) func() (*finance.Spec, error) {
	if watch {
		return func() (*finance.Spec, error) { return loadSpecFile(path) }
	}
	return sync.OnceValues(func() (*finance.Spec, error) { return loadSpecFile(path) })
}

// Window fills the missing bounds: the forecast starts tomorrow and runs a year.
func (f *Forecaster) Window(start, end *date.Date) datespec.Window {
	from := ui.OrDefault(start, f.today().Add(date.Day))
	return datespec.Window{Start: from, End: ui.OrDefault(end, datespec.AddYears(from, 1))}
}

func (f *Forecaster) Project(start, end *date.Date) (*finance.Projector, error) {
	spec, err := f.load()
	if err != nil {
		return nil, err
	}
	w := f.Window(start, end)
	return finance.FromSpec(spec, w.Start, w.End, f.opts...)
}
