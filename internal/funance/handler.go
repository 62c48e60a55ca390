package funance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/SimonSchneider/funance/internal/cache"
	"github.com/SimonSchneider/funance/internal/datespec"
	"github.com/SimonSchneider/funance/internal/finance"
	"github.com/SimonSchneider/funance/internal/formula"
	"github.com/SimonSchneider/funance/internal/ui"
	"github.com/SimonSchneider/goslu/date"
	"github.com/SimonSchneider/goslu/srvu"
	"github.com/SimonSchneider/goslu/static/shttp"
)

const chartsKind = "charts"

func NewHandler(f *Forecaster, store *cache.Store) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /charts", HandlerCharts(f, store))
	mux.Handle("GET /charts/stream", HandlerChartsStream(f))
	mux.Handle("GET /report", HandlerReport(f))
	mux.Handle("GET /journal", HandlerJournal(f))
	mux.Handle("GET /accounts/{id}/ledger", HandlerLedger(f))
	mux.Handle("GET /cache/{key}", HandlerCache(store))
	mux.Handle("GET /cache/{key}/report", HandlerCachedReport(store))
	return mux
}

type ChartParams struct {
	Start  *date.Date
	End    *date.Date
	Period datespec.Period
	Charts []string
}

func (p *ChartParams) FromForm(r *http.Request) error {
	if err := shttp.Parse(&p.Start, ui.ParseNullableDate, r.FormValue("start"), nil); err != nil {
		return fmt.Errorf("parsing start: %w", err)
	}
	if err := shttp.Parse(&p.End, ui.ParseNullableDate, r.FormValue("end"), nil); err != nil {
		return fmt.Errorf("parsing end: %w", err)
	}
	if err := shttp.Parse(&p.Period, datespec.ParsePeriod, r.FormValue("period"), datespec.Monthly); err != nil {
		return fmt.Errorf("parsing period: %w", err)
	}
	if err := shttp.Parse(&p.Charts, ui.ParseList, r.FormValue("charts"), nil); err != nil {
		return fmt.Errorf("parsing charts: %w", err)
	}
	return nil
}

// projectionStatus maps forecast errors caused by the spec document to a
// client status.
func projectionStatus(err error) int {
	var (
		invalid *finance.SpecValidationError
		unknown *finance.UnknownAccountError
		cycle   *finance.DependencyCycleError
	)
	switch {
	case errors.Is(err, finance.ErrEmptyWindow):
		return http.StatusBadRequest
	case errors.As(err, &invalid), errors.As(err, &unknown), errors.As(err, &cycle),
		errors.Is(err, formula.ErrDivisionByZero):
		return http.StatusUnprocessableEntity
	default:
		return 0
	}
}

// project decodes the params and runs the forecast. A false return means the
// response was already written.
func project(w http.ResponseWriter, r *http.Request, f *Forecaster) (*finance.Projector, ChartParams, bool, error) {
	var params ChartParams
	if err := srvu.Decode(r, &params, false); err != nil {
		http.Error(w, fmt.Sprintf("decoding input: %s", err), http.StatusBadRequest)
		return nil, params, false, nil
	}
	p, err := f.Project(params.Start, params.End)
	if err != nil {
		if status := projectionStatus(err); status != 0 {
			http.Error(w, err.Error(), status)
			return nil, params, false, nil
		}
		return nil, params, false, fmt.Errorf("projecting forecast: %w", err)
	}
	return p, params, true, nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encoding response: %w", err)
	}
	return nil
}

func HandlerCharts(f *Forecaster, store *cache.Store) http.Handler {
	return srvu.ErrHandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, params, ok, err := project(w, r, f)
		if !ok {
			return err
		}
		charts := ChartsOf(p, params.Period, params.Charts)
		if store != nil {
			key, err := store.Save(ctx, chartsKind, charts)
			if err != nil {
				return fmt.Errorf("caching charts: %w", err)
			}
			w.Header().Set("X-Cache-Key", key)
		}
		return writeJSON(w, charts)
	})
}

type ChartsSetupEvent struct {
	Currency string  `json:"currency"`
	Period   string  `json:"period"`
	Start    string  `json:"start"`
	End      string  `json:"end"`
	Charts   []Chart `json:"charts"`
}

type ChartsSeriesEvent struct {
	Chart string `json:"chart"`
	Series
}

type ChartsEventHandler interface {
	Setup(ChartsSetupEvent) error
	Series(ChartsSeriesEvent) error
	Close() error
}

type SSEChartsEventHandler struct {
	w *srvu.SSESender
}

func (s *SSEChartsEventHandler) Setup(e ChartsSetupEvent) error {
	return s.w.SendNamedJson("setup", e)
}
func (s *SSEChartsEventHandler) Series(e ChartsSeriesEvent) error {
	return s.w.SendNamedJson("series", e)
}
func (s *SSEChartsEventHandler) Close() error {
	return s.w.SendEventWithoutData("close")
}

// StreamCharts announces every chart with its series but without points,
// then sends the points series by series.
func StreamCharts(charts Charts, h ChartsEventHandler) error {
	setup := ChartsSetupEvent{Currency: charts.Currency, Period: charts.Period, Start: charts.Start, End: charts.End, Charts: make([]Chart, len(charts.Charts))}
	for i, c := range charts.Charts {
		setup.Charts[i] = Chart{Name: c.Name, Series: make([]Series, len(c.Series))}
		for j, s := range c.Series {
			s.Points = nil
			setup.Charts[i].Series[j] = s
		}
	}
	if err := h.Setup(setup); err != nil {
		return fmt.Errorf("sending setup: %w", err)
	}
	for _, c := range charts.Charts {
		for _, s := range c.Series {
			if err := h.Series(ChartsSeriesEvent{Chart: c.Name, Series: s}); err != nil {
				return fmt.Errorf("sending series %s of %s: %w", s.ID, c.Name, err)
			}
		}
	}
	return h.Close()
}

func HandlerChartsStream(f *Forecaster) http.Handler {
	return srvu.ErrHandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, params, ok, err := project(w, r, f)
		if !ok {
			return err
		}
		if err := StreamCharts(ChartsOf(p, params.Period, params.Charts), &SSEChartsEventHandler{w: srvu.SSEResponse(w)}); err != nil {
			return fmt.Errorf("streaming charts: %w", err)
		}
		return nil
	})
}

func HandlerReport(f *Forecaster) http.Handler {
	return srvu.ErrHandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, params, ok, err := project(w, r, f)
		if !ok {
			return err
		}
		html, err := MarkdownHTML(ChartsMarkdown(ChartsOf(p, params.Period, params.Charts)))
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, err = w.Write(html)
		return err
	})
}

func HandlerLedger(f *Forecaster) http.Handler {
	return srvu.ErrHandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, _, ok, err := project(w, r, f)
		if !ok {
			return err
		}
		acc, err := p.Account(r.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil
		}
		j, err := JournalOf(p, acc.ID)
		if err != nil {
			return err
		}
		return writeJSON(w, j.Ledgers[0])
	})
}

// HandlerJournal serves the ledgers of the comma separated accounts, or of
// every account, with the transfers between them.
func HandlerJournal(f *Forecaster) http.Handler {
	return srvu.ErrHandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		p, _, ok, err := project(w, r, f)
		if !ok {
			return err
		}
		ids, err := ui.ParseList(r.FormValue("accounts"))
		if err != nil {
			http.Error(w, fmt.Sprintf("parsing accounts: %s", err), http.StatusBadRequest)
			return nil
		}
		for _, id := range ids {
			if _, err := p.Account(id); err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return nil
			}
		}
		j, err := JournalOf(p, ids...)
		if err != nil {
			return err
		}
		return writeJSON(w, j)
	})
}

func HandlerCache(store *cache.Store) http.Handler {
	return srvu.ErrHandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if store == nil {
			http.Error(w, "cache disabled", http.StatusNotFound)
			return nil
		}
		kind, value, err := store.Raw(ctx, r.PathValue("key"))
		if errors.Is(err, cache.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil
		} else if err != nil {
			return fmt.Errorf("loading cache entry: %w", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache-Kind", kind)
		_, err = w.Write(value)
		return err
	})
}

// HandlerCachedReport renders cached charts as the html report they were
// projected for.
func HandlerCachedReport(store *cache.Store) http.Handler {
	return srvu.ErrHandlerFunc(func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if store == nil {
			http.Error(w, "cache disabled", http.StatusNotFound)
			return nil
		}
		var charts Charts
		kind, err := store.Load(ctx, r.PathValue("key"), &charts)
		if errors.Is(err, cache.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil
		} else if err != nil {
			return fmt.Errorf("loading cached charts: %w", err)
		}
		if kind != chartsKind {
			http.Error(w, fmt.Sprintf("cache entry is %s, not %s", kind, chartsKind), http.StatusNotFound)
			return nil
		}
		html, err := MarkdownHTML(ChartsMarkdown(charts))
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, err = w.Write(html)
		return err
	})
}
