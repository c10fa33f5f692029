// Package engine coordinates evaluations across call sites. Its one job
// beyond plumbing is consistency: a ticker evaluated from the portfolio view
// and from a universe scan must be scored against the same cached price
// table, and any divergence between the two is a defect worth an alert, not
// a curiosity.
package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alphatic/alphatic/internal/config"
	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/metrics"
	"github.com/alphatic/alphatic/internal/narrator"
	"github.com/alphatic/alphatic/internal/notifier"
	"github.com/alphatic/alphatic/internal/router"
	"github.com/alphatic/alphatic/internal/pricestore"
	"github.com/alphatic/alphatic/internal/regime"
	"github.com/alphatic/alphatic/internal/scorer"
	"github.com/alphatic/alphatic/internal/storage/history"
)

// Call sites.
const (
	CallSitePortfolio = "portfolio"
	CallSiteScan      = "scan"
)

// EvalContext carries call-site provenance for one evaluation. For portfolio
// callers it also carries the already-resolved price table; the engine
// prefers that table over issuing a new fetch whenever it covers the ticker,
// so both call sites read the same data by construction.
type EvalContext struct {
	CallSite string
	CycleID  string
	Table    *core.PriceTable
}

// Engine evaluates tickers through both scorers, classifies agreement and
// regime, and records every result for later cross-checking.
type Engine struct {
	store     *pricestore.Store
	technical *scorer.Technical
	adaptive  *scorer.Adaptive
	regimes   *regime.Classifier

	lookbackDays int
	parallelism  int

	history  history.Store
	narrator *narrator.Narrator
	alerts   *router.Router
	metrics  *metrics.Registry
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithHistory attaches an evaluation store.
func WithHistory(s history.Store) Option {
	return func(e *Engine) { e.history = s }
}

// WithNarrator attaches the optional conflict narrator.
func WithNarrator(n *narrator.Narrator) Option {
	return func(e *Engine) { e.narrator = n }
}

// WithAlerts attaches an alert router.
func WithAlerts(r *router.Router) Option {
	return func(e *Engine) { e.alerts = r }
}

// WithMetrics attaches a metrics registry.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over the given price store and configuration.
func New(store *pricestore.Store, cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		technical:    scorer.NewTechnical(cfg.Signals),
		adaptive:     scorer.NewAdaptive(cfg.Signals),
		regimes:      regime.New(cfg.Regime),
		lookbackDays: cfg.Scan.LookbackDays,
		parallelism:  cfg.Scan.Parallelism,
		logger:       zap.NewNop(),
		now:          time.Now,
	}
	if e.parallelism <= 0 {
		e.parallelism = 1
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores one ticker. A portfolio-resolved table in the context is
// preferred whenever it covers the ticker; otherwise the engine resolves a
// fixed-lookback window through the price store.
func (e *Engine) Evaluate(ctx context.Context, ticker string, ec EvalContext) (core.Evaluation, error) {
	if ec.CallSite == "" {
		ec.CallSite = CallSitePortfolio
	}
	if ec.CycleID == "" {
		ec.CycleID = uuid.NewString()
	}

	series, window, err := e.resolveSeries(ctx, ticker, ec)
	if err != nil {
		return core.Evaluation{}, err
	}

	eval, err := e.evaluateSeries(ctx, series, window, ec)
	if err != nil {
		return core.Evaluation{}, err
	}

	e.record(ctx, eval)
	return eval, nil
}

// Scan evaluates a ticker universe in one cycle: a single batched resolve,
// then per-ticker scoring fanned out across goroutines. Scores are pure over
// the immutable table, so the fan-out needs no locking. Tickers that cannot
// be scored are logged and skipped rather than failing the whole scan.
func (e *Engine) Scan(ctx context.Context, tickers []string) ([]core.Evaluation, error) {
	started := e.now()
	ec := EvalContext{CallSite: CallSiteScan, CycleID: uuid.NewString()}

	window := e.defaultWindow()
	table, err := e.store.Resolve(ctx, tickers, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	evals := make([]core.Evaluation, 0, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			series, ok := table.Get(ticker)
			if !ok || series.Len() == 0 {
				e.logger.Warn("no data for ticker, skipping",
					zap.String("ticker", ticker), zap.String("cycle", ec.CycleID))
				return nil
			}

			eval, err := e.evaluateSeries(gctx, series, table.Window, ec)
			if err != nil {
				if errors.Is(err, core.ErrInsufficientData) {
					e.logger.Warn("skipping ticker",
						zap.String("ticker", ticker), zap.Error(err))
					return nil
				}
				return err
			}

			e.record(gctx, eval)

			mu.Lock()
			evals = append(evals, eval)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(evals, func(i, j int) bool { return evals[i].Ticker < evals[j].Ticker })

	if e.metrics != nil {
		e.metrics.RecordScan(e.now().Sub(started).Seconds())
	}
	return evals, nil
}

// Mismatch is one cross-call-site divergence found by CrossCheck.
type Mismatch struct {
	Ticker         string
	CycleID        string
	PortfolioTotal float64
	ScanTotal      float64
	Detail         string
}

// CrossCheck compares portfolio and scan evaluations recorded for one cycle
// and reports every ticker whose totals diverged. Totals must be
// bit-identical: both call sites read the same table, so any difference
// means the consistency contract was broken somewhere upstream.
func (e *Engine) CrossCheck(ctx context.Context, cycleID string) ([]Mismatch, error) {
	if e.history == nil {
		return nil, nil
	}

	portfolio, err := e.history.List(ctx, history.ListFilter{
		CycleID: cycleID, CallSite: CallSitePortfolio,
	})
	if err != nil {
		return nil, err
	}
	scans, err := e.history.List(ctx, history.ListFilter{
		CycleID: cycleID, CallSite: CallSiteScan,
	})
	if err != nil {
		return nil, err
	}

	byTicker := make(map[string]core.Evaluation, len(scans))
	for _, s := range scans {
		byTicker[s.Ticker] = s
	}

	var mismatches []Mismatch
	for _, p := range portfolio {
		s, ok := byTicker[p.Ticker]
		if !ok {
			continue
		}

		detail := ""
		switch {
		case p.Technical.Total != s.Technical.Total:
			detail = "technical totals diverged"
		case p.Adaptive.Available != s.Adaptive.Available:
			detail = "adaptive availability diverged"
		case p.Adaptive.Available && p.Adaptive.Total != s.Adaptive.Total:
			detail = "adaptive totals diverged"
		case p.Verdict != s.Verdict:
			detail = "verdicts diverged"
		}
		if detail == "" {
			continue
		}

		m := Mismatch{
			Ticker:         p.Ticker,
			CycleID:        cycleID,
			PortfolioTotal: p.Technical.Total,
			ScanTotal:      s.Technical.Total,
			Detail:         detail,
		}
		mismatches = append(mismatches, m)

		e.logger.Error("consistency mismatch",
			zap.String("ticker", m.Ticker),
			zap.String("cycle", cycleID),
			zap.String("detail", detail))
		if e.metrics != nil {
			e.metrics.RecordConsistencyMismatch()
		}
		if e.alerts != nil {
			e.alerts.Route(notifier.Alert{
				Kind:    notifier.KindConsistencyMismatch,
				Ticker:  m.Ticker,
				Message: detail,
				Details: map[string]any{
					"cycle":           cycleID,
					"portfolio_total": m.PortfolioTotal,
					"scan_total":      m.ScanTotal,
				},
				At: e.now(),
			})
		}
	}

	return mismatches, nil
}

func (e *Engine) resolveSeries(ctx context.Context, ticker string, ec EvalContext) (core.PriceSeries, core.Window, error) {
	if ec.Table != nil {
		if series, ok := ec.Table.Get(ticker); ok && series.Len() > 0 {
			return series, ec.Table.Window, nil
		}
	}

	window := e.defaultWindow()
	table, err := e.store.Resolve(ctx, []string{ticker}, window.Start, window.End)
	if err != nil {
		return core.PriceSeries{}, core.Window{}, err
	}

	series, ok := table.Get(ticker)
	if !ok || series.Len() == 0 {
		return core.PriceSeries{}, core.Window{}, core.WrapErrorf(core.ErrNoUpstreamData,
			"no data for %s in %s to %s", ticker,
			window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	}
	return series, table.Window, nil
}

func (e *Engine) evaluateSeries(ctx context.Context, series core.PriceSeries, window core.Window, ec EvalContext) (core.Evaluation, error) {
	tech, err := e.technical.Score(series)
	if err != nil {
		return core.Evaluation{}, err
	}

	var adaptive core.AdaptiveScore
	if e.adaptive.Capable(series.Len()) {
		adaptive, err = e.adaptive.Score(series)
		if err != nil {
			// Capable was checked, so a failure here is a real fault.
			return core.Evaluation{}, err
		}
	} else {
		adaptive = e.adaptive.Unavailable("estimator not capable for this series")
	}

	verdict := scorer.Classify(tech, adaptive)

	reg, err := e.regimes.Classify(series)
	if err != nil {
		// Degraded, not fatal: the result is a well-defined Unknown.
		e.logger.Warn("regime undetermined",
			zap.String("ticker", series.Ticker), zap.Error(err))
	}

	eval := core.Evaluation{
		Ticker:    series.Ticker,
		CycleID:   ec.CycleID,
		CallSite:  ec.CallSite,
		Window:    window,
		Technical: tech,
		Adaptive:  adaptive,
		Verdict:   verdict,
		Regime:    reg,
		CreatedAt: e.now(),
	}

	if verdict == core.VerdictConflict {
		e.onConflict(ctx, &eval)
	}

	if e.metrics != nil {
		e.metrics.RecordEvaluation(ec.CallSite, string(tech.Action))
		e.metrics.RecordVerdict(string(verdict))
	}
	return eval, nil
}

// onConflict handles the disagreement side channels: a narrative when the
// narrator is attached, an operator alert when a router is. Both are
// best-effort.
func (e *Engine) onConflict(ctx context.Context, eval *core.Evaluation) {
	if e.narrator.Enabled() {
		narrative, err := e.narrator.Narrate(ctx, *eval)
		if err != nil {
			e.logger.Warn("narrator failed",
				zap.String("ticker", eval.Ticker), zap.Error(err))
		} else {
			eval.Narrative = narrative
		}
	}

	if e.alerts != nil {
		e.alerts.Route(notifier.Alert{
			Kind:    notifier.KindSignalConflict,
			Ticker:  eval.Ticker,
			Message: "technical and adaptive scorers disagree",
			Details: map[string]any{
				"technical_action": string(eval.Technical.Action),
				"adaptive_action":  string(eval.Adaptive.Action),
				"cycle":            eval.CycleID,
			},
			At: e.now(),
		})
	}
}

func (e *Engine) record(ctx context.Context, eval core.Evaluation) {
	if e.history == nil {
		return
	}
	if err := e.history.Save(ctx, eval); err != nil {
		e.logger.Warn("failed to record evaluation",
			zap.String("ticker", eval.Ticker), zap.Error(err))
	}
}

func (e *Engine) defaultWindow() core.Window {
	now := e.now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return core.Window{
		Start: end.AddDate(0, 0, -e.lookbackDays),
		End:   end,
	}
}
