package core

import (
	"sort"
	"time"
)

// Action represents a trading recommendation
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// PricePoint is one (trading day, adjusted close) observation.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries holds the adjusted-close history for exactly one ticker,
// ordered by strictly increasing date. A zero-length series is a legal,
// representable state, not an error.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// Closes returns the close prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the most recent observation and true, or false when empty.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Returns derives the simple period-over-period return series. A series with
// fewer than two observations yields an empty (never nil-dereferencing)
// result.
func (s PriceSeries) Returns() []float64 {
	if len(s.Points) < 2 {
		return []float64{}
	}
	rets := make([]float64, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		prev := s.Points[i-1].Close
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, s.Points[i].Close/prev-1)
	}
	return rets
}

// Slice returns the sub-series covering [start, end] inclusive. The receiver
// is never mutated.
func (s PriceSeries) Slice(start, end time.Time) PriceSeries {
	out := PriceSeries{Ticker: s.Ticker}
	for _, p := range s.Points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out.Points = append(out.Points, p)
	}
	return out
}

// Validate checks the ordering invariant: dates strictly increasing, no
// duplicates.
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Date.After(s.Points[i-1].Date) {
			return WrapErrorf(ErrMalformedResponse,
				"series %s: dates not strictly increasing at index %d", s.Ticker, i)
		}
	}
	return nil
}

// Window is a resolved [Start, End] date range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Covers reports whether w fully contains other.
func (w Window) Covers(other Window) bool {
	return !w.Start.After(other.Start) && !w.End.Before(other.End)
}

// PriceTable maps tickers to their series over one resolved window. Tables
// are read-only to all consumers once produced.
type PriceTable struct {
	Window Window                 `json:"window"`
	Series map[string]PriceSeries `json:"series"`
}

// Tickers returns the table's ticker set, sorted.
func (t PriceTable) Tickers() []string {
	out := make([]string, 0, len(t.Series))
	for sym := range t.Series {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Get returns the series for a ticker, reporting presence.
func (t PriceTable) Get(ticker string) (PriceSeries, bool) {
	s, ok := t.Series[ticker]
	return s, ok
}

// TechnicalScore is the rule-based composite produced by the technical
// scorer. Components are bounded by construction: Trend [-3,3], Momentum
// [-2,2], Extreme [-1,1], so Total stays within [-6,6].
type TechnicalScore struct {
	Trend      float64  `json:"trend"`
	Momentum   float64  `json:"momentum"`
	Extreme    float64  `json:"extreme"`
	Total      float64  `json:"total"`
	Action     Action   `json:"action"`
	Confidence float64  `json:"confidence"`
	Notes      []string `json:"notes,omitempty"`
}

// AdaptiveScore is the state-space estimator's composite. Unavailable is the
// explicit "no second opinion" state: it is not Hold and downstream code must
// treat it as the absence of a classification.
type AdaptiveScore struct {
	Available     bool     `json:"available"`
	FilteredPrice float64  `json:"filtered_price"`
	Prediction    float64  `json:"prediction"`
	PredictionStd float64  `json:"prediction_std"`
	Trend         float64  `json:"trend"`
	Momentum      float64  `json:"momentum"`
	PredComponent float64  `json:"pred_component"`
	Total         float64  `json:"total"`
	Action        Action   `json:"action"`
	Confidence    float64  `json:"confidence"`
	Notes         []string `json:"notes,omitempty"`
}

// AgreementVerdict classifies whether the two scorers concur.
type AgreementVerdict string

const (
	VerdictAligned  AgreementVerdict = "aligned"
	VerdictConflict AgreementVerdict = "conflict"
	VerdictMixed    AgreementVerdict = "mixed"
)

// RegimeState is a discrete label for the joint trailing return/volatility
// environment.
type RegimeState string

const (
	RegimeBullLowVol  RegimeState = "bull_low_vol"
	RegimeBullHighVol RegimeState = "bull_high_vol"
	RegimeSideways    RegimeState = "sideways"
	RegimeBearLowVol  RegimeState = "bear_low_vol"
	RegimeBearHighVol RegimeState = "bear_high_vol"

	// RegimeUnknown marks the undetermined/degraded case (too little data to
	// form a trailing window). It is a result state, never a crash.
	RegimeUnknown RegimeState = "unknown"
)

// RegimeResult carries the label plus the exact inputs used, so callers can
// always see why a regime was assigned.
type RegimeResult struct {
	State            RegimeState `json:"state"`
	AnnualizedReturn float64     `json:"annualized_return"`
	AnnualizedVol    float64     `json:"annualized_vol"`
	MedianVol        float64     `json:"median_vol"`
	WindowEnd        time.Time   `json:"window_end"`
}

// Evaluation is the full engine output for one ticker: both scores, the
// agreement verdict, the regime label with raw diagnostics, and enough
// provenance (cycle, call site, window) to audit where the inputs came from.
type Evaluation struct {
	Ticker    string           `json:"ticker"`
	CycleID   string           `json:"cycle_id"`
	CallSite  string           `json:"call_site"`
	Window    Window           `json:"window"`
	Technical TechnicalScore   `json:"technical"`
	Adaptive  AdaptiveScore    `json:"adaptive"`
	Verdict   AgreementVerdict `json:"verdict"`
	Regime    RegimeResult     `json:"regime"`
	Narrative string           `json:"narrative,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
