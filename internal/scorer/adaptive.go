package scorer

import (
	"math"

	"github.com/alphatic/alphatic/internal/config"
	"github.com/alphatic/alphatic/internal/core"
)

// Adaptive is the state-space estimator scorer. It filters the raw series
// through a local-level Kalman filter and scores the de-noised trend, the
// 20-step filtered slope, and a one-step-ahead prediction. Below the
// observation floor, or with the estimator switched off, it reports the
// explicit Unavailable state instead of a score: downstream code must read
// that as "no second opinion", never as Hold.
type Adaptive struct {
	enabled bool
	minObs  int
	buy     float64
	sell    float64
	filter  LocalLevel
}

// NewAdaptive creates an adaptive scorer from signal settings.
func NewAdaptive(cfg config.SignalsConfig) *Adaptive {
	return &Adaptive{
		enabled: cfg.Adaptive.Enabled,
		minObs:  cfg.AdaptiveMinObs,
		buy:     cfg.BuyThreshold,
		sell:    cfg.SellThreshold,
		filter: LocalLevel{
			ProcessVar:     cfg.Adaptive.ProcessVar,
			ObservationVar: cfg.Adaptive.ObservationVar,
		},
	}
}

// Capable reports whether the estimator can score a series of the given
// length. Callers check this before Score and degrade to technical-only when
// it returns false.
func (a *Adaptive) Capable(observations int) bool {
	return a.enabled && observations >= a.minObs
}

// Unavailable returns the explicit no-second-opinion state with the reason
// recorded in the notes.
func (a *Adaptive) Unavailable(reason string) core.AdaptiveScore {
	return core.AdaptiveScore{Available: false, Notes: []string{reason}}
}

// Score computes the composite adaptive score. Calling it on a series the
// estimator is not capable of scoring is a caller bug and fails with
// ErrEstimatorUnavailable.
func (a *Adaptive) Score(series core.PriceSeries) (core.AdaptiveScore, error) {
	if !a.enabled {
		return a.Unavailable("estimator disabled"), core.WrapErrorf(
			core.ErrEstimatorUnavailable, "adaptive scorer disabled by configuration")
	}
	if series.Len() < a.minObs {
		return a.Unavailable("below observation floor"), core.WrapErrorf(
			core.ErrEstimatorUnavailable,
			"adaptive scorer for %s: %d observations, need %d",
			series.Ticker, series.Len(), a.minObs)
	}

	closes := series.Closes()
	price := closes[len(closes)-1]

	means, covs := a.filter.Run(closes)
	filtered := means[len(means)-1]

	// One-step-ahead: one more predict-correct pass fed the last
	// observation again.
	prediction, predCov := a.filter.Update(filtered, covs[len(covs)-1], price)
	predStd := math.Sqrt(predCov)

	var notes []string

	trendPct := (price - filtered) / filtered * 100
	var trend float64
	switch {
	case trendPct > 2:
		trend = 3
		notes = append(notes, "trend: price well above filtered estimate (+3)")
	case trendPct > 0.5:
		trend = 2
		notes = append(notes, "trend: price above filtered estimate (+2)")
	case trendPct < -2:
		trend = -3
		notes = append(notes, "trend: price well below filtered estimate (-3)")
	case trendPct < -0.5:
		trend = -2
		notes = append(notes, "trend: price below filtered estimate (-2)")
	default:
		notes = append(notes, "trend: price aligned with filtered estimate (0)")
	}

	var momentumPct float64
	if len(means) >= 20 {
		momentumPct = (filtered - means[len(means)-20]) / means[len(means)-20] * 100
	}
	var momentum float64
	switch {
	case momentumPct > 5:
		momentum = 2
		notes = append(notes, "momentum: strong upward filtered slope (+2)")
	case momentumPct > 2:
		momentum = 1
		notes = append(notes, "momentum: moderate upward filtered slope (+1)")
	case momentumPct < -5:
		momentum = -2
		notes = append(notes, "momentum: strong downward filtered slope (-2)")
	case momentumPct < -2:
		momentum = -1
		notes = append(notes, "momentum: moderate downward filtered slope (-1)")
	default:
		notes = append(notes, "momentum: flat filtered slope (0)")
	}

	predPct := (prediction - price) / price * 100
	var pred float64
	switch {
	case predPct > 1:
		pred = 1
		notes = append(notes, "prediction: next step above current price (+1)")
	case predPct < -1:
		pred = -1
		notes = append(notes, "prediction: next step below current price (-1)")
	default:
		notes = append(notes, "prediction: next step near current price (0)")
	}

	total := trend + momentum + pred

	// Confidence narrows with the prediction interval: a wide interval
	// relative to price means the filter itself is unsure.
	width := 2 * predStd
	conf := math.Max(0.2, math.Min(1, 1-width/price*10))

	return core.AdaptiveScore{
		Available:     true,
		FilteredPrice: filtered,
		Prediction:    prediction,
		PredictionStd: predStd,
		Trend:         trend,
		Momentum:      momentum,
		PredComponent: pred,
		Total:         total,
		Action:        actionFor(total, a.buy, a.sell),
		Confidence:    conf,
		Notes:         notes,
	}, nil
}
