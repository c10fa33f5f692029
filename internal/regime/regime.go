// Package regime labels the prevailing market environment from trailing
// return and volatility. The classifier is stateless and has no hysteresis:
// every call recomputes the label from the series it is handed, so two call
// sites fed the same series always see the same regime.
package regime

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/alphatic/alphatic/internal/config"
	"github.com/alphatic/alphatic/internal/core"
)

const tradingDays = 252

// Classifier assigns one of five discrete regimes from the rolling
// annualized return, the rolling annualized volatility, and the historical
// median of that rolling volatility.
type Classifier struct {
	lookback        int
	returnThreshold float64
}

// New creates a classifier from regime settings.
func New(cfg config.RegimeConfig) *Classifier {
	return &Classifier{
		lookback:        cfg.Lookback,
		returnThreshold: cfg.ReturnThreshold,
	}
}

// Classify labels the regime for a price series. The result always carries
// the exact inputs used, so consumers can see why a label was assigned.
func (c *Classifier) Classify(series core.PriceSeries) (core.RegimeResult, error) {
	var end time.Time
	if last, ok := series.Last(); ok {
		end = last.Date
	}
	return c.ClassifyReturns(series.Returns(), end)
}

// ClassifyReturns labels the regime for a raw return series. An empty return
// series yields the well-defined Unknown result together with
// ErrEmptyReturns; a non-empty series shorter than the lookback yields
// Unknown without an error, because partial history is a degraded-but-valid
// state, not a fault.
func (c *Classifier) ClassifyReturns(returns []float64, windowEnd time.Time) (core.RegimeResult, error) {
	unknown := core.RegimeResult{State: core.RegimeUnknown, WindowEnd: windowEnd}

	if len(returns) == 0 {
		return unknown, core.WrapErrorf(core.ErrEmptyReturns,
			"regime classifier: empty return series ending %s",
			windowEnd.Format("2006-01-02"))
	}
	if len(returns) < c.lookback {
		return unknown, nil
	}

	window := returns[len(returns)-c.lookback:]
	r := stat.Mean(window, nil) * tradingDays
	v := stat.StdDev(window, nil) * math.Sqrt(tradingDays)

	median := c.medianRollingVol(returns)

	return core.RegimeResult{
		State:            stateFor(r, v, median, c.returnThreshold),
		AnnualizedReturn: r,
		AnnualizedVol:    v,
		MedianVol:        median,
		WindowEnd:        windowEnd,
	}, nil
}

// medianRollingVol computes the historical median of the rolling annualized
// volatility series over the full history.
func (c *Classifier) medianRollingVol(returns []float64) float64 {
	n := len(returns) - c.lookback + 1
	vols := make([]float64, 0, n)
	for i := c.lookback; i <= len(returns); i++ {
		window := returns[i-c.lookback : i]
		vols = append(vols, stat.StdDev(window, nil)*math.Sqrt(tradingDays))
	}
	sort.Float64s(vols)
	return stat.Quantile(0.5, stat.LinInterp, vols, nil)
}

// stateFor applies the transition rule. The Sideways band is inclusive on
// both edges: a return of exactly the threshold is Sideways, not Bull or
// Bear.
func stateFor(r, v, median, threshold float64) core.RegimeState {
	switch {
	case r > threshold && v <= median:
		return core.RegimeBullLowVol
	case r > threshold:
		return core.RegimeBullHighVol
	case r < -threshold && v <= median:
		return core.RegimeBearLowVol
	case r < -threshold:
		return core.RegimeBearHighVol
	default:
		return core.RegimeSideways
	}
}
