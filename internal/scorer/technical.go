// Package scorer holds the two independent signal scorers and the agreement
// classifier that compares their verdicts. Both scorers are pure functions of
// a price series: the same series always yields bit-identical scores.
package scorer

import (
	"fmt"
	"math"

	"github.com/alphatic/alphatic/internal/config"
	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/indicator"
)

// Technical is the rule-based indicator scorer. Components: trend from
// moving-average alignment (up to ±3), momentum from MACD crossover state
// (up to ±2), extremes from RSI bands plus Bollinger breach (up to ±1).
type Technical struct {
	minObs int
	buy    float64
	sell   float64
}

// NewTechnical creates a technical scorer from signal settings.
func NewTechnical(cfg config.SignalsConfig) *Technical {
	return &Technical{
		minObs: cfg.TechnicalMinObs,
		buy:    cfg.BuyThreshold,
		sell:   cfg.SellThreshold,
	}
}

// MinObservations returns the scorer's observation floor.
func (t *Technical) MinObservations() int { return t.minObs }

// Score computes the composite technical score for one series. Series below
// the observation floor fail with the actual and required counts attached.
func (t *Technical) Score(series core.PriceSeries) (core.TechnicalScore, error) {
	if series.Len() < t.minObs {
		return core.TechnicalScore{}, core.WrapErrorf(core.ErrInsufficientData,
			"technical scorer for %s: %d observations, need %d",
			series.Ticker, series.Len(), t.minObs)
	}

	closes := series.Closes()
	price := closes[len(closes)-1]

	var notes []string

	trend, trendNote := trendComponent(price, closes)
	notes = append(notes, trendNote)

	momentum, momentumNote := momentumComponent(closes)
	notes = append(notes, momentumNote)

	extreme, extremeNotes := extremeComponent(price, closes)
	notes = append(notes, extremeNotes...)

	total := trend + momentum + extreme

	return core.TechnicalScore{
		Trend:      trend,
		Momentum:   momentum,
		Extreme:    extreme,
		Total:      total,
		Action:     actionFor(total, t.buy, t.sell),
		Confidence: confidence(total, []float64{trend, momentum, extreme}),
		Notes:      notes,
	}, nil
}

// trendComponent compares the last price against the 50- and 200-day simple
// moving averages. With too little history for both averages the component is
// neutral rather than an error.
func trendComponent(price float64, closes []float64) (float64, string) {
	sma50, ok50 := indicator.Last(indicator.SMA(closes, 50))
	sma200, ok200 := indicator.Last(indicator.SMA(closes, 200))
	if !ok50 || !ok200 {
		return 0, "trend: not enough history for both moving averages (0)"
	}

	above50 := price > sma50
	above200 := price > sma200
	goldenAlign := sma50 > sma200

	switch {
	case above50 && above200 && goldenAlign:
		return 3, "trend: price > 50-day > 200-day SMA, strong uptrend (+3)"
	case above200:
		return 2, "trend: price above 200-day SMA (+2)"
	case !above50 && !above200 && !goldenAlign:
		return -3, "trend: price < 50-day < 200-day SMA, strong downtrend (-3)"
	case !above200:
		return -2, "trend: price below 200-day SMA (-2)"
	default:
		return 0, "trend: mixed moving-average signals (0)"
	}
}

// momentumComponent reads the MACD crossover state: a fresh histogram sign
// flip scores ±2, a standing bullish or bearish posture ±1.
func momentumComponent(closes []float64) (float64, string) {
	m := indicator.MACD(closes, 12, 26, 9)
	macd, _ := indicator.Last(m.MACD)
	signal, _ := indicator.Last(m.Signal)
	hist, _ := indicator.Last(m.Histogram)

	prevHist := 0.0
	if len(m.Histogram) > 1 {
		prevHist = m.Histogram[len(m.Histogram)-2]
	}

	switch {
	case macd > signal && prevHist < 0 && hist > 0:
		return 2, "momentum: MACD bullish crossover (+2)"
	case macd < signal && prevHist > 0 && hist < 0:
		return -2, "momentum: MACD bearish crossover (-2)"
	case macd > signal:
		return 1, "momentum: MACD bullish (+1)"
	default:
		return -1, "momentum: MACD bearish (-1)"
	}
}

// extremeComponent combines an RSI band reading (±0.5 at the 30/70 extremes,
// ±0.25 at the 40/60 leans) with a Bollinger band breach (±0.5).
func extremeComponent(price float64, closes []float64) (float64, []string) {
	var score float64
	var notes []string

	if rsi, ok := indicator.Last(indicator.RSI(closes, 14)); ok {
		switch {
		case rsi < 30:
			score += 0.5
			notes = append(notes, fmt.Sprintf("extremes: RSI %.1f oversold (+0.5)", rsi))
		case rsi > 70:
			score -= 0.5
			notes = append(notes, fmt.Sprintf("extremes: RSI %.1f overbought (-0.5)", rsi))
		case rsi < 40:
			score += 0.25
			notes = append(notes, fmt.Sprintf("extremes: RSI %.1f bullish lean (+0.25)", rsi))
		case rsi > 60:
			score -= 0.25
			notes = append(notes, fmt.Sprintf("extremes: RSI %.1f bearish lean (-0.25)", rsi))
		default:
			notes = append(notes, fmt.Sprintf("extremes: RSI %.1f neutral (0)", rsi))
		}
	}

	bands := indicator.Bollinger(closes, 20, 2)
	lower, okLower := indicator.Last(bands.Lower)
	upper, okUpper := indicator.Last(bands.Upper)
	if okLower && okUpper {
		switch {
		case price < lower:
			score += 0.5
			notes = append(notes, "extremes: price below lower Bollinger band (+0.5)")
		case price > upper:
			score -= 0.5
			notes = append(notes, "extremes: price above upper Bollinger band (-0.5)")
		}
	}

	return score, notes
}

func actionFor(total, buy, sell float64) core.Action {
	switch {
	case total >= buy:
		return core.ActionBuy
	case total <= sell:
		return core.ActionSell
	default:
		return core.ActionHold
	}
}

// confidence scales with score magnitude, plus a bonus when every non-zero
// component points the same direction.
func confidence(total float64, components []float64) float64 {
	base := math.Min(math.Abs(total)*0.15, 1)

	var positive, negative bool
	for _, c := range components {
		if c > 0 {
			positive = true
		}
		if c < 0 {
			negative = true
		}
	}
	if !(positive && negative) {
		base += 0.10
	}
	return math.Min(base, 1)
}
