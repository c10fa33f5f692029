package regime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphatic/alphatic/internal/config"
	"github.com/alphatic/alphatic/internal/core"
)

func testClassifier() *Classifier {
	return New(config.Defaults().Regime)
}

func endDate() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

// constantReturns builds n identical return observations.
func constantReturns(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// alternating builds n returns oscillating amplitude around a drift,
// producing high volatility with a controlled mean.
func alternating(drift, amplitude float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = drift + amplitude
		} else {
			out[i] = drift - amplitude
		}
	}
	return out
}

func TestStateFor_Boundaries(t *testing.T) {
	tests := []struct {
		name      string
		r, v, med float64
		want      core.RegimeState
	}{
		{"exactly +2% is sideways", 0.02, 0.10, 0.15, core.RegimeSideways},
		{"exactly -2% is sideways", -0.02, 0.10, 0.15, core.RegimeSideways},
		{"just above threshold, calm", 0.0201, 0.10, 0.15, core.RegimeBullLowVol},
		{"just above threshold, rough", 0.0201, 0.20, 0.15, core.RegimeBullHighVol},
		{"just below threshold, calm", -0.0201, 0.10, 0.15, core.RegimeBearLowVol},
		{"just below threshold, rough", -0.0201, 0.20, 0.15, core.RegimeBearHighVol},
		{"zero return", 0, 0.10, 0.15, core.RegimeSideways},
		{"vol exactly at median counts as low", 0.05, 0.15, 0.15, core.RegimeBullLowVol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stateFor(tt.r, tt.v, tt.med, 0.02); got != tt.want {
				t.Errorf("stateFor(%v, %v, %v) = %s, want %s", tt.r, tt.v, tt.med, got, tt.want)
			}
		})
	}
}

func TestClassifyReturns_EmptySeries(t *testing.T) {
	c := testClassifier()

	result, err := c.ClassifyReturns(nil, endDate())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEmptyReturns))
	// Degraded, not broken: the result is still a well-defined state.
	assert.Equal(t, core.RegimeUnknown, result.State)
	assert.Equal(t, endDate(), result.WindowEnd)
}

func TestClassifyReturns_ShortHistory(t *testing.T) {
	c := testClassifier()

	result, err := c.ClassifyReturns(constantReturns(0.001, 30), endDate())
	require.NoError(t, err)
	assert.Equal(t, core.RegimeUnknown, result.State)
}

func TestClassifyReturns_CalmRally(t *testing.T) {
	c := testClassifier()

	// High-vol chop followed by a calm steady climb: the trailing window is
	// bullish and its volatility sits below the historical median.
	returns := append(alternating(0, 0.02, 60), constantReturns(0.001, 60)...)

	result, err := c.ClassifyReturns(returns, endDate())
	require.NoError(t, err)

	assert.Equal(t, core.RegimeBullLowVol, result.State)
	assert.Greater(t, result.AnnualizedReturn, 0.02)
	assert.LessOrEqual(t, result.AnnualizedVol, result.MedianVol)
}

func TestClassifyReturns_VolatileRally(t *testing.T) {
	c := testClassifier()

	// Calm drift followed by a volatile climb.
	returns := append(constantReturns(0.0001, 60), alternating(0.001, 0.02, 60)...)

	result, err := c.ClassifyReturns(returns, endDate())
	require.NoError(t, err)

	assert.Equal(t, core.RegimeBullHighVol, result.State)
	assert.Greater(t, result.AnnualizedVol, result.MedianVol)
}

func TestClassifyReturns_Crash(t *testing.T) {
	c := testClassifier()

	returns := append(constantReturns(0.0001, 60), alternating(-0.002, 0.02, 60)...)

	result, err := c.ClassifyReturns(returns, endDate())
	require.NoError(t, err)

	assert.Equal(t, core.RegimeBearHighVol, result.State)
	assert.Less(t, result.AnnualizedReturn, -0.02)
}

func TestClassifyReturns_Sideways(t *testing.T) {
	c := testClassifier()

	// Near-zero drift keeps the annualized return inside the ±2% band.
	result, err := c.ClassifyReturns(alternating(0.00001, 0.005, 120), endDate())
	require.NoError(t, err)

	assert.Equal(t, core.RegimeSideways, result.State)
}

func TestClassify_SeriesDiagnostics(t *testing.T) {
	c := testClassifier()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]core.PricePoint, 121)
	price := 100.0
	for i := range points {
		points[i] = core.PricePoint{Date: base.AddDate(0, 0, i), Close: price}
		if i%2 == 0 {
			price *= 1.002
		} else {
			price *= 1.0001
		}
	}
	series := core.PriceSeries{Ticker: "SPY", Points: points}

	result, err := c.Classify(series)
	require.NoError(t, err)

	assert.Equal(t, points[len(points)-1].Date, result.WindowEnd)
	assert.Greater(t, result.AnnualizedReturn, 0.02)
	assert.NotZero(t, result.MedianVol)
}
