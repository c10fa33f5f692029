package scorer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphatic/alphatic/internal/config"
	"github.com/alphatic/alphatic/internal/core"
)

func TestAdaptive_Capable(t *testing.T) {
	cfg := testSignals()
	s := NewAdaptive(cfg)

	assert.False(t, s.Capable(99))
	assert.True(t, s.Capable(100))
	assert.True(t, s.Capable(500))

	cfg.Adaptive.Enabled = false
	disabled := NewAdaptive(cfg)
	assert.False(t, disabled.Capable(500))
}

func TestAdaptive_ScoreDisabled(t *testing.T) {
	cfg := testSignals()
	cfg.Adaptive.Enabled = false
	s := NewAdaptive(cfg)

	score, err := s.Score(linearSeries("SPY", 100, 0.5, 150))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEstimatorUnavailable))
	assert.False(t, score.Available)
}

func TestAdaptive_ScoreBelowFloor(t *testing.T) {
	s := NewAdaptive(testSignals())

	score, err := s.Score(linearSeries("SPY", 100, 0.5, 60))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrEstimatorUnavailable))
	assert.False(t, score.Available)
	assert.Contains(t, err.Error(), "60")
}

func TestAdaptive_RisingSeries(t *testing.T) {
	s := NewAdaptive(testSignals())

	score, err := s.Score(linearSeries("SPY", 100, 0.5, 150))
	require.NoError(t, err)

	assert.True(t, score.Available)
	assert.Equal(t, core.ActionBuy, score.Action)
	assert.Positive(t, score.Total)
	// The filtered estimate trails a steady climb.
	assert.Less(t, score.FilteredPrice, 100+0.5*149)
	assert.Positive(t, score.Trend)
	assert.Positive(t, score.Momentum)
	assert.Positive(t, score.PredictionStd)
}

func TestAdaptive_FallingSeries(t *testing.T) {
	s := NewAdaptive(testSignals())

	score, err := s.Score(linearSeries("XYZ", 200, -0.5, 150))
	require.NoError(t, err)

	assert.True(t, score.Available)
	assert.Equal(t, core.ActionSell, score.Action)
	assert.Negative(t, score.Total)
	assert.Negative(t, score.Trend)
	assert.Negative(t, score.Momentum)
}

func TestAdaptive_FlatSeries(t *testing.T) {
	s := NewAdaptive(testSignals())

	score, err := s.Score(linearSeries("FLAT", 100, 0, 150))
	require.NoError(t, err)

	assert.True(t, score.Available)
	assert.Equal(t, core.ActionHold, score.Action)
	assert.Zero(t, score.Trend)
	assert.Zero(t, score.Momentum)
	assert.Zero(t, score.PredComponent)
	assert.InDelta(t, 100, score.FilteredPrice, 1e-9)
}

func TestAdaptive_ConfidenceBounds(t *testing.T) {
	s := NewAdaptive(testSignals())

	for _, series := range []core.PriceSeries{
		linearSeries("UP", 100, 0.5, 150),
		linearSeries("DOWN", 200, -0.5, 150),
		linearSeries("FLAT", 100, 0, 150),
	} {
		score, err := s.Score(series)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.Confidence, 0.2, series.Ticker)
		assert.LessOrEqual(t, score.Confidence, 1.0, series.Ticker)
	}
}

func TestAdaptive_Deterministic(t *testing.T) {
	s := NewAdaptive(testSignals())
	series := linearSeries("SPY", 100, 0.3, 150)

	a, err := s.Score(series)
	require.NoError(t, err)
	b, err := s.Score(series)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestAdaptive_Unavailable(t *testing.T) {
	s := NewAdaptive(config.Defaults().Signals)

	score := s.Unavailable("below observation floor")
	assert.False(t, score.Available)
	assert.Equal(t, []string{"below observation floor"}, score.Notes)
}
