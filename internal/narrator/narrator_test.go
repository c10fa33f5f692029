package narrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/llm"
)

// mockLLM records the last request and returns a canned response.
type mockLLM struct {
	lastReq llm.Request
	content string
	err     error
	delay   time.Duration
}

func (m *mockLLM) Name() string { return "mock" }

func (m *mockLLM) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.lastReq = req
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Content: m.content}, nil
}

func conflictEval() core.Evaluation {
	return core.Evaluation{
		Ticker:  "AAPL",
		Verdict: core.VerdictConflict,
		Window: core.Window{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		Technical: core.TechnicalScore{
			Action: core.ActionBuy, Total: 3.5, Confidence: 0.6,
			Trend: 3, Momentum: 1, Extreme: -0.5,
			Notes: []string{"trend: price above 200-day SMA (+2)"},
		},
		Adaptive: core.AdaptiveScore{
			Available: true, Action: core.ActionSell, Total: -3,
			FilteredPrice: 182.5, Prediction: 181.9, PredictionStd: 0.31,
			Trend: -2, Momentum: -1, PredComponent: 0,
		},
		Regime: core.RegimeResult{
			State:            core.RegimeBullHighVol,
			AnnualizedReturn: 0.12,
			AnnualizedVol:    0.28,
			MedianVol:        0.18,
		},
	}
}

func TestNarrate_Conflict(t *testing.T) {
	mock := &mockLLM{content: "  The technical scorer reacts to the moving averages...  "}
	n := New(mock)

	narrative, err := n.Narrate(context.Background(), conflictEval())
	require.NoError(t, err)
	assert.Equal(t, "The technical scorer reacts to the moving averages...", narrative)

	prompt := mock.lastReq.Prompt
	assert.Contains(t, prompt, "AAPL")
	assert.Contains(t, prompt, "bull_high_vol")
	assert.True(t, strings.Contains(prompt, "Technical Scorer") &&
		strings.Contains(prompt, "Adaptive Estimator"))
}

func TestNarrate_NonConflictSkipped(t *testing.T) {
	mock := &mockLLM{content: "should never be asked"}
	n := New(mock)

	eval := conflictEval()
	eval.Verdict = core.VerdictAligned

	narrative, err := n.Narrate(context.Background(), eval)
	require.NoError(t, err)
	assert.Empty(t, narrative)
	assert.Empty(t, mock.lastReq.Prompt)
}

func TestNarrate_ProviderError(t *testing.T) {
	mock := &mockLLM{err: core.WrapErrorf(core.ErrLLMFailed, "boom")}
	n := New(mock)

	_, err := n.Narrate(context.Background(), conflictEval())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLLMFailed))
}

func TestNarrate_Timeout(t *testing.T) {
	mock := &mockLLM{delay: 200 * time.Millisecond, content: "late"}
	n := New(mock, WithTimeout(20*time.Millisecond))

	_, err := n.Narrate(context.Background(), conflictEval())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrLLMTimeout))
}

func TestEnabled(t *testing.T) {
	assert.True(t, New(&mockLLM{}).Enabled())
	assert.False(t, New(nil).Enabled())

	var nilNarrator *Narrator
	assert.False(t, nilNarrator.Enabled())
}
