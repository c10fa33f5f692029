// Package narrator drafts a human-readable explanation when the two signal
// scorers disagree. It is an optional capability: the engine runs unchanged
// with no narrator attached, the same degradation discipline as the adaptive
// estimator.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/llm"
)

// Narrator turns a Conflict evaluation into a short plain-language account
// of why the rule-based and adaptive scorers pulled in opposite directions.
type Narrator struct {
	llm     llm.Provider
	timeout time.Duration
	logger  *zap.Logger
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithTimeout bounds each LLM call.
func WithTimeout(d time.Duration) Option {
	return func(n *Narrator) { n.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(n *Narrator) { n.logger = l }
}

// New creates a narrator backed by the given LLM provider.
func New(provider llm.Provider, opts ...Option) *Narrator {
	n := &Narrator{
		llm:     provider,
		timeout: 30 * time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether a provider is attached.
func (n *Narrator) Enabled() bool {
	return n != nil && n.llm != nil
}

// Narrate drafts the explanation for a conflicted evaluation. Verdicts other
// than Conflict have nothing to explain and return an empty narrative.
func (n *Narrator) Narrate(ctx context.Context, eval core.Evaluation) (string, error) {
	if eval.Verdict != core.VerdictConflict {
		return "", nil
	}
	if !n.Enabled() {
		return "", core.WrapErrorf(core.ErrLLMFailed, "no LLM provider attached")
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req := llm.Request{
		System:      narratorSystemPrompt,
		Prompt:      buildPrompt(eval),
		MaxTokens:   512,
		Temperature: 0.3,
	}

	resp, err := n.llm.Complete(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", core.WrapError(core.ErrLLMTimeout, err)
		}
		return "", err
	}

	narrative := strings.TrimSpace(resp.Content)
	n.logger.Debug("narrative generated",
		zap.String("ticker", eval.Ticker),
		zap.Int("length", len(narrative)))
	return narrative, nil
}

func buildPrompt(eval core.Evaluation) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Ticker: %s\n", eval.Ticker))
	sb.WriteString(fmt.Sprintf("Window: %s to %s\n\n",
		eval.Window.Start.Format("2006-01-02"),
		eval.Window.End.Format("2006-01-02")))

	t := eval.Technical
	sb.WriteString("## Technical Scorer:\n")
	sb.WriteString(fmt.Sprintf("- Action: %s (total %.2f, confidence %.2f)\n",
		t.Action, t.Total, t.Confidence))
	sb.WriteString(fmt.Sprintf("- Components: trend %.1f, momentum %.1f, extremes %.2f\n",
		t.Trend, t.Momentum, t.Extreme))
	for _, note := range t.Notes {
		sb.WriteString(fmt.Sprintf("  - %s\n", note))
	}
	sb.WriteString("\n")

	a := eval.Adaptive
	sb.WriteString("## Adaptive Estimator:\n")
	sb.WriteString(fmt.Sprintf("- Action: %s (total %.2f, confidence %.2f)\n",
		a.Action, a.Total, a.Confidence))
	sb.WriteString(fmt.Sprintf("- Filtered price %.2f, one-step prediction %.2f (std %.3f)\n",
		a.FilteredPrice, a.Prediction, a.PredictionStd))
	sb.WriteString(fmt.Sprintf("- Components: trend %.1f, momentum %.1f, prediction %.1f\n",
		a.Trend, a.Momentum, a.PredComponent))
	for _, note := range a.Notes {
		sb.WriteString(fmt.Sprintf("  - %s\n", note))
	}
	sb.WriteString("\n")

	r := eval.Regime
	sb.WriteString("## Market Regime:\n")
	sb.WriteString(fmt.Sprintf("- State: %s\n", r.State))
	sb.WriteString(fmt.Sprintf("- Annualized return %.2f%%, volatility %.2f%% (median %.2f%%)\n",
		r.AnnualizedReturn*100, r.AnnualizedVol*100, r.MedianVol*100))
	sb.WriteString("\n")

	sb.WriteString("## Task:\n")
	sb.WriteString("The two signal sources disagree. Explain in 2-4 sentences what each ")
	sb.WriteString("source is reacting to and why they reach opposite conclusions. ")
	sb.WriteString("Plain prose, no recommendation of your own.\n")

	return sb.String()
}

const narratorSystemPrompt = `You are a market analyst explaining disagreements between two independent signal sources: a rule-based technical indicator scorer and a Kalman-filter state-space estimator.

Your job is descriptive, not advisory: explain what each source is reacting to in the supplied diagnostics and why they reach opposite conclusions. Do not issue your own recommendation, price target, or forecast. Keep the explanation to a short paragraph of plain prose.`
