package llm

import "context"

// Provider generates free-form text from a single prompt. The engine only
// needs one-shot completions for conflict narratives, so the surface stays
// deliberately narrow: no conversation history, no tool use.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is one completion request.
type Request struct {
	// System sets the model's role and constraints.
	System string
	// Prompt is the user-turn content.
	Prompt string
	// MaxTokens caps the completion length; providers apply their own
	// default when zero.
	MaxTokens int
	// Temperature controls sampling randomness.
	Temperature float64
}

// Response is one completion result.
type Response struct {
	Content    string
	StopReason string
	Usage      Usage
}

// Usage tracks token consumption for cost accounting.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
