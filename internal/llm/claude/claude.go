package claude

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/llm"
)

const defaultModel = "claude-sonnet-4-20250514"

// Provider talks to the Anthropic Messages API.
type Provider struct {
	client anthropic.Client
	model  string
}

// New creates a Claude provider. The API key is required; the model falls
// back to a sensible default when empty.
func New(apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, core.WrapErrorf(core.ErrConfigMissing, "claude API key required")
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (p *Provider) Name() string { return "claude" }

// Complete sends one prompt and returns the model's text.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, err)
	}

	var content string
	if len(resp.Content) > 0 && resp.Content[0].Type == "text" {
		content = resp.Content[0].Text
	}

	return &llm.Response{
		Content:    content,
		StopReason: string(resp.StopReason),
		Usage: llm.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}
