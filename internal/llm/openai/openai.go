package openai

import (
	"context"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/llm"
)

const defaultModel = "gpt-4o"

// Provider talks to the OpenAI chat completions API.
type Provider struct {
	client *goopenai.Client
	model  string
}

// New creates an OpenAI provider. The API key is required; the model falls
// back to a sensible default when empty.
func New(apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, core.WrapErrorf(core.ErrConfigMissing, "openai API key required")
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		client: goopenai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (p *Provider) Name() string { return "openai" }

// Complete sends one prompt and returns the model's text.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, core.WrapError(core.ErrLLMFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.WrapErrorf(core.ErrLLMFailed, "openai returned no choices")
	}

	choice := resp.Choices[0]
	return &llm.Response{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: llm.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
