package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeProvider struct {
	client      *anthropic.Client
	name        string
	model       string
	temperature float32
	maxTokens   int
}

func NewClaudeProvider(name, apiKey, model, baseURL string, temperature float32, maxTokens int) *ClaudeProvider {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &ClaudeProvider{
		client:      anthropic.NewClient(apiKey, opts...),
		name:        name,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (p *ClaudeProvider) Name() string  { return p.name }
func (p *ClaudeProvider) Model() string { return p.model }

func (p *ClaudeProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	temperature := pick(req.Temperature, p.temperature)
	msgReq := anthropic.MessagesRequest{
		Model:  anthropic.Model(p.model),
		System: req.System,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(req.Prompt),
				},
			},
		},
		MaxTokens:   pickInt(req.MaxTokens, p.maxTokens),
		Temperature: &temperature,
	}

	resp, err := p.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return nil, Classify(fmt.Errorf("%s: %w", p.name, err))
	}

	if len(resp.Content) == 0 || resp.Content[0].Text == nil || *resp.Content[0].Text == "" {
		return nil, NewTransientError(fmt.Errorf("%s: %w", p.name, ErrEmptyResponse))
	}

	return &Response{
		Content:    *resp.Content[0].Text,
		Provider:   p.name,
		Model:      p.model,
		TokensUsed: resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}
