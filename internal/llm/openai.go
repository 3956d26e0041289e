package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completion API
// (OpenAI, DeepSeek, Groq, Ollama's /v1 endpoint).
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAIProvider(name, apiKey, model, baseURL string, temperature float32, maxTokens int) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		name:        name,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (p *OpenAIProvider) Name() string  { return p.name }
func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: pick(req.Temperature, p.temperature),
		MaxTokens:   pickInt(req.MaxTokens, p.maxTokens),
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, Classify(fmt.Errorf("%s: %w", p.name, err))
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, NewTransientError(fmt.Errorf("%s: %w", p.name, ErrEmptyResponse))
	}

	return &Response{
		Content:    resp.Choices[0].Message.Content,
		Provider:   p.name,
		Model:      p.model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

func pick(v, fallback float32) float32 {
	if v != 0 {
		return v
	}
	return fallback
}

func pickInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
