package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client      *genai.Client
	name        string
	model       string
	temperature float32
	maxTokens   int
}

func NewGeminiProvider(ctx context.Context, name, apiKey, model string, temperature float32, maxTokens int) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		name:        name,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (p *GeminiProvider) Name() string  { return p.name }
func (p *GeminiProvider) Model() string { return p.model }

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := p.client.GenerativeModel(p.model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if t := pick(req.Temperature, p.temperature); t != 0 {
		model.SetTemperature(t)
	}
	if n := pickInt(req.MaxTokens, p.maxTokens); n > 0 {
		model.SetMaxOutputTokens(int32(n))
	}
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, Classify(fmt.Errorf("%s: %w", p.name, err))
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	if sb.Len() == 0 {
		return nil, NewTransientError(fmt.Errorf("%s: %w", p.name, ErrEmptyResponse))
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &Response{
		Content:    sb.String(),
		Provider:   p.name,
		Model:      p.model,
		TokensUsed: tokens,
	}, nil
}

// Close releases the underlying client.
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}
