package llm

import (
	"context"
)

// Usage contexts select the provider order of the fallback chain.
const (
	ContextRAGChat         = "rag-chat"
	ContextEmbeddings      = "embeddings"
	ContextQualityAnalysis = "quality-analysis"
	ContextStructuring     = "structuring"
	ContextTranslation     = "translation"
	ContextWebScraping     = "web-scraping"
	ContextDefault         = "default"
)

type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
	// JSON asks providers that support it for a JSON object response.
	JSON bool
}

type Response struct {
	Content    string `json:"content"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
	// Fallbacks is the number of providers that failed before this one answered.
	Fallbacks int `json:"fallbacks"`
}

// Provider is a single LLM backend.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Generator is the capability consumers depend on: a completion routed by
// usage context.
type Generator interface {
	Generate(ctx context.Context, usage string, req Request) (*Response, error)
}
