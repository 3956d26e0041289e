package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/agenthands/kbguard/internal/config"
	"github.com/agenthands/kbguard/internal/metrics"
)

// NewProvider builds the client selected by cfg.Kind.
func NewProvider(ctx context.Context, cfg config.ProviderConfig, getenv func(string) string) (Provider, error) {
	kind := strings.ToLower(cfg.Kind)
	apiKey := cfg.ResolveAPIKey(getenv)

	var p Provider
	switch kind {
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s: missing API key", cfg.Name)
		}
		p = NewOpenAIProvider(cfg.Name, apiKey, cfg.Model, cfg.BaseURL, cfg.Temperature, cfg.MaxTokens)

	case "ollama":
		// Ollama is reached through its OpenAI-compatible API.
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
		}
		if apiKey == "" {
			apiKey = "ollama" // ignored by Ollama, required by the client
		}
		p = NewOpenAIProvider(cfg.Name, apiKey, cfg.Model, baseURL, cfg.Temperature, cfg.MaxTokens)

	case "anthropic", "claude":
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s: missing API key", cfg.Name)
		}
		p = NewClaudeProvider(cfg.Name, apiKey, cfg.Model, cfg.BaseURL, cfg.Temperature, cfg.MaxTokens)

	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("provider %s: missing API key", cfg.Name)
		}
		g, err := NewGeminiProvider(ctx, cfg.Name, apiKey, cfg.Model, cfg.Temperature, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		p = g

	default:
		return nil, fmt.Errorf("unsupported llm provider kind: %s", cfg.Kind)
	}

	if cfg.Timeout.Duration > 0 {
		p = &timeoutProvider{Provider: p, timeout: cfg.Timeout.Duration}
	}
	return p, nil
}

type timeoutProvider struct {
	Provider
	timeout time.Duration
}

func (p *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.Provider.Generate(ctx, req)
}

func (p *timeoutProvider) Close() error {
	if c, ok := p.Provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// NewChainFromConfig builds every provider that can be initialised and wires
// them into a Chain. Providers that cannot be built (usually a missing API
// key) are logged and left out of the chain.
func NewChainFromConfig(ctx context.Context, cfg config.LLMConfig, getenv func(string) string, logger *slog.Logger, m *metrics.Metrics, recorder CallRecorder) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	for _, pc := range cfg.Providers {
		p, err := NewProvider(ctx, pc, getenv)
		if err != nil {
			logger.Warn("LLM provider disabled", "provider", pc.Name, "error", err)
			continue
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no LLM provider could be initialised")
	}

	retry := DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.BackoffBase.Duration > 0 {
		retry.BackoffBase = cfg.Retry.BackoffBase.Duration
	}
	if cfg.Retry.BackoffMultiplier > 0 {
		retry.BackoffMultiplier = cfg.Retry.BackoffMultiplier
	}
	if cfg.Retry.MaxBackoff.Duration > 0 {
		retry.MaxBackoff = cfg.Retry.MaxBackoff.Duration
	}

	opts := []ChainOption{
		WithRouting(cfg.Routing),
		WithDefaultOrder(cfg.DefaultOrder),
		WithRetry(retry),
		WithLogger(logger),
		WithMetrics(m),
	}
	if recorder != nil {
		opts = append(opts, WithCallRecorder(recorder))
	}
	return NewChain(providers, opts...), nil
}
