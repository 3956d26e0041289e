package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/kbguard/internal/config"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	noEnv := func(string) string { return "" }

	p, err := NewProvider(ctx, config.ProviderConfig{Name: "ollama", Kind: "ollama", Model: "qwen2.5:3b"}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
	assert.Equal(t, "qwen2.5:3b", p.Model())

	_, err = NewProvider(ctx, config.ProviderConfig{Name: "deepseek", Kind: "openai", APIKeyEnv: "DEEPSEEK_API_KEY"}, noEnv)
	assert.ErrorContains(t, err, "missing API key")

	p, err = NewProvider(ctx, config.ProviderConfig{Name: "deepseek", Kind: "openai", Model: "deepseek-chat", APIKey: "sk"}, noEnv)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIProvider{}, p)

	p, err = NewProvider(ctx, config.ProviderConfig{Name: "claude", Kind: "anthropic", APIKey: "sk", Timeout: config.Duration{Duration: time.Second}}, noEnv)
	require.NoError(t, err)
	assert.IsType(t, &timeoutProvider{}, p)
	assert.Equal(t, "claude", p.Name())

	_, err = NewProvider(ctx, config.ProviderConfig{Name: "x", Kind: "mistral"}, noEnv)
	assert.ErrorContains(t, err, "unsupported")
}

func TestNewChainFromConfigSkipsUnusableProviders(t *testing.T) {
	cfg := config.Default().LLM
	chain, err := NewChainFromConfig(context.Background(), cfg, func(string) string { return "" }, nil, nil, nil)
	require.NoError(t, err)

	assert.Contains(t, chain.providers, "ollama")
	assert.NotContains(t, chain.providers, "deepseek")
	assert.Equal(t, []string{"deepseek", "gemini", "ollama"}, chain.Order(ContextQualityAnalysis))
	assert.Equal(t, cfg.Retry.MaxAttempts, chain.retry.MaxAttempts)
}
