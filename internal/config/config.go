package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration decodes TOML strings such as "30s" or "2m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type PostgresConfig struct {
	DSN      string `toml:"dsn"`
	MaxConns int32  `toml:"max_conns"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// ProviderConfig describes one LLM backend. Kind selects the client
// implementation: openai (any OpenAI-compatible API), ollama, anthropic or gemini.
type ProviderConfig struct {
	Name        string   `toml:"name"`
	Kind        string   `toml:"kind"`
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	APIKeyEnv   string   `toml:"api_key_env"`
	Temperature float32  `toml:"temperature"`
	MaxTokens   int      `toml:"max_tokens"`
	Timeout     Duration `toml:"timeout"`
}

// ResolveAPIKey returns the inline key, or the value of APIKeyEnv.
func (p ProviderConfig) ResolveAPIKey(getenv func(string) string) string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" && getenv != nil {
		return getenv(p.APIKeyEnv)
	}
	return ""
}

type RetryConfig struct {
	MaxAttempts       int      `toml:"max_attempts"`
	BackoffBase       Duration `toml:"backoff_base"`
	BackoffMultiplier float64  `toml:"backoff_multiplier"`
	MaxBackoff        Duration `toml:"max_backoff"`
}

type CallLogConfig struct {
	Path string `toml:"path"`
}

type LLMConfig struct {
	DefaultOrder []string            `toml:"default_order"`
	Routing      map[string][]string `toml:"routing"`
	Providers    []ProviderConfig    `toml:"providers"`
	Retry        RetryConfig         `toml:"retry"`
	CallLog      CallLogConfig       `toml:"call_log"`
}

// Provider returns the provider named name.
func (c LLMConfig) Provider(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}

type DetectorConfig struct {
	MinSimilarity           float64 `toml:"min_similarity"`
	MaxCandidates           int     `toml:"max_candidates"`
	DuplicateThreshold      float64 `toml:"duplicate_threshold"`
	ExactDuplicateThreshold float64 `toml:"exact_duplicate_threshold"`
	QuickThreshold          float64 `toml:"quick_threshold"`
	MaxContentChars         int     `toml:"max_content_chars"`
	SkipUnchanged           bool    `toml:"skip_unchanged"`
}

type AbrogationConfig struct {
	Threshold         float64 `toml:"threshold"`
	MinConfidence     float64 `toml:"min_confidence"`
	PerReferenceLimit int     `toml:"per_reference_limit"`
}

type NATSConfig struct {
	URL     string `toml:"url"`
	Subject string `toml:"subject"`
	Queue   string `toml:"queue"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Memgraph   MemgraphConfig   `toml:"memgraph"`
	LLM        LLMConfig        `toml:"llm"`
	Detector   DetectorConfig   `toml:"detector"`
	Abrogation AbrogationConfig `toml:"abrogation"`
	NATS       NATSConfig       `toml:"nats"`
}

// Default returns a complete configuration for a local deployment.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Postgres: PostgresConfig{
			DSN:      "postgres://localhost:5432/kb?sslmode=disable",
			MaxConns: 10,
		},
		Memgraph: MemgraphConfig{URI: "bolt://localhost:7687"},
		LLM: LLMConfig{
			DefaultOrder: []string{"groq", "gemini", "deepseek", "anthropic", "ollama"},
			Routing: map[string][]string{
				"quality-analysis": {"deepseek", "gemini", "ollama"},
				"rag-chat":         {"groq", "gemini", "deepseek", "ollama"},
				"structuring":      {"deepseek", "gemini", "ollama"},
				"translation":      {"groq", "gemini", "ollama"},
				"web-scraping":     {"gemini", "deepseek", "ollama"},
			},
			Providers: []ProviderConfig{
				{Name: "deepseek", Kind: "openai", Model: "deepseek-chat", BaseURL: "https://api.deepseek.com/v1", APIKeyEnv: "DEEPSEEK_API_KEY", Temperature: 0.1, MaxTokens: 2000},
				{Name: "groq", Kind: "openai", Model: "llama-3.3-70b-versatile", BaseURL: "https://api.groq.com/openai/v1", APIKeyEnv: "GROQ_API_KEY", Temperature: 0.1, MaxTokens: 2000},
				{Name: "gemini", Kind: "gemini", Model: "gemini-2.0-flash", APIKeyEnv: "GEMINI_API_KEY", Temperature: 0.1, MaxTokens: 2000},
				{Name: "anthropic", Kind: "anthropic", Model: "claude-3-5-haiku-latest", APIKeyEnv: "ANTHROPIC_API_KEY", Temperature: 0.1, MaxTokens: 2000},
				{Name: "openai", Kind: "openai", Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY", Temperature: 0.1, MaxTokens: 2000},
				{Name: "ollama", Kind: "ollama", Model: "qwen2.5:3b", BaseURL: "http://localhost:11434", Temperature: 0.1, Timeout: Duration{120 * time.Second}},
			},
			Retry: RetryConfig{
				MaxAttempts:       2,
				BackoffBase:       Duration{time.Second},
				BackoffMultiplier: 2.0,
				MaxBackoff:        Duration{10 * time.Second},
			},
		},
		Detector: DetectorConfig{
			MinSimilarity:           0.75,
			MaxCandidates:           5,
			DuplicateThreshold:      0.85,
			ExactDuplicateThreshold: 0.95,
			QuickThreshold:          0.85,
			MaxContentChars:         3000,
		},
		Abrogation: AbrogationConfig{
			Threshold:         0.5,
			MinConfidence:     0.6,
			PerReferenceLimit: 3,
		},
		NATS: NATSConfig{
			URL:     "nats://127.0.0.1:4222",
			Subject: "kb.document.indexed",
			Queue:   "kbguard",
		},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides connection settings from KBGUARD_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, "KBGUARD_SERVER_ADDR")
	set(&c.Postgres.DSN, "KBGUARD_POSTGRES_DSN")
	set(&c.Memgraph.URI, "KBGUARD_MEMGRAPH_URI")
	set(&c.Memgraph.User, "KBGUARD_MEMGRAPH_USER")
	set(&c.Memgraph.Password, "KBGUARD_MEMGRAPH_PASSWORD")
	set(&c.NATS.URL, "KBGUARD_NATS_URL")
	set(&c.LLM.CallLog.Path, "KBGUARD_LLM_CALL_LOG")

	if v := getenv("KBGUARD_LLM_DEFAULT_ORDER"); v != "" {
		c.LLM.DefaultOrder = splitList(v)
	}
	if v := getenv("KBGUARD_OLLAMA_BASE_URL"); v != "" {
		for i := range c.LLM.Providers {
			if c.LLM.Providers[i].Kind == "ollama" {
				c.LLM.Providers[i].BaseURL = v
			}
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every inconsistency found in c.
func (c *Config) Validate() error {
	var errs []error

	unit := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	unit("detector.min_similarity", c.Detector.MinSimilarity)
	unit("detector.duplicate_threshold", c.Detector.DuplicateThreshold)
	unit("detector.exact_duplicate_threshold", c.Detector.ExactDuplicateThreshold)
	unit("detector.quick_threshold", c.Detector.QuickThreshold)
	unit("abrogation.threshold", c.Abrogation.Threshold)
	unit("abrogation.min_confidence", c.Abrogation.MinConfidence)

	if c.Detector.DuplicateThreshold < c.Detector.MinSimilarity {
		errs = append(errs, errors.New("detector.duplicate_threshold must not be below detector.min_similarity"))
	}
	if c.Detector.ExactDuplicateThreshold < c.Detector.DuplicateThreshold {
		errs = append(errs, errors.New("detector.exact_duplicate_threshold must not be below detector.duplicate_threshold"))
	}
	if c.Detector.MaxCandidates <= 0 {
		errs = append(errs, errors.New("detector.max_candidates must be positive"))
	}
	if c.Abrogation.PerReferenceLimit <= 0 {
		errs = append(errs, errors.New("abrogation.per_reference_limit must be positive"))
	}

	known := make(map[string]bool, len(c.LLM.Providers))
	for _, p := range c.LLM.Providers {
		if p.Name == "" {
			errs = append(errs, errors.New("llm.providers: provider without name"))
			continue
		}
		if known[p.Name] {
			errs = append(errs, fmt.Errorf("llm.providers: duplicate provider %q", p.Name))
		}
		known[p.Name] = true
	}
	check := func(where string, names []string) {
		for _, n := range names {
			if !known[n] {
				errs = append(errs, fmt.Errorf("%s: unknown provider %q", where, n))
			}
		}
	}
	check("llm.default_order", c.LLM.DefaultOrder)
	for usage, names := range c.LLM.Routing {
		check("llm.routing."+usage, names)
	}

	return errors.Join(errs...)
}
