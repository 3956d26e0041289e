package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/kbguard/internal/metrics"
)

// CallRecord is one provider attempt made by a Chain.
type CallRecord struct {
	ID         string
	RequestID  string
	Usage      string
	Provider   string
	Model      string
	Attempt    int
	Success    bool
	Error      string
	TokensUsed int
	Duration   time.Duration
	CreatedAt  time.Time
}

type CallRecorder interface {
	Record(ctx context.Context, rec CallRecord) error
}

// Chain tries providers in an order chosen by usage context until one
// answers.
type Chain struct {
	providers    map[string]Provider
	registered   []string
	routing      map[string][]string
	defaultOrder []string
	retry        RetryConfig
	logger       *slog.Logger
	metrics      *metrics.Metrics
	recorder     CallRecorder
	sleep        func(context.Context, time.Duration) error
}

type ChainOption func(*Chain)

// WithRouting sets the usage context to provider order mapping.
func WithRouting(routing map[string][]string) ChainOption {
	return func(c *Chain) { c.routing = routing }
}

// WithDefaultOrder sets the order used for contexts without a route.
func WithDefaultOrder(order []string) ChainOption {
	return func(c *Chain) { c.defaultOrder = order }
}

func WithRetry(cfg RetryConfig) ChainOption {
	return func(c *Chain) { c.retry = cfg }
}

func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) ChainOption {
	return func(c *Chain) { c.metrics = m }
}

func WithCallRecorder(r CallRecorder) ChainOption {
	return func(c *Chain) { c.recorder = r }
}

func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: make(map[string]Provider, len(providers)),
		retry:     DefaultRetryConfig(),
		logger:    slog.Default(),
		sleep:     sleepContext,
	}
	for _, p := range providers {
		c.providers[p.Name()] = p
		c.registered = append(c.registered, p.Name())
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.MaxAttempts < 1 {
		c.retry.MaxAttempts = 1
	}
	return c
}

// Close releases providers that hold client resources.
func (c *Chain) Close() error {
	var errs []error
	for _, name := range c.registered {
		if cl, ok := c.providers[name].(io.Closer); ok {
			errs = append(errs, cl.Close())
		}
	}
	return errors.Join(errs...)
}

// Order returns the provider names tried for usage, in order.
func (c *Chain) Order(usage string) []string {
	if names := c.routing[usage]; len(names) > 0 {
		return names
	}
	if len(c.defaultOrder) > 0 {
		return c.defaultOrder
	}
	return c.registered
}

// Generate implements Generator. It returns ErrChainExhausted once every
// provider in the order has failed.
func (c *Chain) Generate(ctx context.Context, usage string, req Request) (*Response, error) {
	requestID := uuid.NewString()
	var errs []error

	for _, name := range c.Order(usage) {
		p, ok := c.providers[name]
		if !ok {
			c.logger.Debug("LLM provider not configured, skipping", "provider", name, "context", usage)
			continue
		}

		resp, err := c.tryProvider(ctx, requestID, usage, p, req)
		if err == nil {
			resp.Fallbacks = len(errs)
			if len(errs) > 0 {
				c.logger.Info("LLM fallback succeeded",
					"context", usage,
					"provider", resp.Provider,
					"failed_providers", len(errs))
			}
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		errs = append(errs, fmt.Errorf("%s: %w", name, err))
		c.logger.Warn("LLM provider failed, trying next",
			"context", usage,
			"provider", name,
			"error", err)
	}

	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no provider configured for context %q", ErrChainExhausted, usage)
	}
	return nil, fmt.Errorf("%w for context %q: %w", ErrChainExhausted, usage, errors.Join(errs...))
}

func (c *Chain) tryProvider(ctx context.Context, requestID, usage string, p Provider, req Request) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		start := time.Now()
		resp, err := p.Generate(ctx, req)
		err = Classify(err)
		c.record(ctx, requestID, usage, p, attempt, resp, err, time.Since(start))

		if err == nil {
			c.metrics.LLMCall(usage, p.Name(), "ok")
			return resp, nil
		}
		lastErr = err

		if IsFatal(err) {
			c.metrics.LLMCall(usage, p.Name(), "fatal")
			break
		}
		c.metrics.LLMCall(usage, p.Name(), "transient")

		if attempt < c.retry.MaxAttempts {
			backoff := c.retry.backoff(attempt)
			c.logger.Warn("LLM attempt failed, retrying",
				"provider", p.Name(),
				"attempt", attempt,
				"backoff", backoff,
				"error", err)
			if sleepErr := c.sleep(ctx, backoff); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}
	return nil, lastErr
}

func (c *Chain) record(ctx context.Context, requestID, usage string, p Provider, attempt int, resp *Response, err error, elapsed time.Duration) {
	if c.recorder == nil {
		return
	}
	rec := CallRecord{
		ID:        uuid.NewString(),
		RequestID: requestID,
		Usage:     usage,
		Provider:  p.Name(),
		Model:     p.Model(),
		Attempt:   attempt,
		Success:   err == nil,
		Duration:  elapsed,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if resp != nil {
		rec.TokensUsed = resp.TokensUsed
	}
	if recErr := c.recorder.Record(ctx, rec); recErr != nil {
		c.logger.Warn("Failed to record LLM call", "error", recErr)
	}
}
