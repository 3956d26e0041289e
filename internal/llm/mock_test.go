package llm

import (
	"context"
	"sync"
	"time"
)

type MockProvider struct {
	ProviderName string
	Errs         []error
	Response     string
	Tokens       int

	mu       sync.Mutex
	Calls    int
	Requests []Request
}

func (m *MockProvider) Name() string  { return m.ProviderName }
func (m *MockProvider) Model() string { return m.ProviderName + "-model" }

// Generate fails with the queued errors first, then answers Response.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Requests = append(m.Requests, req)
	if len(m.Errs) > 0 {
		err := m.Errs[0]
		m.Errs = m.Errs[1:]
		return nil, err
	}
	return &Response{Content: m.Response, Provider: m.ProviderName, Model: m.Model(), TokensUsed: m.Tokens}, nil
}

type MockRecorder struct {
	Records []CallRecord
}

func (m *MockRecorder) Record(ctx context.Context, rec CallRecord) error {
	m.Records = append(m.Records, rec)
	return nil
}

func noSleep(context.Context, time.Duration) error { return nil }
