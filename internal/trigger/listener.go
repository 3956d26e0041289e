// Package trigger runs the duplicate pipeline when the ingestion side
// announces a newly indexed document on NATS.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/agenthands/kbguard/internal/config"
	"github.com/agenthands/kbguard/internal/core/dedupe"
)

var (
	ErrInvalidEvent = errors.New("invalid indexed-document event")
	ErrDrainTimeout = errors.New("timed out draining subscription")
)

const (
	// DrainTimeout bounds how long Run waits for in-flight analyses on stop.
	DrainTimeout  = 2 * time.Minute
	drainInterval = 50 * time.Millisecond
)

type Analyzer interface {
	DetectDuplicatesAndContradictions(ctx context.Context, documentID string) (*dedupe.Report, error)
}

// IndexedEvent is the payload published on the indexed-document subject.
type IndexedEvent struct {
	DocumentID string `json:"document_id"`
}

// Ack is sent back when the event was published as a request.
type Ack struct {
	DocumentID string `json:"document_id"`
	LLMCalls   int    `json:"llm_calls"`
	Written    int    `json:"relations_written"`
	Error      string `json:"error,omitempty"`
}

type Listener struct {
	analyzer Analyzer
	subject  string
	queue    string
	logger   *slog.Logger
}

func NewListener(analyzer Analyzer, cfg config.NATSConfig, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{analyzer: analyzer, subject: cfg.Subject, queue: cfg.Queue, logger: logger}
}

// Handle decodes one event and analyzes its document.
func (l *Listener) Handle(ctx context.Context, data []byte) (*dedupe.Report, error) {
	var ev IndexedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	ev.DocumentID = strings.TrimSpace(ev.DocumentID)
	if ev.DocumentID == "" {
		return nil, fmt.Errorf("%w: missing document_id", ErrInvalidEvent)
	}
	return l.analyzer.DetectDuplicatesAndContradictions(ctx, ev.DocumentID)
}

// Run subscribes in the configured queue group until ctx is done, then
// drains the subscription and returns once the analysis in flight has
// finished. NATS delivers a subscription's messages one at a time, so
// documents are analyzed sequentially.
func (l *Listener) Run(ctx context.Context, nc *nats.Conn) error {
	// Analyses outlive ctx so a stop request lets the current one complete.
	work := context.WithoutCancel(ctx)
	sub, err := nc.QueueSubscribe(l.subject, l.queue, func(msg *nats.Msg) {
		l.onMessage(work, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", l.subject, err)
	}
	l.logger.Info("listening for indexed documents", "subject", l.subject, "queue", l.queue)

	<-ctx.Done()
	l.logger.Info("draining indexed-document subscription", "subject", l.subject)
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("drain %s: %w", l.subject, err)
	}
	if err := waitDrained(sub.IsValid, DrainTimeout, drainInterval); err != nil {
		return fmt.Errorf("drain %s: %w", l.subject, err)
	}
	return nil
}

// waitDrained polls until valid reports false. Subscription.Drain returns
// before pending messages are processed.
func waitDrained(valid func() bool, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	for valid() {
		if time.Now().After(deadline) {
			return ErrDrainTimeout
		}
		time.Sleep(interval)
	}
	return nil
}

func (l *Listener) onMessage(ctx context.Context, msg *nats.Msg) {
	report, err := l.Handle(ctx, msg.Data)
	ack := Ack{}
	if report != nil {
		ack.DocumentID = report.DocumentID
		ack.LLMCalls = report.LLMCalls
		ack.Written = report.Written
	}
	if err != nil {
		ack.Error = err.Error()
		l.logger.Warn("Indexed document analysis failed", "subject", msg.Subject, "error", err)
	}

	if msg.Reply == "" {
		return
	}
	body, err := json.Marshal(ack)
	if err != nil {
		return
	}
	if err := msg.Respond(body); err != nil {
		l.logger.Warn("Failed to acknowledge event", "reply", msg.Reply, "error", err)
	}
}
