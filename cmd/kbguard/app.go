package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/agenthands/kbguard/internal/config"
	"github.com/agenthands/kbguard/internal/core/abrogation"
	"github.com/agenthands/kbguard/internal/core/dedupe"
	"github.com/agenthands/kbguard/internal/driver"
	"github.com/agenthands/kbguard/internal/llm"
	"github.com/agenthands/kbguard/internal/metrics"
	"github.com/agenthands/kbguard/internal/store"
)

// app owns the backends a command needs. Fields stay nil until opened.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	store   *store.Store
	graph   *driver.MemgraphDriver
	chain   *llm.Chain
	callLog *llm.CallLog
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &app{
		cfg:      cfg,
		logger:   newLogger(),
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store == nil {
		s, err := store.Open(ctx, a.cfg.Postgres, a.logger)
		if err != nil {
			return nil, err
		}
		a.store = s
	}
	return a.store, nil
}

func (a *app) openGraph(ctx context.Context) (*driver.MemgraphDriver, error) {
	if a.graph == nil {
		g, err := driver.NewMemgraphDriver(ctx, a.cfg.Memgraph, a.logger)
		if err != nil {
			return nil, err
		}
		if err := g.BuildIndices(ctx); err != nil {
			return nil, err
		}
		a.graph = g
	}
	return a.graph, nil
}

func (a *app) openChain(ctx context.Context) (*llm.Chain, error) {
	if a.chain != nil {
		return a.chain, nil
	}
	var recorder llm.CallRecorder
	if path := a.cfg.LLM.CallLog.Path; path != "" {
		cl, err := llm.OpenCallLog(path)
		if err != nil {
			return nil, err
		}
		a.callLog = cl
		recorder = cl
	}
	chain, err := llm.NewChainFromConfig(ctx, a.cfg.LLM, os.Getenv, a.logger, a.metrics, recorder)
	if err != nil {
		return nil, err
	}
	a.chain = chain
	return chain, nil
}

// duplicateDetector wires pipeline 1: pgvector screen, LLM adjudication,
// graph relation store and Postgres findings.
func (a *app) duplicateDetector(ctx context.Context) (*dedupe.Detector, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	g, err := a.openGraph(ctx)
	if err != nil {
		return nil, err
	}
	chain, err := a.openChain(ctx)
	if err != nil {
		return nil, err
	}

	dc := a.cfg.Detector
	screener := dedupe.NewScreener(st, dc.MinSimilarity, dc.MaxCandidates)
	adjudicator := dedupe.NewAdjudicator(chain, dc.MaxContentChars, a.logger)
	return dedupe.NewDetector(screener, adjudicator, st, driver.NewRelationGraph(g), st,
		dedupe.WithThresholds(dedupe.Thresholds{
			Min:       dc.MinSimilarity,
			Duplicate: dc.DuplicateThreshold,
			Exact:     dc.ExactDuplicateThreshold,
		}),
		dedupe.WithQuickThreshold(dc.QuickThreshold),
		dedupe.WithSkipUnchanged(dc.SkipUnchanged),
		dedupe.WithLogger(a.logger),
		dedupe.WithMetrics(a.metrics),
	), nil
}

// abrogationDetector wires pipeline 2 over the Postgres registry.
func (a *app) abrogationDetector(ctx context.Context) (*abrogation.Detector, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	ac := a.cfg.Abrogation
	searcher := abrogation.NewSearcher(st, ac.PerReferenceLimit, a.logger)
	return abrogation.NewDetector(searcher,
		abrogation.WithDefaults(abrogation.Options{Threshold: ac.Threshold, MinConfidence: ac.MinConfidence}),
		abrogation.WithLogger(a.logger),
		abrogation.WithMetrics(a.metrics),
	), nil
}

// ready checks every opened backend.
func (a *app) ready(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.graph != nil {
		if err := a.graph.Driver.VerifyConnectivity(ctx); err != nil {
			errs = append(errs, fmt.Errorf("graph: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *app) Close(ctx context.Context) {
	if a.chain != nil {
		if err := a.chain.Close(); err != nil {
			a.logger.Warn("closing LLM providers", "error", err)
		}
	}
	if a.callLog != nil {
		if err := a.callLog.Close(); err != nil {
			a.logger.Warn("closing call log", "error", err)
		}
	}
	if a.graph != nil {
		if err := a.graph.Close(ctx); err != nil {
			a.logger.Warn("closing graph driver", "error", err)
		}
	}
	if a.store != nil {
		a.store.Close()
	}
}
