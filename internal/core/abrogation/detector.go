package abrogation

import (
	"context"
	"log/slog"
	"time"

	"github.com/agenthands/kbguard/internal/core/legalref"
	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/metrics"
)

const (
	DefaultThreshold     = 0.5
	DefaultMinConfidence = 0.6
)

// Options tunes one detection call. Zero values select the defaults.
type Options struct {
	Threshold     float64
	MinConfidence float64
}

func (o Options) withDefaults(d Options) Options {
	if o.Threshold <= 0 {
		o.Threshold = d.Threshold
	}
	if o.MinConfidence <= 0 {
		o.MinConfidence = d.MinConfidence
	}
	return o
}

type Detector struct {
	searcher *Searcher
	defaults Options
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type DetectorOption func(*Detector)

func WithDefaults(o Options) DetectorOption {
	return func(d *Detector) { d.defaults = o.withDefaults(d.defaults) }
}

func WithLogger(logger *slog.Logger) DetectorOption {
	return func(d *Detector) { d.logger = logger }
}

func WithMetrics(m *metrics.Metrics) DetectorOption {
	return func(d *Detector) { d.metrics = m }
}

func NewDetector(searcher *Searcher, opts ...DetectorOption) *Detector {
	d := &Detector{
		searcher: searcher,
		defaults: Options{Threshold: DefaultThreshold, MinConfidence: DefaultMinConfidence},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectAbrogations extracts the legal references cited in message and
// returns one alert per repealed text they match. Registry failures never
// surface as errors; only a cancelled context does.
func (d *Detector) DetectAbrogations(ctx context.Context, message string, opts Options) ([]model.AbrogationAlert, error) {
	defer d.metrics.ObservePipeline("abrogations", time.Now())
	opts = opts.withDefaults(d.defaults)

	refs := legalref.FilterByConfidence(legalref.Extract(message), opts.MinConfidence)
	if len(refs) == 0 {
		return nil, nil
	}
	d.logger.Debug("Legal references detected", "count", len(refs))

	abrogations := d.searcher.Search(ctx, refs, opts.Threshold)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(abrogations) == 0 {
		return nil, nil
	}
	d.logger.Info("Abrogations matched", "references", len(refs), "abrogations", len(abrogations))

	alerts := GenerateAlerts(refs, abrogations)
	for _, a := range alerts {
		d.metrics.AbrogationAlert(string(a.Severity))
	}
	return alerts, nil
}
