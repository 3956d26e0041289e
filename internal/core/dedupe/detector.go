// Package dedupe detects duplicate and contradictory documents in the
// knowledge base: a vector similarity screen, a score-tier classification,
// and LLM adjudication of the ambiguous middle band.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/metrics"
)

// DocumentSource fetches documents by id.
type DocumentSource interface {
	GetDocument(ctx context.Context, id string) (*model.Document, error)
}

// RelationStore keeps at most one relation per unordered document pair.
type RelationStore interface {
	UpsertRelation(ctx context.Context, rel model.DuplicateRelation) error
	// GetRelation returns nil, nil when the pair has no relation.
	GetRelation(ctx context.Context, a, b string) (*model.DuplicateRelation, error)
	ListRelations(ctx context.Context, documentID string) ([]model.DuplicateRelation, error)
}

// FindingStore keeps the latest contradiction analysis per unordered pair.
type FindingStore interface {
	UpsertFinding(ctx context.Context, f model.ContradictionFinding) error
}

// relationNamespace derives stable relation ids from pair keys.
var relationNamespace = uuid.MustParse("6f1c1d2e-3b8a-4f5e-9a7c-2d4b6e8f0a13")

// RelationID is the stable id of the relation between a and b.
func RelationID(a, b string) string {
	return uuid.NewSHA1(relationNamespace, []byte(model.PairKey(a, b))).String()
}

// Outcome is what happened to one screened candidate.
type Outcome struct {
	Candidate model.SimilarityCandidate   `json:"candidate"`
	Tier      Tier                        `json:"tier"`
	Relation  *model.DuplicateRelation    `json:"relation,omitempty"`
	Finding   *model.ContradictionFinding `json:"finding,omitempty"`
	Reused    bool                        `json:"reused,omitempty"`
	Skipped   string                      `json:"skipped,omitempty"`
}

type Report struct {
	DocumentID string    `json:"document_id"`
	LLMCalls   int       `json:"llm_calls"`
	Written    int       `json:"relations_written"`
	Outcomes   []Outcome `json:"outcomes"`
}

type Detector struct {
	screener      *Screener
	thresholds    Thresholds
	quickScore    float64
	adjudicator   *Adjudicator
	docs          DocumentSource
	relations     RelationStore
	findings      FindingStore
	skipUnchanged bool
	logger        *slog.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

type Option func(*Detector)

func WithThresholds(t Thresholds) Option {
	return func(d *Detector) { d.thresholds = t }
}

// WithQuickThreshold sets the minimum score of QuickDuplicates.
func WithQuickThreshold(score float64) Option {
	return func(d *Detector) { d.quickScore = score }
}

// WithSkipUnchanged reuses an adjudicated relation when neither document
// changed since it was computed and the similarity is the same.
func WithSkipUnchanged(enabled bool) Option {
	return func(d *Detector) { d.skipUnchanged = enabled }
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) { d.metrics = m }
}

func NewDetector(screener *Screener, adjudicator *Adjudicator, docs DocumentSource, relations RelationStore, findings FindingStore, opts ...Option) *Detector {
	d := &Detector{
		screener:    screener,
		thresholds:  DefaultThresholds(),
		quickScore:  DefaultQuickThreshold,
		adjudicator: adjudicator,
		docs:        docs,
		relations:   relations,
		findings:    findings,
		logger:      slog.Default(),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.thresholds.Min < screener.minScore {
		d.thresholds.Min = screener.minScore
	}
	return d
}

// DetectDuplicatesAndContradictions screens documentID against the
// knowledge base and writes one relation per candidate. Candidates in the
// adjudication band cost one LLM call each. Per-candidate failures are
// logged and reported in the Report; only a failed screen or a cancelled
// context returns an error.
func (d *Detector) DetectDuplicatesAndContradictions(ctx context.Context, documentID string) (*Report, error) {
	defer d.metrics.ObservePipeline("duplicates", time.Now())

	candidates, err := d.screener.Screen(ctx, documentID)
	if err != nil {
		return nil, err
	}

	report := &Report{DocumentID: documentID}
	var source *model.Document

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		out := Outcome{Candidate: c, Tier: d.thresholds.Classify(c.Similarity)}

		if relType, ok := out.Tier.RelationType(); ok {
			rel := d.relation(documentID, c.CandidateID, relType, c.Similarity, c.Similarity)
			d.write(ctx, report, &out, rel)
			report.Outcomes = append(report.Outcomes, out)
			continue
		}
		if out.Tier != TierAdjudicate {
			out.Skipped = "below minimum similarity"
			report.Outcomes = append(report.Outcomes, out)
			continue
		}

		if source == nil {
			source, err = d.docs.GetDocument(ctx, documentID)
			if err != nil {
				d.logger.Warn("Failed to load source document", "document_id", documentID, "error", err)
				source = nil
				out.Skipped = "source document unavailable"
				report.Outcomes = append(report.Outcomes, out)
				continue
			}
		}

		target, err := d.docs.GetDocument(ctx, c.CandidateID)
		if err != nil {
			d.logger.Warn("Failed to load candidate document", "document_id", c.CandidateID, "error", err)
			out.Skipped = "candidate document unavailable"
			report.Outcomes = append(report.Outcomes, out)
			continue
		}

		if d.skipUnchanged {
			if existing := d.reusable(ctx, *source, *target, c.Similarity); existing != nil {
				existing.UpdatedAt = d.now()
				out.Reused = true
				d.write(ctx, report, &out, *existing)
				report.Outcomes = append(report.Outcomes, out)
				continue
			}
		}

		report.LLMCalls++
		finding, err := d.adjudicator.Adjudicate(ctx, *source, *target, c.Similarity)
		if err != nil {
			if errors.Is(err, ErrNoDetermination) {
				d.metrics.Adjudication("no_determination")
				d.logger.Warn("Contradiction analysis gave no determination",
					"source_id", documentID,
					"target_id", c.CandidateID,
					"similarity", c.Similarity,
					"error", err)
				out.Skipped = "no determination"
				report.Outcomes = append(report.Outcomes, out)
				continue
			}
			return report, err
		}
		out.Finding = finding

		if err := d.findings.UpsertFinding(ctx, *finding); err != nil {
			d.logger.Warn("Failed to store contradiction finding",
				"source_id", documentID, "target_id", c.CandidateID, "error", err)
		}

		relType := model.RelationNone
		if finding.HasContradiction {
			relType = model.RelationContradiction
		}
		d.metrics.Adjudication(string(relType))

		confidence := c.Similarity
		if finding.LLMSimilarity != nil {
			confidence = *finding.LLMSimilarity
		}
		d.write(ctx, report, &out, d.relation(documentID, c.CandidateID, relType, c.Similarity, confidence))
		report.Outcomes = append(report.Outcomes, out)
	}

	d.logger.Info("Duplicate analysis finished",
		"document_id", documentID,
		"candidates", len(candidates),
		"llm_calls", report.LLMCalls,
		"relations_written", report.Written)
	return report, nil
}

func (d *Detector) relation(sourceID, targetID string, t model.RelationType, similarity, confidence float64) model.DuplicateRelation {
	now := d.now()
	return model.DuplicateRelation{
		ID:              RelationID(sourceID, targetID),
		SourceID:        sourceID,
		TargetID:        targetID,
		Type:            t,
		Confidence:      clamp01(confidence),
		SimilarityScore: clamp01(similarity),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (d *Detector) write(ctx context.Context, report *Report, out *Outcome, rel model.DuplicateRelation) {
	if err := d.relations.UpsertRelation(ctx, rel); err != nil {
		d.logger.Warn("Failed to store relation",
			"source_id", rel.SourceID,
			"target_id", rel.TargetID,
			"type", rel.Type,
			"error", err)
		out.Skipped = fmt.Sprintf("relation not stored: %v", err)
		return
	}
	out.Relation = &rel
	report.Written++
	d.metrics.RelationWritten(string(rel.Type))
}

// reusable returns the stored adjudicated relation for the pair when it is
// still valid for the current inputs.
func (d *Detector) reusable(ctx context.Context, source, target model.Document, similarity float64) *model.DuplicateRelation {
	existing, err := d.relations.GetRelation(ctx, source.ID, target.ID)
	if err != nil || existing == nil {
		return nil
	}
	if existing.Type != model.RelationContradiction && existing.Type != model.RelationNone {
		return nil
	}
	if math.Abs(existing.SimilarityScore-similarity) > 1e-6 {
		return nil
	}
	if source.UpdatedAt.After(existing.UpdatedAt) || target.UpdatedAt.After(existing.UpdatedAt) {
		return nil
	}
	return existing
}

// QuickDuplicates runs the similarity screen alone at the duplicate
// threshold. It never calls the LLM and writes nothing.
func (d *Detector) QuickDuplicates(ctx context.Context, documentID string) ([]model.SimilarityCandidate, error) {
	return d.screener.screen(ctx, documentID, d.quickScore, d.screener.limit)
}

// Relations lists every relation touching documentID, highest similarity first.
func (d *Detector) Relations(ctx context.Context, documentID string) ([]model.DuplicateRelation, error) {
	rels, err := d.relations.ListRelations(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing relations of %s: %w", documentID, err)
	}
	return rels, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
