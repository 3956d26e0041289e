package dedupe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agenthands/kbguard/internal/core/common"
	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/llm"
)

// ErrNoDetermination means the pair could not be judged: every provider
// failed or the answer was unusable. Nothing is written for such a pair.
var ErrNoDetermination = errors.New("no determination")

const DefaultMaxContentChars = 3000

// Adjudicator asks the LLM chain whether two similar documents contradict
// each other.
type Adjudicator struct {
	llm      llm.Generator
	maxChars int
	logger   *slog.Logger
}

func NewAdjudicator(gen llm.Generator, maxChars int, logger *slog.Logger) *Adjudicator {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adjudicator{llm: gen, maxChars: maxChars, logger: logger}
}

// Adjudicate returns the finding for (source, target). Errors wrap
// ErrNoDetermination unless ctx was cancelled.
func (a *Adjudicator) Adjudicate(ctx context.Context, source, target model.Document, similarity float64) (*model.ContradictionFinding, error) {
	req := llm.Request{
		System:      contradictionSystemPrompt,
		Prompt:      a.buildPrompt(source, target),
		Temperature: 0.1,
		MaxTokens:   2000,
		JSON:        true,
	}

	resp, err := a.llm.Generate(ctx, llm.ContextQualityAnalysis, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrNoDetermination, err)
	}

	analysis, err := common.ParseJSON[model.ContradictionAnalysis](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable answer from %s: %w", ErrNoDetermination, resp.Provider, err)
	}
	if analysis.HasContradiction == nil {
		return nil, fmt.Errorf("%w: answer from %s lacks has_contradiction", ErrNoDetermination, resp.Provider)
	}

	finding := &model.ContradictionFinding{
		SourceID:         source.ID,
		TargetID:         target.ID,
		HasContradiction: *analysis.HasContradiction,
		Contradictions:   analysis.Contradictions,
		OverallSeverity:  analysis.OverallSeverity,
		AnalysisNotes:    analysis.AnalysisNotes,
		SimilarityScore:  similarity,
		LLMProvider:      resp.Provider,
		LLMModel:         resp.Model,
		TokensUsed:       resp.TokensUsed,
		CreatedAt:        time.Now().UTC(),
	}
	if s := analysis.SimilarityScore; s != nil && *s >= 0 && *s <= 1 {
		finding.LLMSimilarity = s
	}
	return finding, nil
}

func (a *Adjudicator) buildPrompt(source, target model.Document) string {
	return fmt.Sprintf(contradictionUserPrompt,
		"kb://"+source.ID, source.Title, promptDate(source.CreatedAt), common.Truncate(source.Content, a.maxChars),
		"kb://"+target.ID, target.Title, promptDate(target.CreatedAt), common.Truncate(target.Content, a.maxChars),
	)
}

func promptDate(t time.Time) string {
	if t.IsZero() {
		return "Inconnue"
	}
	return t.Format("2006-01-02")
}
