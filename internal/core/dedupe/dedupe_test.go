package dedupe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/llm"
)

const contradictionJSON = `{
	"has_contradiction": true,
	"contradictions": [{
		"contradiction_type": "date_conflict",
		"severity": "high",
		"description": "Dates d'entrée en vigueur différentes",
		"source_excerpt": "en vigueur le 1er janvier 2017",
		"target_excerpt": "en vigueur le 1er juillet 2017",
		"legal_impact": null,
		"suggested_resolution": "Vérifier au JORT",
		"affected_references": [{"type": "law", "reference": "loi n° 2016-36"}]
	}],
	"similarity_score": 0.78,
	"overall_severity": "high",
	"analysis_notes": "Deux versions du même commentaire"
}`

type fixture struct {
	index     *MockIndex
	docs      *MockDocs
	relations *MockRelations
	findings  *MockFindings
	gen       *MockGenerator
	detector  *Detector
}

func newFixture(candidates []model.SimilarityCandidate, opts ...Option) *fixture {
	docs := &MockDocs{Docs: map[string]model.Document{
		"src": {ID: "src", Title: "Faillite et redressement", Content: "La loi n° 2016-36 est en vigueur le 1er janvier 2017.", CreatedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}}
	for _, c := range candidates {
		docs.Docs[c.CandidateID] = model.Document{ID: c.CandidateID, Title: "Doc " + c.CandidateID, Content: "Texte " + c.CandidateID}
	}

	f := &fixture{
		index:     &MockIndex{Candidates: candidates},
		docs:      docs,
		relations: NewMockRelations(),
		findings:  &MockFindings{},
		gen:       &MockGenerator{ByTarget: map[string]string{}},
	}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.detector = NewDetector(
		NewScreener(f.index, 0.75, 5),
		NewAdjudicator(f.gen, 3000, nil),
		f.docs, f.relations, f.findings, opts...,
	)
	f.detector.now = func() time.Time { return fixed }
	return f
}

func candidates(scores ...float64) []model.SimilarityCandidate {
	out := make([]model.SimilarityCandidate, len(scores))
	for i, s := range scores {
		out[i] = model.SimilarityCandidate{CandidateID: fmt.Sprintf("doc-%d", i+1), Similarity: s}
	}
	return out
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		score float64
		want  Tier
	}{
		{1.0, TierDuplicate},
		{0.95, TierDuplicate},
		{0.9499, TierNearDuplicate},
		{0.85, TierNearDuplicate},
		{0.8499, TierAdjudicate},
		{0.75, TierAdjudicate},
		{0.7499, TierDiscard},
		{0.1, TierDiscard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.score), "score %v", tt.score)
	}
}

func TestDetectMixedTiers(t *testing.T) {
	f := newFixture(candidates(0.98, 0.90, 0.80, 0.76))
	f.gen.ByTarget["doc-3"] = contradictionJSON

	report, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)

	assert.Equal(t, 2, report.LLMCalls)
	assert.Len(t, f.gen.Usages, 2)
	for _, u := range f.gen.Usages {
		assert.Equal(t, llm.ContextQualityAnalysis, u)
	}
	assert.Equal(t, 4, report.Written)
	require.Len(t, f.relations.Rels, 4)

	typeOf := func(id string) model.RelationType { return f.relations.Rels[model.PairKey("src", id)].Type }
	assert.Equal(t, model.RelationDuplicate, typeOf("doc-1"))
	assert.Equal(t, model.RelationNearDuplicate, typeOf("doc-2"))
	assert.Equal(t, model.RelationContradiction, typeOf("doc-3"))
	assert.Equal(t, model.RelationNone, typeOf("doc-4"))

	assert.InDelta(t, 0.78, f.relations.Rels[model.PairKey("src", "doc-3")].Confidence, 1e-9)
	assert.InDelta(t, 0.80, f.relations.Rels[model.PairKey("src", "doc-3")].SimilarityScore, 1e-9)

	require.Len(t, f.findings.Findings, 2, "a finding is stored even without contradiction")
	assert.True(t, f.findings.Findings[0].HasContradiction)
	assert.Equal(t, "deepseek", f.findings.Findings[0].LLMProvider)
	assert.Equal(t, "deepseek-chat", f.findings.Findings[0].LLMModel)
	detail, ok := f.findings.Findings[0].Primary()
	require.True(t, ok)
	assert.Equal(t, "date_conflict", detail.Type)
	assert.Equal(t, "loi n° 2016-36", detail.AffectedReferences[0].Reference)
	assert.False(t, f.findings.Findings[1].HasContradiction)
}

func TestHighTierNeverCallsLLM(t *testing.T) {
	f := newFixture(candidates(0.99, 0.96, 0.91, 0.87, 0.85))

	report, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Zero(t, report.LLMCalls)
	assert.Empty(t, f.gen.Usages)
	for _, rel := range f.relations.Rels {
		assert.True(t, rel.Type.IsDuplicateFamily())
	}
}

func TestScreenerEnforcesBounds(t *testing.T) {
	f := newFixture([]model.SimilarityCandidate{
		{CandidateID: "a", Similarity: 0.80},
		{CandidateID: "src", Similarity: 1.0},
		{CandidateID: "b", Similarity: 0.70},
		{CandidateID: "c", Similarity: 0.99},
		{CandidateID: "d", Similarity: 0.90},
		{CandidateID: "e", Similarity: 0.88},
		{CandidateID: "f", Similarity: 0.86},
		{CandidateID: "g", Similarity: 0.77},
		{CandidateID: "a", Similarity: 0.80},
	})

	got, err := f.detector.screener.Screen(context.Background(), "src")
	require.NoError(t, err)

	assert.Equal(t, []float64{0.75}, f.index.MinScores)
	assert.Equal(t, []int{5}, f.index.Limits)
	require.Len(t, got, 5)
	ids := make([]string, len(got))
	for i, c := range got {
		ids[i] = c.CandidateID
		assert.GreaterOrEqual(t, c.Similarity, 0.75)
		assert.Equal(t, "src", c.SourceID)
	}
	assert.Equal(t, []string{"c", "d", "e", "f", "a"}, ids)
}

func TestScreenerDropsNaNScores(t *testing.T) {
	f := newFixture([]model.SimilarityCandidate{
		{CandidateID: "zero", Similarity: math.NaN()},
		{CandidateID: "a", Similarity: 0.80},
	})

	got, err := f.detector.screener.Screen(context.Background(), "src")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].CandidateID)
}

func TestNoDeterminationWritesNothing(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"chain exhausted", "", fmt.Errorf("%w: deepseek: 503", llm.ErrChainExhausted)},
		{"malformed json", "Je ne peux pas répondre.", nil},
		{"missing verdict", `{"contradictions": []}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(candidates(0.90, 0.80))
			f.gen.Err = tt.err
			f.gen.ByTarget["doc-2"] = tt.response

			report, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
			require.NoError(t, err)

			assert.Equal(t, 1, report.LLMCalls)
			assert.Len(t, f.relations.Rels, 1)
			_, written := f.relations.Rels[model.PairKey("src", "doc-2")]
			assert.False(t, written)
			assert.Empty(t, f.findings.Findings)
			assert.Equal(t, "no determination", report.Outcomes[1].Skipped)
		})
	}
}

func TestDetectIsIdempotent(t *testing.T) {
	f := newFixture(candidates(0.98, 0.90, 0.80, 0.76))
	f.gen.ByTarget["doc-3"] = contradictionJSON

	_, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	first := make(map[string]model.DuplicateRelation, len(f.relations.Rels))
	for k, v := range f.relations.Rels {
		first[k] = v
	}

	_, err = f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, first, f.relations.Rels)
	assert.Equal(t, 8, f.relations.Upserts)
}

func TestRelationIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, RelationID("a", "b"), RelationID("b", "a"))
	assert.NotEqual(t, RelationID("a", "b"), RelationID("a", "c"))
}

func TestSkipUnchangedReusesAdjudication(t *testing.T) {
	f := newFixture(candidates(0.80), WithSkipUnchanged(true))
	f.gen.ByTarget["doc-1"] = contradictionJSON

	report, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, 1, report.LLMCalls)

	report, err = f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Zero(t, report.LLMCalls)
	assert.True(t, report.Outcomes[0].Reused)
	assert.Equal(t, model.RelationContradiction, f.relations.Rels[model.PairKey("src", "doc-1")].Type)

	doc := f.docs.Docs["doc-1"]
	doc.UpdatedAt = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	f.docs.Docs["doc-1"] = doc
	report, err = f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, 1, report.LLMCalls, "an edited document is analysed again")
}

func TestScreenFailureIsReturned(t *testing.T) {
	f := newFixture(nil)
	f.index.Err = errors.New("connection refused")

	_, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	assert.ErrorContains(t, err, "connection refused")
}

func TestNoCandidates(t *testing.T) {
	f := newFixture(nil)
	report, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, f.relations.Rels)
}

func TestStoreFailureSkipsCandidate(t *testing.T) {
	f := newFixture(candidates(0.97, 0.88))
	f.relations.Err = errors.New("bolt: connection reset")

	report, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Zero(t, report.Written)
	require.Len(t, report.Outcomes, 2)
	assert.Contains(t, report.Outcomes[1].Skipped, "connection reset")
}

func TestMissingCandidateDocumentIsSkipped(t *testing.T) {
	f := newFixture(candidates(0.80, 0.78))
	delete(f.docs.Docs, "doc-1")

	report, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)
	assert.Equal(t, 1, report.LLMCalls)
	assert.Equal(t, "candidate document unavailable", report.Outcomes[0].Skipped)
	assert.Len(t, f.relations.Rels, 1)
}

func TestQuickDuplicates(t *testing.T) {
	f := newFixture(candidates(0.97, 0.86, 0.80))

	got, err := f.detector.QuickDuplicates(context.Background(), "src")
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []float64{0.85}, f.index.MinScores)
	assert.Empty(t, f.gen.Usages)
	assert.Empty(t, f.relations.Rels)
}

func TestRelations(t *testing.T) {
	f := newFixture(candidates(0.97, 0.86))
	_, err := f.detector.DetectDuplicatesAndContradictions(context.Background(), "src")
	require.NoError(t, err)

	rels, err := f.detector.Relations(context.Background(), "doc-2")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, model.RelationNearDuplicate, rels[0].Type)
}

func TestAdjudicatorPrompt(t *testing.T) {
	gen := &MockGenerator{ByTarget: map[string]string{"b": `{"has_contradiction": false, "similarity_score": 1.7}`}}
	a := NewAdjudicator(gen, 20, nil)

	source := model.Document{ID: "a", Title: "Source", Content: strings.Repeat("mot ", 50), CreatedAt: time.Date(2023, 4, 9, 10, 0, 0, 0, time.UTC)}
	target := model.Document{ID: "b", Title: "Cible", Content: "court"}

	finding, err := a.Adjudicate(context.Background(), source, target, 0.8)
	require.NoError(t, err)
	assert.False(t, finding.HasContradiction)
	assert.Nil(t, finding.LLMSimilarity, "out of range estimates are dropped")

	prompt := gen.Prompts[0]
	assert.Contains(t, prompt, "URL: kb://a\nTitre: Source\nDate: 2023-04-09")
	assert.Contains(t, prompt, "URL: kb://b\nTitre: Cible\nDate: Inconnue")
	assert.Contains(t, prompt, "[... contenu tronqué ...]")
	assert.NotContains(t, prompt, strings.Repeat("mot ", 10))
}

func TestAdjudicatorPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &MockGenerator{Err: context.Canceled}

	_, err := NewAdjudicator(gen, 0, nil).Adjudicate(ctx, model.Document{ID: "a"}, model.Document{ID: "b"}, 0.8)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNoDetermination)
}
