//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/kbguard/internal/core/abrogation"
	"github.com/agenthands/kbguard/internal/core/dedupe"
	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/driver"
	"github.com/agenthands/kbguard/internal/llm"
	"github.com/agenthands/kbguard/internal/store"
)

// scriptedProvider answers every prompt with the same contradiction verdict.
type scriptedProvider struct {
	calls int
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted-1" }

func (p *scriptedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.calls++
	return &llm.Response{
		Content: "```json\n" + `{
			"has_contradiction": true,
			"contradictions": [{
				"contradiction_type": "value_conflict",
				"severity": "high",
				"description": "Le délai de préavis diffère (30 jours contre 60 jours).",
				"source_excerpt": "30 jours",
				"target_excerpt": "60 jours"
			}],
			"similarity_score": 0.78,
			"overall_severity": "high",
			"analysis_notes": "",
		}` + "\n```",
		Provider:   p.Name(),
		Model:      p.Model(),
		TokensUsed: 321,
	}, nil
}

func TestDuplicatePipelineEndToEnd(t *testing.T) {
	s := openStore(t)
	g := openGraph(t)
	ctx := context.Background()
	b := newBasis()

	src := model.Document{ID: uniqueID("src"), Title: "Préavis de licenciement", Content: "Le préavis est de 30 jours.", Embedding: b.at(1), Indexed: true}
	dup := model.Document{ID: uniqueID("dup"), Title: "Préavis (copie)", Content: "Le préavis est de 30 jours.", Embedding: b.at(0.97), Indexed: true}
	adj := model.Document{ID: uniqueID("adj"), Title: "Préavis (ancienne version)", Content: "Le préavis est de 60 jours.", Embedding: b.at(0.80), Indexed: true}
	for _, d := range []model.Document{src, dup, adj} {
		require.NoError(t, s.UpsertDocument(ctx, d))
	}

	relations := driver.NewRelationGraph(g)
	t.Cleanup(func() {
		for _, d := range []model.Document{src, dup, adj} {
			_ = relations.DeleteDocument(context.Background(), d.ID)
		}
	})

	provider := &scriptedProvider{}
	chain := llm.NewChain([]llm.Provider{provider})
	det := dedupe.NewDetector(
		dedupe.NewScreener(s, dedupe.DefaultMinSimilarity, dedupe.DefaultMaxCandidates),
		dedupe.NewAdjudicator(chain, 3000, nil),
		s, relations, s,
	)

	report, err := det.DetectDuplicatesAndContradictions(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.LLMCalls)
	assert.Equal(t, 2, report.Written)

	// Analyzing from the other side of the pair rewrites the same relation.
	_, err = det.DetectDuplicatesAndContradictions(ctx, adj.ID)
	require.NoError(t, err)

	rels, err := det.Relations(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, model.RelationDuplicate, rels[0].Type)
	assert.Equal(t, model.RelationContradiction, rels[1].Type)
	assert.InDelta(t, 0.78, rels[1].Confidence, 1e-9)

	findings, err := s.ListFindings(ctx, adj.ID)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "scripted", findings[0].LLMProvider)
	assert.Equal(t, 321, findings[0].TokensUsed)
}

func TestAbrogationPipelineEndToEnd(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	items, err := store.ParseSeedFile("../../config/seed/abrogations.yaml")
	require.NoError(t, err)
	_, err = store.Seed(ctx, s, items)
	require.NoError(t, err)

	det := abrogation.NewDetector(abrogation.NewSearcher(s, 3, nil))
	alerts, err := det.DetectAbrogations(ctx, "Selon la Loi n°2005-95, le fonds de garantie couvre ce crédit.", abrogation.Options{})
	require.NoError(t, err)
	require.NotEmpty(t, alerts)
	assert.Equal(t, model.ScopePartial, alerts[0].Abrogation.Scope)
	assert.Contains(t, alerts[0].Message, "Loi n°2005-95")
}
