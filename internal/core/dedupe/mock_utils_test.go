package dedupe

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/agenthands/kbguard/internal/core/model"
	"github.com/agenthands/kbguard/internal/llm"
)

var errNotFound = errors.New("not found")

type MockIndex struct {
	Candidates []model.SimilarityCandidate
	Err        error
	MinScores  []float64
	Limits     []int
}

func (m *MockIndex) FindSimilar(ctx context.Context, documentID string, minScore float64, limit int) ([]model.SimilarityCandidate, error) {
	m.MinScores = append(m.MinScores, minScore)
	m.Limits = append(m.Limits, limit)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Candidates, nil
}

type MockDocs struct {
	Docs map[string]model.Document
}

func (m *MockDocs) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	d, ok := m.Docs[id]
	if !ok {
		return nil, errNotFound
	}
	return &d, nil
}

type MockRelations struct {
	Rels    map[string]model.DuplicateRelation
	Err     error
	Upserts int
}

func NewMockRelations() *MockRelations {
	return &MockRelations{Rels: make(map[string]model.DuplicateRelation)}
}

func (m *MockRelations) UpsertRelation(ctx context.Context, rel model.DuplicateRelation) error {
	if m.Err != nil {
		return m.Err
	}
	m.Upserts++
	m.Rels[model.PairKey(rel.SourceID, rel.TargetID)] = rel
	return nil
}

func (m *MockRelations) GetRelation(ctx context.Context, a, b string) (*model.DuplicateRelation, error) {
	rel, ok := m.Rels[model.PairKey(a, b)]
	if !ok {
		return nil, nil
	}
	return &rel, nil
}

func (m *MockRelations) ListRelations(ctx context.Context, documentID string) ([]model.DuplicateRelation, error) {
	var out []model.DuplicateRelation
	for _, r := range m.Rels {
		if r.SourceID == documentID || r.TargetID == documentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SimilarityScore > out[j].SimilarityScore })
	return out, nil
}

type MockFindings struct {
	Findings []model.ContradictionFinding
}

func (m *MockFindings) UpsertFinding(ctx context.Context, f model.ContradictionFinding) error {
	m.Findings = append(m.Findings, f)
	return nil
}

// MockGenerator answers with the response registered for the first
// document URL found in the prompt's target section.
type MockGenerator struct {
	ByTarget map[string]string
	Err      error
	Usages   []string
	Prompts  []string
}

func (m *MockGenerator) Generate(ctx context.Context, usage string, req llm.Request) (*llm.Response, error) {
	m.Usages = append(m.Usages, usage)
	m.Prompts = append(m.Prompts, req.Prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	target := req.Prompt[strings.Index(req.Prompt, "=== TEXTE CIBLE ==="):]
	for id, resp := range m.ByTarget {
		if strings.Contains(target, "kb://"+id+"\n") {
			return &llm.Response{Content: resp, Provider: "deepseek", Model: "deepseek-chat", TokensUsed: 321}, nil
		}
	}
	return &llm.Response{Content: `{"has_contradiction": false}`, Provider: "deepseek", Model: "deepseek-chat"}, nil
}
