package dedupe

import (
	"context"
	"fmt"
	"sort"

	"github.com/agenthands/kbguard/internal/core/model"
)

// SimilarityIndex runs the vector similarity query over document embeddings.
type SimilarityIndex interface {
	FindSimilar(ctx context.Context, documentID string, minScore float64, limit int) ([]model.SimilarityCandidate, error)
}

// Screener returns the nearest neighbours of a document above a minimum
// score. The bounds are enforced here as well as in the index query, so a
// misbehaving index can never push extra or low-score candidates further.
type Screener struct {
	index    SimilarityIndex
	minScore float64
	limit    int
}

func NewScreener(index SimilarityIndex, minScore float64, limit int) *Screener {
	if minScore <= 0 {
		minScore = DefaultMinSimilarity
	}
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	return &Screener{index: index, minScore: minScore, limit: limit}
}

func (s *Screener) Screen(ctx context.Context, documentID string) ([]model.SimilarityCandidate, error) {
	return s.screen(ctx, documentID, s.minScore, s.limit)
}

func (s *Screener) screen(ctx context.Context, documentID string, minScore float64, limit int) ([]model.SimilarityCandidate, error) {
	found, err := s.index.FindSimilar(ctx, documentID, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query for %s: %w", documentID, err)
	}

	out := make([]model.SimilarityCandidate, 0, len(found))
	seen := make(map[string]bool, len(found))
	for _, c := range found {
		if c.CandidateID == documentID || seen[c.CandidateID] {
			continue
		}
		// Written so NaN scores are rejected.
		if !(c.Similarity >= minScore) {
			continue
		}
		if c.Similarity > 1 {
			c.Similarity = 1
		}
		seen[c.CandidateID] = true
		c.SourceID = documentID
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
