// Package abrogation matches cited legal references against the registry of
// repealed texts and turns the matches into user-facing alerts.
package abrogation

import (
	"context"
	"log/slog"
	"sort"

	"github.com/agenthands/kbguard/internal/core/model"
)

// DefaultPerReferenceLimit caps registry matches kept for one reference.
const DefaultPerReferenceLimit = 3

// Registry is the fuzzy-searchable store of abrogations.
type Registry interface {
	FindAbrogations(ctx context.Context, reference string, threshold float64, limit int) ([]model.Abrogation, error)
}

type Searcher struct {
	registry Registry
	limit    int
	logger   *slog.Logger
}

func NewSearcher(registry Registry, limit int, logger *slog.Logger) *Searcher {
	if limit <= 0 {
		limit = DefaultPerReferenceLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{registry: registry, limit: limit, logger: logger}
}

// Search queries the registry once per reference and merges the results:
// one entry per abrogation id (first occurrence kept), ordered by similarity
// descending. A failed query is logged and skipped.
func (s *Searcher) Search(ctx context.Context, refs []model.LegalReference, threshold float64) []model.Abrogation {
	seen := make(map[string]bool)
	var merged []model.Abrogation

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		found, err := s.registry.FindAbrogations(ctx, ref.Text, threshold, s.limit)
		if err != nil {
			s.logger.Warn("Abrogation search failed", "reference", ref.Text, "error", err)
			continue
		}
		if len(found) > s.limit {
			found = found[:s.limit]
		}
		for _, a := range found {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			merged = append(merged, a)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SimilarityScore > merged[j].SimilarityScore
	})
	return merged
}
