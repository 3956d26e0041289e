package dedupe

import (
	"context"
	"fmt"
	"sort"

	"github.com/agenthands/kbguard/internal/core/model"
)

const DefaultMaxClusterSize = 50

// Cluster is the set of documents connected to a seed document through
// duplicate-family relations.
type Cluster struct {
	DocumentID string                    `json:"document_id"`
	Members    []string                  `json:"members"`
	Relations  []model.DuplicateRelation `json:"relations"`
	Truncated  bool                      `json:"truncated,omitempty"`
}

// DuplicateCluster is ExpandCluster over the detector's relation store.
func (d *Detector) DuplicateCluster(ctx context.Context, documentID string, maxSize int) (*Cluster, error) {
	return ExpandCluster(ctx, d.relations, documentID, maxSize)
}

// ExpandCluster walks duplicate and near-duplicate relations outward from
// documentID, breadth first, until no new document is reached or maxSize
// members are collected. Contradiction and none relations do not connect
// documents.
func ExpandCluster(ctx context.Context, relations RelationStore, documentID string, maxSize int) (*Cluster, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxClusterSize
	}

	c := &Cluster{DocumentID: documentID}
	visited := map[string]bool{documentID: true}
	found := make(map[string]model.DuplicateRelation)
	queue := []string{documentID}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := queue[0]
		queue = queue[1:]

		rels, err := relations.ListRelations(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("expanding cluster at %s: %w", current, err)
		}
		for _, r := range rels {
			if !r.Type.IsDuplicateFamily() {
				continue
			}
			found[model.PairKey(r.SourceID, r.TargetID)] = r

			next := r.TargetID
			if next == current {
				next = r.SourceID
			}
			if visited[next] {
				continue
			}
			if len(visited) >= maxSize {
				c.Truncated = true
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	for id := range visited {
		c.Members = append(c.Members, id)
	}
	sort.Strings(c.Members)

	// A truncated walk saw edges to documents it did not admit.
	for _, r := range found {
		if visited[r.SourceID] && visited[r.TargetID] {
			c.Relations = append(c.Relations, r)
		}
	}
	sort.Slice(c.Relations, func(i, j int) bool {
		if c.Relations[i].SimilarityScore != c.Relations[j].SimilarityScore {
			return c.Relations[i].SimilarityScore > c.Relations[j].SimilarityScore
		}
		return model.PairKey(c.Relations[i].SourceID, c.Relations[i].TargetID) <
			model.PairKey(c.Relations[j].SourceID, c.Relations[j].TargetID)
	})
	return c, nil
}
