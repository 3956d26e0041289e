package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/kbguard/internal/core/model"
)

// RelationGraph stores one KB_RELATION edge per unordered document pair.
type RelationGraph struct {
	driver GraphDriver
}

func NewRelationGraph(driver GraphDriver) *RelationGraph {
	return &RelationGraph{driver: driver}
}

func (g *RelationGraph) UpsertRelation(ctx context.Context, rel model.DuplicateRelation) error {
	low, high := model.CanonicalPair(rel.SourceID, rel.TargetID)
	params := map[string]any{
		"id":               rel.ID,
		"low_id":           low,
		"high_id":          high,
		"source_id":        rel.SourceID,
		"target_id":        rel.TargetID,
		"relation_type":    string(rel.Type),
		"confidence":       rel.Confidence,
		"similarity_score": rel.SimilarityScore,
		"created_at":       rel.CreatedAt.UnixMilli(),
		"updated_at":       rel.UpdatedAt.UnixMilli(),
	}
	if _, err := g.driver.ExecuteQuery(ctx, UpsertRelationQuery, params); err != nil {
		return fmt.Errorf("upsert relation %s: %w", model.PairKey(rel.SourceID, rel.TargetID), err)
	}
	return nil
}

func (g *RelationGraph) GetRelation(ctx context.Context, a, b string) (*model.DuplicateRelation, error) {
	low, high := model.CanonicalPair(a, b)
	res, err := g.driver.ExecuteQuery(ctx, GetRelationQuery, map[string]any{"low_id": low, "high_id": high})
	if err != nil {
		return nil, fmt.Errorf("get relation %s: %w", model.PairKey(a, b), err)
	}
	if len(res.Records) == 0 {
		return nil, nil
	}
	rel := relationFromRecord(res.Records[0])
	return &rel, nil
}

func (g *RelationGraph) ListRelations(ctx context.Context, documentID string) ([]model.DuplicateRelation, error) {
	res, err := g.driver.ExecuteQuery(ctx, ListRelationsQuery, map[string]any{"id": documentID})
	if err != nil {
		return nil, fmt.Errorf("list relations of %s: %w", documentID, err)
	}
	out := make([]model.DuplicateRelation, 0, len(res.Records))
	for _, rec := range res.Records {
		out = append(out, relationFromRecord(rec))
	}
	return out, nil
}

// DeleteDocument removes a document node together with its relations.
func (g *RelationGraph) DeleteDocument(ctx context.Context, id string) error {
	if _, err := g.driver.ExecuteQuery(ctx, DeleteDocumentQuery, map[string]any{"id": id}); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

func relationFromRecord(rec *neo4j.Record) model.DuplicateRelation {
	return model.DuplicateRelation{
		ID:              stringValue(rec, "id"),
		SourceID:        stringValue(rec, "source_id"),
		TargetID:        stringValue(rec, "target_id"),
		Type:            model.RelationType(stringValue(rec, "relation_type")),
		Confidence:      floatValue(rec, "confidence"),
		SimilarityScore: floatValue(rec, "similarity_score"),
		CreatedAt:       timeValue(rec, "created_at"),
		UpdatedAt:       timeValue(rec, "updated_at"),
	}
}

func stringValue(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func floatValue(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func timeValue(rec *neo4j.Record, key string) time.Time {
	v, _ := rec.Get(key)
	switch t := v.(type) {
	case int64:
		return time.UnixMilli(t).UTC()
	case time.Time:
		return t.UTC()
	}
	return time.Time{}
}
