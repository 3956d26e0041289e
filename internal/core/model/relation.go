package model

import "time"

type RelationType string

const (
	RelationDuplicate     RelationType = "duplicate"
	RelationNearDuplicate RelationType = "near_duplicate"
	RelationContradiction RelationType = "contradiction"
	RelationNone          RelationType = "none"
)

// IsDuplicateFamily reports whether t was assigned from the similarity score alone.
func (t RelationType) IsDuplicateFamily() bool {
	return t == RelationDuplicate || t == RelationNearDuplicate
}

type DuplicateRelation struct {
	ID              string       `json:"id"`
	SourceID        string       `json:"source_id"`
	TargetID        string       `json:"target_id"`
	Type            RelationType `json:"relation_type"`
	Confidence      float64      `json:"confidence"`
	SimilarityScore float64      `json:"similarity_score"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// CanonicalPair orders two document ids so that an unordered pair always
// maps to the same key.
func CanonicalPair(a, b string) (low, high string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// PairKey is the storage key of the unordered pair {a, b}.
func PairKey(a, b string) string {
	low, high := CanonicalPair(a, b)
	return low + ":" + high
}
