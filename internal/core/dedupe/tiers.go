package dedupe

import "github.com/agenthands/kbguard/internal/core/model"

type Tier string

const (
	// TierDiscard is below the minimum similarity; the screener never
	// returns such candidates.
	TierDiscard       Tier = "discard"
	TierAdjudicate    Tier = "adjudicate"
	TierNearDuplicate Tier = "near_duplicate"
	TierDuplicate     Tier = "duplicate"
)

const (
	DefaultMinSimilarity           = 0.75
	DefaultMaxCandidates           = 5
	DefaultDuplicateThreshold      = 0.85
	DefaultExactDuplicateThreshold = 0.95
	DefaultQuickThreshold          = 0.85
)

// Thresholds partition similarity scores:
//
//	[Exact, 1]        duplicate
//	[Duplicate, Exact) near_duplicate
//	[Min, Duplicate)  LLM adjudication
//	[0, Min)          discarded
type Thresholds struct {
	Min       float64
	Duplicate float64
	Exact     float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Min:       DefaultMinSimilarity,
		Duplicate: DefaultDuplicateThreshold,
		Exact:     DefaultExactDuplicateThreshold,
	}
}

func (t Thresholds) Classify(score float64) Tier {
	switch {
	case score >= t.Exact:
		return TierDuplicate
	case score >= t.Duplicate:
		return TierNearDuplicate
	case score >= t.Min:
		return TierAdjudicate
	default:
		return TierDiscard
	}
}

// RelationType is the label assigned without LLM help, if any.
func (tier Tier) RelationType() (model.RelationType, bool) {
	switch tier {
	case TierDuplicate:
		return model.RelationDuplicate, true
	case TierNearDuplicate:
		return model.RelationNearDuplicate, true
	default:
		return "", false
	}
}
