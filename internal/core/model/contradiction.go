package model

import "time"

type ContradictionDetail struct {
	Type                string              `json:"contradiction_type"`
	Severity            string              `json:"severity"`
	Description         string              `json:"description"`
	SourceExcerpt       string              `json:"source_excerpt"`
	TargetExcerpt       string              `json:"target_excerpt"`
	LegalImpact         string              `json:"legal_impact,omitempty"`
	SuggestedResolution string              `json:"suggested_resolution,omitempty"`
	AffectedReferences  []AffectedReference `json:"affected_references,omitempty"`
}

type AffectedReference struct {
	Type      string `json:"type"`
	Reference string `json:"reference"`
}

// ContradictionAnalysis is the JSON object the adjudication prompt asks for.
type ContradictionAnalysis struct {
	HasContradiction *bool                 `json:"has_contradiction"`
	Contradictions   []ContradictionDetail `json:"contradictions"`
	SimilarityScore  *float64              `json:"similarity_score"`
	OverallSeverity  string                `json:"overall_severity"`
	AnalysisNotes    string                `json:"analysis_notes"`
}

type ContradictionFinding struct {
	SourceID         string                `json:"source_id"`
	TargetID         string                `json:"target_id"`
	HasContradiction bool                  `json:"has_contradiction"`
	Contradictions   []ContradictionDetail `json:"contradictions,omitempty"`
	OverallSeverity  string                `json:"overall_severity,omitempty"`
	AnalysisNotes    string                `json:"analysis_notes,omitempty"`
	SimilarityScore  float64               `json:"similarity_score"`
	LLMSimilarity    *float64              `json:"llm_similarity,omitempty"`
	LLMProvider      string                `json:"llm_provider"`
	LLMModel         string                `json:"llm_model"`
	TokensUsed       int                   `json:"tokens_used"`
	CreatedAt        time.Time             `json:"created_at"`
}

// Primary returns the first reported contradiction, if any.
func (f ContradictionFinding) Primary() (ContradictionDetail, bool) {
	if len(f.Contradictions) == 0 {
		return ContradictionDetail{}, false
	}
	return f.Contradictions[0], true
}
