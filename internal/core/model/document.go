package model

import "time"

// Document is a knowledge-base entry as written by the ingestion pipeline.
type Document struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Content      string    `json:"content"`
	Embedding    []float32 `json:"embedding,omitempty"`
	QualityScore *float64  `json:"quality_score,omitempty"`
	Indexed      bool      `json:"indexed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type SimilarityCandidate struct {
	SourceID    string  `json:"source_id"`
	CandidateID string  `json:"candidate_id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Similarity  float64 `json:"similarity"`
}
