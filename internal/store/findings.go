package store

import (
	"context"
	"fmt"

	"github.com/agenthands/kbguard/internal/core/model"
)

const upsertFindingQuery = `
	INSERT INTO kb_contradiction_findings (
		pair_key, source_id, target_id, has_contradiction, contradictions,
		overall_severity, analysis_notes, similarity_score, llm_similarity,
		llm_provider, llm_model, tokens_used, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (pair_key) DO UPDATE SET
		source_id = EXCLUDED.source_id,
		target_id = EXCLUDED.target_id,
		has_contradiction = EXCLUDED.has_contradiction,
		contradictions = EXCLUDED.contradictions,
		overall_severity = EXCLUDED.overall_severity,
		analysis_notes = EXCLUDED.analysis_notes,
		similarity_score = EXCLUDED.similarity_score,
		llm_similarity = EXCLUDED.llm_similarity,
		llm_provider = EXCLUDED.llm_provider,
		llm_model = EXCLUDED.llm_model,
		tokens_used = EXCLUDED.tokens_used,
		created_at = EXCLUDED.created_at`

const listFindingsQuery = `
	SELECT source_id, target_id, has_contradiction, contradictions, overall_severity,
		analysis_notes, similarity_score, llm_similarity, llm_provider, llm_model,
		tokens_used, created_at
	FROM kb_contradiction_findings
	WHERE source_id = $1 OR target_id = $1
	ORDER BY similarity_score DESC`

// UpsertFinding keeps the latest analysis of an unordered pair.
func (s *Store) UpsertFinding(ctx context.Context, f model.ContradictionFinding) error {
	contradictions := f.Contradictions
	if contradictions == nil {
		contradictions = []model.ContradictionDetail{}
	}
	_, err := s.pool.Exec(ctx, upsertFindingQuery,
		model.PairKey(f.SourceID, f.TargetID), f.SourceID, f.TargetID, f.HasContradiction,
		contradictions, f.OverallSeverity, f.AnalysisNotes, f.SimilarityScore, f.LLMSimilarity,
		f.LLMProvider, f.LLMModel, f.TokensUsed, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert finding %s: %w", model.PairKey(f.SourceID, f.TargetID), err)
	}
	return nil
}

func (s *Store) ListFindings(ctx context.Context, documentID string) ([]model.ContradictionFinding, error) {
	rows, err := s.pool.Query(ctx, listFindingsQuery, documentID)
	if err != nil {
		return nil, fmt.Errorf("list findings of %s: %w", documentID, err)
	}
	defer rows.Close()

	var out []model.ContradictionFinding
	for rows.Next() {
		var f model.ContradictionFinding
		if err := rows.Scan(
			&f.SourceID, &f.TargetID, &f.HasContradiction, &f.Contradictions, &f.OverallSeverity,
			&f.AnalysisNotes, &f.SimilarityScore, &f.LLMSimilarity, &f.LLMProvider, &f.LLMModel,
			&f.TokensUsed, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
