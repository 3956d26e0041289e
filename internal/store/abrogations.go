package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthands/kbguard/internal/core/model"
)

const abrogationColumns = `id, abrogated_reference, abrogated_reference_ar, abrogating_reference,
	abrogating_reference_ar, abrogation_date, scope, affected_articles, jort_url, source_url,
	notes, domain, verified, confidence, verification_status`

// Citations are short while registry entries carry dates and titles, so
// the score is the trigram word similarity of the citation inside the French
// or the Arabic reference.
const findAbrogationsQuery = `
	SELECT ` + abrogationColumns + `, score
	FROM (
		SELECT *, GREATEST(
			word_similarity($1, abrogated_reference),
			word_similarity($1, abrogated_reference_ar)
		)::float8 AS score
		FROM legal_abrogations
	) ranked
	WHERE score >= $2
	ORDER BY score DESC
	LIMIT $3`

const upsertAbrogationQuery = `
	INSERT INTO legal_abrogations (` + abrogationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (abrogated_reference, abrogating_reference) DO UPDATE SET
		abrogated_reference_ar = EXCLUDED.abrogated_reference_ar,
		abrogating_reference_ar = EXCLUDED.abrogating_reference_ar,
		abrogation_date = EXCLUDED.abrogation_date,
		scope = EXCLUDED.scope,
		affected_articles = EXCLUDED.affected_articles,
		jort_url = EXCLUDED.jort_url,
		source_url = EXCLUDED.source_url,
		notes = EXCLUDED.notes,
		domain = EXCLUDED.domain,
		verified = EXCLUDED.verified,
		confidence = EXCLUDED.confidence,
		verification_status = EXCLUDED.verification_status,
		updated_at = NOW()
	RETURNING (xmax = 0) AS inserted`

func (s *Store) FindAbrogations(ctx context.Context, reference string, threshold float64, limit int) ([]model.Abrogation, error) {
	rows, err := s.pool.Query(ctx, findAbrogationsQuery, reference, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("find abrogations for %q: %w", reference, err)
	}
	defer rows.Close()

	var out []model.Abrogation
	for rows.Next() {
		var a model.Abrogation
		if err := rows.Scan(
			&a.ID, &a.AbrogatedReference, &a.AbrogatedReferenceAr, &a.AbrogatingReference,
			&a.AbrogatingReferenceAr, &a.AbrogationDate, &a.Scope, &a.AffectedArticles, &a.JORTURL,
			&a.SourceURL, &a.Notes, &a.Domain, &a.Verified, &a.Confidence, &a.VerificationStatus,
			&a.SimilarityScore,
		); err != nil {
			return nil, fmt.Errorf("scan abrogation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpsertAbrogation writes a registry entry keyed by its (abrogated,
// abrogating) pair and reports whether a new row was created.
func (s *Store) UpsertAbrogation(ctx context.Context, a model.Abrogation) (bool, error) {
	a = normalizeAbrogation(a)
	var inserted bool
	err := s.pool.QueryRow(ctx, upsertAbrogationQuery,
		a.ID, a.AbrogatedReference, a.AbrogatedReferenceAr, a.AbrogatingReference,
		a.AbrogatingReferenceAr, a.AbrogationDate, a.Scope, a.AffectedArticles, a.JORTURL,
		a.SourceURL, a.Notes, a.Domain, a.Verified, a.Confidence, a.VerificationStatus,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert abrogation %q: %w", a.AbrogatedReference, err)
	}
	return inserted, nil
}

// normalizeAbrogation fills the registry defaults for fields a seed file
// may leave out.
func normalizeAbrogation(a model.Abrogation) model.Abrogation {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AffectedArticles == nil {
		a.AffectedArticles = []string{}
	}
	if a.Confidence == "" {
		a.Confidence = model.ConfidenceMedium
	}
	if a.VerificationStatus == "" {
		if a.Verified {
			a.VerificationStatus = model.VerificationVerified
		} else {
			a.VerificationStatus = model.VerificationPending
		}
	}
	return a
}
