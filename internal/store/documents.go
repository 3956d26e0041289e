package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/agenthands/kbguard/internal/core/model"
)

const getDocumentQuery = `
	SELECT id, title, category, content, embedding, quality_score, is_indexed, created_at, updated_at
	FROM kb_documents
	WHERE id = $1`

// Only indexed documents with a non-zero embedding of the source's dimension
// take part in the screen. The peers CTE is materialized so no distance is
// computed across dimensions.
const findSimilarQuery = `
	WITH src AS (
		SELECT id, embedding
		FROM kb_documents
		WHERE id = $1
		  AND embedding IS NOT NULL
		  AND vector_norm(embedding) > 0
	), peers AS MATERIALIZED (
		SELECT d.id, d.title, d.category, d.embedding
		FROM kb_documents d, src
		WHERE d.id <> src.id
		  AND d.embedding IS NOT NULL
		  AND d.is_indexed
		  AND vector_dims(d.embedding) = vector_dims(src.embedding)
		  AND vector_norm(d.embedding) > 0
	)
	SELECT p.id, p.title, p.category, 1 - (p.embedding <=> src.embedding) AS similarity
	FROM peers p, src
	WHERE 1 - (p.embedding <=> src.embedding) >= $2
	ORDER BY p.embedding <=> src.embedding
	LIMIT $3`

const upsertDocumentQuery = `
	INSERT INTO kb_documents (id, title, category, content, embedding, quality_score, is_indexed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		category = EXCLUDED.category,
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding,
		quality_score = EXCLUDED.quality_score,
		is_indexed = EXCLUDED.is_indexed,
		updated_at = NOW()`

func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var (
		doc model.Document
		vec *pgvector.Vector
	)
	err := s.pool.QueryRow(ctx, getDocumentQuery, id).Scan(
		&doc.ID, &doc.Title, &doc.Category, &doc.Content, &vec,
		&doc.QualityScore, &doc.Indexed, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	if vec != nil {
		doc.Embedding = vec.Slice()
	}
	return &doc, nil
}

// FindSimilar ranks indexed documents by cosine similarity to documentID's
// embedding. A document without an embedding has no candidates.
func (s *Store) FindSimilar(ctx context.Context, documentID string, minScore float64, limit int) ([]model.SimilarityCandidate, error) {
	rows, err := s.pool.Query(ctx, findSimilarQuery, documentID, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("find similar to %s: %w", documentID, err)
	}
	defer rows.Close()

	var out []model.SimilarityCandidate
	for rows.Next() {
		c := model.SimilarityCandidate{SourceID: documentID}
		if err := rows.Scan(&c.CandidateID, &c.Title, &c.Category, &c.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar document: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpsertDocument writes a document as the ingestion pipeline would. It is
// used by seeding and integration tests.
func (s *Store) UpsertDocument(ctx context.Context, doc model.Document) error {
	var vec *pgvector.Vector
	if len(doc.Embedding) > 0 {
		v := pgvector.NewVector(doc.Embedding)
		vec = &v
	}
	_, err := s.pool.Exec(ctx, upsertDocumentQuery,
		doc.ID, doc.Title, doc.Category, doc.Content, vec, doc.QualityScore, doc.Indexed)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}
