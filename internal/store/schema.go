package store

// schema is applied in order on every Open. Every statement is idempotent.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,

	`CREATE TABLE IF NOT EXISTS kb_documents (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		content       TEXT NOT NULL DEFAULT '',
		embedding     vector,
		quality_score DOUBLE PRECISION,
		is_indexed    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS kb_contradiction_findings (
		pair_key          TEXT PRIMARY KEY,
		source_id         TEXT NOT NULL,
		target_id         TEXT NOT NULL,
		has_contradiction BOOLEAN NOT NULL,
		contradictions    JSONB NOT NULL DEFAULT '[]',
		overall_severity  TEXT NOT NULL DEFAULT '',
		analysis_notes    TEXT NOT NULL DEFAULT '',
		similarity_score  DOUBLE PRECISION NOT NULL,
		llm_similarity    DOUBLE PRECISION,
		llm_provider      TEXT NOT NULL DEFAULT '',
		llm_model         TEXT NOT NULL DEFAULT '',
		tokens_used       INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS kb_contradiction_findings_source_idx ON kb_contradiction_findings (source_id)`,
	`CREATE INDEX IF NOT EXISTS kb_contradiction_findings_target_idx ON kb_contradiction_findings (target_id)`,

	`CREATE TABLE IF NOT EXISTS legal_abrogations (
		id                      TEXT PRIMARY KEY,
		abrogated_reference     TEXT NOT NULL,
		abrogated_reference_ar  TEXT NOT NULL DEFAULT '',
		abrogating_reference    TEXT NOT NULL DEFAULT '',
		abrogating_reference_ar TEXT NOT NULL DEFAULT '',
		abrogation_date         DATE NOT NULL,
		scope                   TEXT NOT NULL CHECK (scope IN ('total', 'partial', 'implicit')),
		affected_articles       TEXT[] NOT NULL DEFAULT '{}',
		jort_url                TEXT NOT NULL DEFAULT '',
		source_url              TEXT NOT NULL DEFAULT '',
		notes                   TEXT NOT NULL DEFAULT '',
		domain                  TEXT NOT NULL DEFAULT '',
		verified                BOOLEAN NOT NULL DEFAULT FALSE,
		confidence              TEXT NOT NULL DEFAULT 'medium',
		verification_status     TEXT NOT NULL DEFAULT 'pending',
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (abrogated_reference, abrogating_reference)
	)`,
	`CREATE INDEX IF NOT EXISTS legal_abrogations_ref_trgm ON legal_abrogations USING gin (abrogated_reference gin_trgm_ops)`,
	`CREATE INDEX IF NOT EXISTS legal_abrogations_ref_ar_trgm ON legal_abrogations USING gin (abrogated_reference_ar gin_trgm_ops)`,
}
