package llm

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const callLogSchema = `
CREATE TABLE IF NOT EXISTS llm_calls (
	id          TEXT PRIMARY KEY,
	request_id  TEXT NOT NULL,
	usage       TEXT NOT NULL,
	provider    TEXT NOT NULL,
	model       TEXT NOT NULL,
	attempt     INTEGER NOT NULL,
	success     INTEGER NOT NULL,
	error       TEXT,
	tokens_used INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_llm_calls_request ON llm_calls(request_id);
CREATE INDEX IF NOT EXISTS idx_llm_calls_provider ON llm_calls(provider, created_at);
`

// createdAtLayout is fixed width so created_at compares correctly as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CallLog appends chain attempts to a SQLite database.
type CallLog struct {
	db *sql.DB
}

// OpenCallLog opens or creates the call log at path.
func OpenCallLog(path string) (*CallLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating call log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening call log: %w", err)
	}
	if _, err := db.Exec(callLogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating call log schema: %w", err)
	}
	return &CallLog{db: db}, nil
}

func (l *CallLog) Close() error {
	return l.db.Close()
}

func (l *CallLog) Record(ctx context.Context, rec CallRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO llm_calls
		 (id, request_id, usage, provider, model, attempt, success, error, tokens_used, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.Usage, rec.Provider, rec.Model, rec.Attempt,
		rec.Success, nullString(rec.Error), rec.TokensUsed, rec.Duration.Milliseconds(),
		rec.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting llm call: %w", err)
	}
	return nil
}

// ProviderStats aggregates the log per provider.
type ProviderStats struct {
	Provider   string
	Calls      int
	Failures   int
	TokensUsed int
}

// Stats returns per-provider totals for calls made since since.
func (l *CallLog) Stats(ctx context.Context, since time.Time) ([]ProviderStats, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT provider, COUNT(*), SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), COALESCE(SUM(tokens_used), 0)
		 FROM llm_calls
		 WHERE created_at >= ?
		 GROUP BY provider
		 ORDER BY provider`,
		since.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying llm call stats: %w", err)
	}
	defer rows.Close()

	var out []ProviderStats
	for rows.Next() {
		var s ProviderStats
		if err := rows.Scan(&s.Provider, &s.Calls, &s.Failures, &s.TokensUsed); err != nil {
			return nil, fmt.Errorf("scanning llm call stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
