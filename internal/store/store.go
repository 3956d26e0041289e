// Package store is the PostgreSQL side of the engine: the document registry
// with its pgvector embeddings, contradiction findings and the legal
// abrogation registry searched by trigram similarity.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/agenthands/kbguard/internal/config"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open applies the schema over a single connection, then opens a pool whose
// connections know the vector type.
func Open(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := migrate(ctx, cfg.DSN); err != nil {
		return nil, err
	}

	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pcfg.AfterConnect = pgxvec.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres", "max_conns", pcfg.MaxConns)
	return &Store{pool: pool, logger: logger}, nil
}

func migrate(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	for _, stmt := range schema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}
