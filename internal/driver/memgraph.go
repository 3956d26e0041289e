package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/kbguard/internal/config"
)

type MemgraphDriver struct {
	Driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

func NewMemgraphDriver(ctx context.Context, cfg config.MemgraphConfig, logger *slog.Logger) (*MemgraphDriver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create graph driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to %s: %w", cfg.URI, err)
	}

	logger.Info("connected to graph store", "uri", cfg.URI)
	return &MemgraphDriver{Driver: driver, database: cfg.Database, logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	for _, q := range indexQueries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Memgraph has no IF NOT EXISTS; a rerun fails on existing indices.
			d.logger.Warn("index creation failed", "query", q, "error", err)
		}
	}
	return nil
}
