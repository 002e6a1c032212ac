package repository_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgres runs a throwaway Postgres with every up migration applied in order.
func startPostgres(ctx context.Context) (*postgres.PostgresContainer, string, error) {
	migrations, err := filepath.Glob("../migrations/*.up.sql")
	if err != nil {
		return nil, "", fmt.Errorf("filepath.Glob: %w", err)
	}
	if len(migrations) == 0 {
		return nil, "", fmt.Errorf("no migrations found")
	}
	sort.Strings(migrations)

	pc, err := postgres.Run(ctx, "postgres:17.6-alpine3.22",
		postgres.WithDatabase("cartsync"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(migrations...),
	)
	if err != nil {
		return nil, "", fmt.Errorf("postgres.Run: %w", err)
	}

	connStr, err := pc.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pc, "", fmt.Errorf("pc.ConnectionString: %w", err)
	}

	return pc, connStr, nil
}
