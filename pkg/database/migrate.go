package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// MigrationStatus is one row of `riskctl migrate status`
type MigrationStatus struct {
	Version int64  `json:"version"`
	Path    string `json:"path"`
	Applied bool   `json:"applied"`
}

// Migrations returns the embedded SQL migrations
func Migrations() fs.FS {
	sub, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		// embed path is fixed at compile time
		panic(err)
	}
	return sub
}

// newProvider opens a database/sql handle over the pool for goose
func (db *DB) newProvider() (*goose.Provider, func() error, error) {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, Migrations())
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, sqlDB.Close, nil
}

// MigrateUp applies every pending migration and returns the applied versions
func (db *DB) MigrateUp(ctx context.Context) ([]int64, error) {
	provider, closeFn, err := db.newProvider()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}

	versions := make([]int64, 0, len(results))
	for _, r := range results {
		versions = append(versions, r.Source.Version)
	}
	return versions, nil
}

// MigrateDown rolls back the latest migration; version 0 means nothing to roll back
func (db *DB) MigrateDown(ctx context.Context) (int64, error) {
	provider, closeFn, err := db.newProvider()
	if err != nil {
		return 0, err
	}
	defer closeFn()

	result, err := provider.Down(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate down: %w", err)
	}
	if result == nil {
		return 0, nil
	}
	return result.Source.Version, nil
}

// MigrationStatuses lists every known migration with its applied state
func (db *DB) MigrationStatuses(ctx context.Context) ([]MigrationStatus, error) {
	provider, closeFn, err := db.newProvider()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	statuses, err := provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationStatus{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
