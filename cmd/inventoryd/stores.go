package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nerrad567/device-inventory/internal/device"
	"github.com/nerrad567/device-inventory/internal/history"
	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
	"github.com/nerrad567/device-inventory/internal/infrastructure/database"
	"github.com/nerrad567/device-inventory/internal/user"
	"github.com/nerrad567/device-inventory/migrations"
)

// stores holds one repository per collection for the configured backend.
type stores struct {
	devices device.Repository
	users   user.Repository
	history history.Repository

	db       *database.DB // nil for the CSV backend
	location string
}

// openStores opens the CSV files (creating them with headers when
// missing) or the SQLite database (applying migrations).
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return openSQLite(ctx, cfg.Database)
	default:
		return openCSV(cfg.Storage)
	}
}

func openCSV(cfg config.StorageConfig) (*stores, error) {
	devices, err := device.NewCSVRepository(dataPath(cfg.DataDir, cfg.DevicesFile))
	if err != nil {
		return nil, fmt.Errorf("opening devices file: %w", err)
	}
	users, err := user.NewCSVRepository(dataPath(cfg.DataDir, cfg.UsersFile))
	if err != nil {
		return nil, fmt.Errorf("opening users file: %w", err)
	}
	hist, err := history.NewCSVRepository(dataPath(cfg.DataDir, cfg.HistoryFile))
	if err != nil {
		return nil, fmt.Errorf("opening history file: %w", err)
	}

	return &stores{
		devices:  devices,
		users:    users,
		history:  hist,
		location: cfg.DataDir,
	}, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	db, err := database.Open(database.ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &stores{
		devices:  device.NewSQLiteRepository(db.DB),
		users:    user.NewSQLiteRepository(db.DB),
		history:  history.NewSQLiteRepository(db.DB),
		db:       db,
		location: db.Path(),
	}, nil
}

// Close releases the database, if any.
func (s *stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// dataPath resolves name against dir unless it is already absolute.
func dataPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
