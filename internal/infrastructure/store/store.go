package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/caseboard/internal/config"
	"github.com/fastygo/caseboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/caseboard/internal/infrastructure/postgres"
	"github.com/fastygo/caseboard/repository"
	"github.com/fastygo/caseboard/repository/postgres"
	"github.com/fastygo/caseboard/repository/sqlite"
)

// Stores bundles the task store and directory for the configured driver.
type Stores struct {
	Driver    string
	Tasks     repository.TaskStore
	Directory repository.DirectoryAdmin
	Pinger    monitor.StorePinger
	Close     func() error
}

// Open connects to the configured backend, applying migrations first.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Stores{
			Driver:    config.DriverPostgres,
			Tasks:     postgres.NewTaskRepository(pool),
			Directory: postgres.NewDirectoryRepository(pool),
			Pinger:    pool,
			Close: func() error {
				pool.Close()
				return nil
			},
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		logger.Info("opened sqlite store", zap.String("path", cfg.SQLite.Path))
		return &Stores{
			Driver:    config.DriverSQLite,
			Tasks:     db,
			Directory: db,
			Pinger:    db,
			Close:     db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
