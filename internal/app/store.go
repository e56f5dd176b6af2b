// Package app wires configuration to the storage backends shared by the
// server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/finledger/internal/adapter/repository/postgres"
	sqliteRepo "github.com/iho/finledger/internal/adapter/repository/sqlite"
	"github.com/iho/finledger/internal/domain"
	"github.com/iho/finledger/internal/infrastructure/config"
	"github.com/iho/finledger/internal/infrastructure/postgres"
	"github.com/iho/finledger/internal/infrastructure/sqlite"
	"github.com/iho/finledger/internal/usecase"
)

// Store bundles the repositories of one database backend.
type Store struct {
	Driver  string
	Entries usecase.EntryRepository
	Users   usecase.UserRepository
	IDs     usecase.IDGenerator

	ping    func(ctx context.Context) error
	closeFn func()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the database connections.
func (s *Store) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// OpenStore connects to the configured database, running migrations first
// when AUTO_MIGRATE is set.
func OpenStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Store, error) {
	if cfg.AutoMigrate {
		if err := Migrate(cfg, logger, false); err != nil {
			return nil, err
		}
	}

	ids := postgresRepo.NewULIDGenerator()

	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite database")

		return &Store{
			Driver:  config.DriverSQLite,
			Entries: sqliteRepo.NewEntryRepository(db, ids),
			Users:   sqliteRepo.NewUserRepository(db),
			IDs:     ids,
			ping:    db.PingContext,
			closeFn: func() { db.Close() },
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")

		return &Store{
			Driver:  config.DriverPostgres,
			Entries: postgresRepo.NewEntryRepository(pool, ids, postgresRepo.NewRetrier(logger)),
			Users:   postgresRepo.NewUserRepository(pool),
			IDs:     ids,
			ping:    pool.Ping,
			closeFn: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

// Migrate applies all pending migrations, or rolls back the last one when
// down is set.
func Migrate(cfg *config.Config, logger zerolog.Logger, down bool) error {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		if down {
			return sqlite.RunMigrationsDown(cfg.SQLitePath, logger)
		}
		return sqlite.RunMigrations(cfg.SQLitePath, logger)
	case config.DriverPostgres:
		if down {
			return postgres.RunMigrationsDown(cfg.DatabaseURL, logger)
		}
		return postgres.RunMigrations(cfg.DatabaseURL, logger)
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}

// LedgerOptions translates ledger rules from the configuration.
func LedgerOptions(cfg *config.Config) []usecase.LedgerOption {
	var opts []usecase.LedgerOption
	if cfg.ForwardOnlyTransitions {
		opts = append(opts, usecase.WithTransitionPolicy(domain.ForwardOnlyTransitions))
	}
	return opts
}
