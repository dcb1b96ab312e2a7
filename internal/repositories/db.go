// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"orusledger/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store bundles an opened LedgerRepository with its shutdown hook.
type Store struct {
	Driver string
	Ledger LedgerRepository

	// Ping checks connectivity for health endpoints.
	Ping  func(ctx context.Context) error
	close func() error
}

// Close releases the underlying connections.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the store named by cfg.StoreDriver and applies
// migrations.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return openGorm(postgres.Open(cfg.PostgresDSN), cfg)
	case config.DriverSQLite:
		return openGorm(sqlite.Open(cfg.SQLitePath), cfg)
	case config.DriverMongo:
		return openMongo(ctx, cfg)
	case config.DriverMemory:
		return &Store{
			Driver: config.DriverMemory,
			Ledger: NewMemoryLedgerRepository(cfg.UseTransactions),
			Ping:   func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedStoreKind, cfg.StoreDriver)
	}
}

func openGorm(dialector gorm.Dialector, cfg config.Config) (*Store, error) {
	// Configure GORM logger to ignore "record not found" errors
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !cfg.IsProduction(),
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.StoreDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)
	if cfg.StoreDriver == config.DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY under concurrent debits.
		sqlDB.SetMaxOpenConns(1)
		// Keeps shared-cache in-memory databases alive between queries.
		sqlDB.SetMaxIdleConns(1)
	}

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", cfg.StoreDriver, err)
	}

	log.Printf("✅ %s connected & migrations applied", cfg.StoreDriver)

	return &Store{
		Driver: cfg.StoreDriver,
		Ledger: NewLedgerRepository(db, cfg.UseTransactions),
		Ping:   sqlDB.PingContext,
		close:  sqlDB.Close,
	}, nil
}

func openMongo(ctx context.Context, cfg config.Config) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	if err := MigrateMongo(ctx, client.Database(cfg.MongoDB)); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Printf("✅ mongo connected & indexes applied")

	return &Store{
		Driver: config.DriverMongo,
		Ledger: NewMongoLedgerRepository(client, cfg.MongoDB, cfg.UseTransactions),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}, nil
}
