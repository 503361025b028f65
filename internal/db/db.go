// Package db manages the PostgreSQL connection pool, schema migrations and
// scoped connection acquisition. It is the single point that knows the
// database exists.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/skillboard/skillboard/internal/apperr"
	"github.com/skillboard/skillboard/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// acquireTimeout bounds the wait for a pool slot. Exhaustion surfaces as an
// Internal error rather than an unbounded hang.
const acquireTimeout = 5 * time.Second

// New opens the connection pool, runs migrations, and returns:
//   - a *pgxpool.Pool for the access/query store and River
//   - a *gorm.DB over the same pool for the form ingestion layer
//
// Missing DB_* variables fail here with a ConfigMissing error listing them.
func New(ctx context.Context, cfg *config.DBConfig) (*pgxpool.Pool, *gorm.DB, error) {
	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, nil, apperr.MissingConfig(missing)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("parse db dsn: %w", err)
	}
	if cfg.MaxConns > math.MaxInt32 {
		return nil, nil, fmt.Errorf("DB_MAX_CONNS %d exceeds maximum value (%d)", cfg.MaxConns, math.MaxInt32)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := runMigrations(cfg.DSN()); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// GORM rides on the same pool via pgx/stdlib (used by internal/ingest).
	sqlDB := stdlib.OpenDBFromPool(pool)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("open gorm/postgres: %w", err)
	}

	return pool, gormDB, nil
}

// Acquire draws a connection from the pool, waiting at most acquireTimeout.
// The caller must Release it; it is exclusively held until then.
func Acquire(ctx context.Context, pool *pgxpool.Pool) (*pgxpool.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, acquireTimeout)
	defer cancel()
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "acquisition d'une connexion base de données", err)
	}
	return conn, nil
}

// runMigrations applies all pending SQL migrations via golang-migrate.
func runMigrations(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migration source: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn for migrations: %w", err)
	}
	sqlDB := stdlib.OpenDB(*poolCfg.ConnConfig)
	defer func() { _ = sqlDB.Close() }()

	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Pinger wraps *pgxpool.Pool and satisfies the health.Pinger interface.
type Pinger struct {
	pool *pgxpool.Pool
}

// NewPinger returns a Pinger that can be passed to health.New.
func NewPinger(pool *pgxpool.Pool) *Pinger {
	return &Pinger{pool: pool}
}

// Ping checks database connectivity.
func (p *Pinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
