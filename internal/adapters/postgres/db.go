package postgres

import (
    "context"
    "embed"
    "fmt"
    "io/fs"
    "log/slog"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/jackc/pgx/v5/stdlib"
    "github.com/pressly/goose/v3"

    "orderdesk/internal/ports"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DB struct {
    Pool *pgxpool.Pool
}

var (
    _ ports.WorkOrderRepository = (*DB)(nil)
    _ ports.RunLogRepository    = (*DB)(nil)
)

func Connect(ctx context.Context, url string) (*DB, error) {
    cfg, err := pgxpool.ParseConfig(url)
    if err != nil {
        return nil, err
    }
    cfg.MaxConns = 10
    cfg.HealthCheckPeriod = 30 * time.Second
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil {
        return nil, err
    }
    if err := pool.Ping(ctx); err != nil {
        pool.Close()
        return nil, err
    }
    return &DB{Pool: pool}, nil
}

func (db *DB) Close() { db.Pool.Close() }

// Migrate applies the embedded goose migrations.
func (db *DB) Migrate(ctx context.Context, logger *slog.Logger) error {
    fsys, err := fs.Sub(migrations, "migrations")
    if err != nil { return err }
    sqlDB := stdlib.OpenDBFromPool(db.Pool)
    defer sqlDB.Close()

    provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
    if err != nil {
        return fmt.Errorf("migrations: %w", err)
    }
    results, err := provider.Up(ctx)
    if err != nil {
        return fmt.Errorf("migrate up: %w", err)
    }
    for _, r := range results {
        logger.Info("migration applied", "version", r.Source.Version, "file", r.Source.Path, "duration", r.Duration)
    }
    return nil
}
