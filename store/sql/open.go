package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"

	creddefmigrations "github.com/goliatone/go-creddef/migrations"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// PersistenceConfig satisfies the go-persistence-bun client configuration.
type PersistenceConfig struct {
	Driver         string
	DSN            string
	Debug          bool
	PingTimeout    time.Duration
	OtelIdentifier string
	MaxOpenConns   int
	SkipMigrations bool
}

func (c PersistenceConfig) GetDebug() bool {
	return c.Debug
}

func (c PersistenceConfig) GetDriver() string {
	return c.Driver
}

func (c PersistenceConfig) GetServer() string {
	return c.DSN
}

func (c PersistenceConfig) GetPingTimeout() time.Duration {
	if c.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return c.PingTimeout
}

func (c PersistenceConfig) GetOtelIdentifier() string {
	if strings.TrimSpace(c.OtelIdentifier) == "" {
		return "go-creddef"
	}
	return c.OtelIdentifier
}

// OpenPostgres opens a postgres-backed persistence client and applies the
// embedded migrations unless SkipMigrations is set.
func OpenPostgres(ctx context.Context, cfg PersistenceConfig) (*persistence.Client, error) {
	cfg.Driver = DriverPostgres
	sqlDB, err := sql.Open(DriverPostgres, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	client, err := persistence.New(cfg, sqlDB, pgdialect.New())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new postgres client: %w", err)
	}
	return finishOpen(ctx, client, cfg, creddefmigrations.DialectPostgres)
}

// OpenSQLite opens a sqlite-backed persistence client. In-memory databases
// need MaxOpenConns set to 1 to keep a single shared connection.
func OpenSQLite(ctx context.Context, cfg PersistenceConfig) (*persistence.Client, error) {
	cfg.Driver = DriverSQLite
	sqlDB, err := sql.Open(DriverSQLite, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new sqlite client: %w", err)
	}
	return finishOpen(ctx, client, cfg, creddefmigrations.DialectSQLite)
}

func finishOpen(ctx context.Context, client *persistence.Client, cfg PersistenceConfig, dialect string) (*persistence.Client, error) {
	if cfg.SkipMigrations {
		return client, nil
	}
	if err := RegisterMigrations(ctx, client, dialect); err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}

// RegisterMigrations registers the embedded migrations for one dialect with
// the persistence client.
func RegisterMigrations(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("sqlstore: persistence client is required")
	}
	dialect = strings.ToLower(strings.TrimSpace(dialect))
	_, err := creddefmigrations.Register(ctx, func(_ context.Context, target string, _ string, fsys fs.FS) error {
		if target != dialect {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, creddefmigrations.WithDialects(dialect))
	return err
}
