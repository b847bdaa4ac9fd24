// Package migrate applies the embedded Postgres schema and the ClickHouse DDL
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"oracle/internal/platform/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed sql/*.sql
var files embed.FS

// Migrator owns a dedicated database/sql connection for schema changes
type Migrator struct {
	m  *migrate.Migrate
	db *sql.DB
}

// zlog adapts the named logger to migrate.Logger
type zlog struct{ l *logger.Logger }

func (z zlog) Printf(format string, v ...any) {
	z.l.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (zlog) Verbose() bool { return false }

// Open prepares a migrator against dsn (postgres:// url)
func Open(dsn string) (*Migrator, error) {
	if dsn == "" {
		return nil, errors.New("migrate: empty dsn")
	}
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("migrate: source: %w", err)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: open: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: init: %w", err)
	}
	m.Log = zlog{l: logger.Named("migrate")}
	return &Migrator{m: m, db: db}, nil
}

// Up applies every pending migration; no pending work is not an error
func (x *Migrator) Up() error {
	if err := x.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: up: %w", err)
	}
	return nil
}

// Down rolls back n migrations, or everything when n <= 0
func (x *Migrator) Down(n int) error {
	var err error
	if n <= 0 {
		err = x.m.Down()
	} else {
		err = x.m.Steps(-n)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: down: %w", err)
	}
	return nil
}

// Version reports the applied version; 0 with no error means a fresh schema
func (x *Migrator) Version() (uint, bool, error) {
	v, dirty, err := x.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// Close releases the source and database handles
func (x *Migrator) Close() error {
	srcErr, dbErr := x.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Up is the one-shot form used at service boot
func Up(dsn string) error {
	m, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// Execer is the slice of the clickhouse seam the DDL needs
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

// ClickhouseDDL creates the append-only audit table
var ClickhouseDDL = []string{
	`CREATE TABLE IF NOT EXISTS oracle_audit (
		id         UUID,
		event_type LowCardinality(String),
		actor_id   String,
		matter_id  String,
		payload    String,
		at         DateTime64(3, 'UTC')
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(at)
	ORDER BY (at, event_type, id)`,
}

// Clickhouse applies ClickhouseDDL in order
func Clickhouse(ctx context.Context, ch Execer) error {
	for i, stmt := range ClickhouseDDL {
		if err := ch.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: clickhouse stmt %d: %w", i, err)
		}
	}
	return nil
}
