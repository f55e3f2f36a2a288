package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// Dropped in this order so the journal goes before the users it references.
var schemaTables = []string{
	"job_status",
	"user_token_journal",
	"api_users",
	"goose_db_version",
}

// EnsureSchema applies the embedded migrations for the store's dialect.
// The *sql.DB used by goose belongs to the store and is not closed here.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.store == nil {
		return fmt.Errorf("database store is not initialized")
	}

	sqlDB, err := db.store.SQLDB()
	if err != nil {
		return fmt.Errorf("obtain sql handle: %w", err)
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(db.Dialect()); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, path.Join("migrations", db.Dialect())); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	slog.Info("database schema ensured", "dialect", db.Dialect())
	return nil
}

// DropSchema drops every table owned by this service. A table that cannot be
// dropped is logged and skipped.
func (db *DB) DropSchema(ctx context.Context) error {
	for _, table := range schemaTables {
		env, err := db.Execute(ctx, Query{Kind: KindCreate, Statement: "DROP TABLE IF EXISTS " + table})
		if err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
		if !env.Status {
			slog.Warn("table was not dropped", "table", table)
			continue
		}
		slog.Info("table dropped", "table", table)
	}
	return nil
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
