package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type Options struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	CreateIfMissing bool
}

type DB struct {
	store Store
}

// Open picks a backend from the scheme of opts.URL and verifies the store is
// reachable before returning.
func Open(ctx context.Context, opts Options) (*DB, error) {
	scheme, _, found := strings.Cut(opts.URL, ":")
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, opts.URL)
	}

	var (
		store Store
		err   error
	)
	switch strings.ToLower(scheme) {
	case "sqlite3", "sqlite":
		store, err = openSQLite(sqlitePath(opts.URL), opts.CreateIfMissing)
	case "postgres", "postgresql":
		store, err = openPostgres(ctx, opts.URL, opts.MaxConns, opts.MinConns)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDatabase, scheme)
	}
	if err != nil {
		return nil, err
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "dialect", store.Dialect())
	return New(store), nil
}

func New(store Store) *DB {
	return &DB{store: store}
}

func (db *DB) Dialect() string {
	return db.store.Dialect()
}

func (db *DB) Close() {
	if db.store != nil {
		if err := db.store.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
}

func (db *DB) Health(ctx context.Context) error {
	return db.store.Ping(ctx)
}

// Execute runs q and shapes the outcome into an Envelope according to its kind.
func (db *DB) Execute(ctx context.Context, q Query) (Envelope, error) {
	switch Kind(strings.ToLower(string(q.Kind))) {
	case KindSelect:
		return db.executeSelect(ctx, q)
	case KindInsert, KindUpdate, KindDelete:
		return db.executeCRUD(ctx, q)
	case KindCreate:
		if err := db.store.Define(ctx, q.Statement); err != nil {
			slog.Error("unable to run schema statement", "statement", q.Statement, "error", err)
			return Envelope{Status: false, Statement: q.Statement}, nil
		}
		return Envelope{Status: true, Statement: q.Statement}, nil
	default:
		slog.Error("failed to execute statement", "statement", q.Statement, "kind", q.Kind)
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnsupportedStatement, q.Kind)
	}
}

func (db *DB) executeSelect(ctx context.Context, q Query) (Envelope, error) {
	columns, rows, err := db.store.Select(ctx, q.Statement, q.Args...)
	if err != nil {
		return Envelope{Statement: q.Statement}, fmt.Errorf("select: %w", err)
	}

	if len(rows) == 0 {
		return Envelope{Status: false, Rows: [][]any{}, Statement: q.Statement}, nil
	}

	if q.IncludeHeaders {
		header := make([]any, len(columns))
		for i, name := range columns {
			header[i] = name
		}
		rows = append([][]any{header}, rows...)
	}

	return Envelope{Status: true, Rows: rows, Statement: q.Statement}, nil
}

func (db *DB) executeCRUD(ctx context.Context, q Query) (Envelope, error) {
	affected, err := db.store.Mutate(ctx, q.Statement, q.Commit, q.Args...)
	if err != nil {
		return Envelope{Statement: q.Statement}, fmt.Errorf("%s: %w", q.Kind, err)
	}

	env := Envelope{Status: affected > 0, Rows: [][]any{{affected}}, Statement: q.Statement}
	if env.Status && q.Commit {
		slog.Debug("transaction committed", "statement", q.Statement)
	}
	return env, nil
}

// sqlitePath extracts the file path from sqlite3://<path>.
func sqlitePath(url string) string {
	_, rest, _ := strings.Cut(url, ":")
	return strings.TrimPrefix(rest, "//")
}
