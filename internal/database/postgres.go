package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

func openPostgres(ctx context.Context, databaseURL string, maxConns int32, minConns int32) (*postgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	return &postgresStore{pool: pool}, nil
}

func (p *postgresStore) Dialect() string {
	return "postgres"
}

func (p *postgresStore) Select(ctx context.Context, statement string, args ...any) ([]string, [][]any, error) {
	rows, err := p.pool.Query(ctx, rebind(statement), args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	out := make([][]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}
		out = append(out, values)
	}

	return columns, out, rows.Err()
}

func (p *postgresStore) Mutate(ctx context.Context, statement string, commit bool, args ...any) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	// no-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, rebind(statement), args...)
	if err != nil {
		return 0, err
	}

	affected := tag.RowsAffected()
	if affected > 0 && commit {
		if err := tx.Commit(ctx); err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
	}

	return affected, nil
}

func (p *postgresStore) Define(ctx context.Context, statement string) error {
	_, err := p.pool.Exec(ctx, statement)
	return err
}

func (p *postgresStore) SQLDB() (*sql.DB, error) {
	return stdlib.OpenDBFromPool(p.pool), nil
}

func (p *postgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *postgresStore) Close() error {
	p.pool.Close()
	return nil
}

// rebind rewrites "?" placeholders to "$1", "$2", ... leaving quoted literals alone.
func rebind(statement string) string {
	if !strings.Contains(statement, "?") {
		return statement
	}

	var b strings.Builder
	b.Grow(len(statement) + 8)

	n := 0
	inQuote := false
	for _, r := range statement {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
