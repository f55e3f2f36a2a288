package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const memoryPath = ":memory:"

type sqliteStore struct {
	db   *gorm.DB
	path string
}

func openSQLite(path string, createIfMissing bool) (*sqliteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrDatabaseNotFound)
	}

	if path != memoryPath && !createIfMissing {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %q", ErrDatabaseNotFound, path)
			}
			return nil, fmt.Errorf("stat sqlite database: %w", err)
		}
	}
	if path != memoryPath && createIfMissing {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	if path == memoryPath {
		// each new connection would see its own empty in-memory database
		sqlDB.SetMaxOpenConns(1)
	}

	return &sqliteStore{db: gdb, path: path}, nil
}

func (s *sqliteStore) Dialect() string {
	return "sqlite3"
}

func (s *sqliteStore) Select(ctx context.Context, statement string, args ...any) ([]string, [][]any, error) {
	rows, err := s.db.WithContext(ctx).Raw(statement, args...).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	return scanSQLRows(rows)
}

func (s *sqliteStore) Mutate(ctx context.Context, statement string, commit bool, args ...any) (int64, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	result := tx.Exec(statement, args...)
	if result.Error != nil {
		tx.Rollback()
		return 0, result.Error
	}

	affected := result.RowsAffected
	if affected > 0 && commit {
		if err := tx.Commit().Error; err != nil {
			return 0, fmt.Errorf("commit: %w", err)
		}
		return affected, nil
	}

	tx.Rollback()
	return affected, nil
}

func (s *sqliteStore) Define(ctx context.Context, statement string) error {
	return s.db.WithContext(ctx).Exec(statement).Error
}

func (s *sqliteStore) SQLDB() (*sql.DB, error) {
	return s.db.DB()
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func scanSQLRows(rows *sql.Rows) ([]string, [][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}

	return columns, out, rows.Err()
}
