package database

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrUnsupportedDatabase  = errors.New("unsupported database type")
	ErrUnsupportedStatement = errors.New("unsupported statement kind")
	ErrDatabaseNotFound     = errors.New("database file not found")
)

// Store is a single relational backend. Statements use "?" placeholders;
// backends with another bind style rewrite them.
type Store interface {
	Dialect() string
	Select(ctx context.Context, statement string, args ...any) ([]string, [][]any, error)
	// Mutate runs statement inside a transaction and commits it only when
	// commit is set and at least one row was affected.
	Mutate(ctx context.Context, statement string, commit bool, args ...any) (int64, error)
	Define(ctx context.Context, statement string) error
	SQLDB() (*sql.DB, error)
	Ping(ctx context.Context) error
	Close() error
}

type Kind string

const (
	KindSelect Kind = "select"
	KindCreate Kind = "create"
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

type Query struct {
	Kind           Kind
	Statement      string
	Args           []any
	IncludeHeaders bool
	Commit         bool
}

// Envelope is the uniform result of every statement.
//
// For selects Rows holds the result rows, prefixed with a row of column
// names when headers were requested. For insert/update/delete it holds a
// single row with the affected count.
type Envelope struct {
	Status    bool
	Rows      [][]any
	Statement string
}

// Header returns the column names of a header-prefixed select envelope.
func (e Envelope) Header() []string {
	if len(e.Rows) == 0 {
		return nil
	}

	header := make([]string, 0, len(e.Rows[0]))
	for _, col := range e.Rows[0] {
		name, _ := col.(string)
		header = append(header, name)
	}
	return header
}
