// Package storage executes named-parameter SQL against SQLite or PostgreSQL
// and persists access tokens.
package storage

import (
	"context"
	"fmt"
)

// Executor runs statement templates that use :name placeholders.
type Executor interface {
	// Query runs a statement that returns rows. The caller must close the returned Rows.
	Query(ctx context.Context, template string, params map[string]any) (Rows, error)
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, template string, params map[string]any) (Result, error)
	// Ping verifies connectivity.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close() error
}

// Rows is a lazy stream of result rows. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Columns() ([]string, error)
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Result reports the outcome of an Exec.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}

// Row is one result row keyed by column name.
// Text columns are returned as string, never []byte.
type Row map[string]any

// ScanRow reads the current row of rows into a Row.
// When a column name repeats, the last value wins.
func ScanRow(rows Rows) (Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	row := make(Row, len(cols))
	for i, col := range cols {
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = values[i]
	}
	return row, nil
}
