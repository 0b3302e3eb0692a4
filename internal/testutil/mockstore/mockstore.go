// Package mockstore provides configurable mocks of the storage interfaces for testing.
//
// Each mock uses function fields for its methods, so tests override only the
// behavior they care about and get sensible defaults for the rest.
package mockstore

import (
	"context"

	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// Compile-time interface satisfaction checks.
var (
	_ storage.Executor   = (*MockExecutor)(nil)
	_ storage.TokenStore = (*MockTokenStore)(nil)
)

// MockExecutor is a configurable storage.Executor.
type MockExecutor struct {
	QueryFunc func(ctx context.Context, template string, params map[string]any) (storage.Rows, error)
	ExecFunc  func(ctx context.Context, template string, params map[string]any) (storage.Result, error)
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

// Query returns no rows by default.
func (m *MockExecutor) Query(ctx context.Context, template string, params map[string]any) (storage.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, template, params)
	}
	return &Rows{}, nil
}

// Exec reports one affected row with id 1 by default.
func (m *MockExecutor) Exec(ctx context.Context, template string, params map[string]any) (storage.Result, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, template, params)
	}
	return Result{ID: 1, Affected: 1}, nil
}

// Ping checks the connection.
func (m *MockExecutor) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// Close releases resources.
func (m *MockExecutor) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Rows is an in-memory storage.Rows over fixed values.
type Rows struct {
	Cols    []string
	Values  [][]any
	IterErr error

	pos    int
	closed bool
}

// Next advances to the next row.
func (r *Rows) Next() bool {
	if r.closed || r.pos >= len(r.Values) {
		return false
	}
	r.pos++
	return true
}

// Columns returns the column names.
func (r *Rows) Columns() ([]string, error) {
	return r.Cols, nil
}

// Scan copies the current row into dest, which must hold *any values.
func (r *Rows) Scan(dest ...any) error {
	row := r.Values[r.pos-1]
	for i := range dest {
		if p, ok := dest[i].(*any); ok && i < len(row) {
			*p = row[i]
		}
	}
	return nil
}

// Err returns IterErr.
func (r *Rows) Err() error {
	return r.IterErr
}

// Close marks the rows closed.
func (r *Rows) Close() error {
	r.closed = true
	return nil
}

// Closed reports whether Close was called.
func (r *Rows) Closed() bool {
	return r.closed
}

// Result is a fixed storage.Result.
type Result struct {
	ID       int64
	Affected int64
}

// LastInsertId returns ID.
func (r Result) LastInsertId() (int64, error) { return r.ID, nil }

// RowsAffected returns Affected.
func (r Result) RowsAffected() (int64, error) { return r.Affected, nil }

// MockTokenStore is a configurable storage.TokenStore.
type MockTokenStore struct {
	SaveTokenFunc           func(ctx context.Context, t *storage.Token) error
	GetTokenByHashFunc      func(ctx context.Context, hash string) (*storage.Token, error)
	HasTokenAtLevelFunc     func(ctx context.Context, level int) (bool, error)
	DeleteExpiredTokensFunc func(ctx context.Context) (int64, error)
}

// SaveToken stores a token.
func (m *MockTokenStore) SaveToken(ctx context.Context, t *storage.Token) error {
	if m.SaveTokenFunc != nil {
		return m.SaveTokenFunc(ctx, t)
	}
	return nil
}

// GetTokenByHash returns storage.ErrNotFound by default.
func (m *MockTokenStore) GetTokenByHash(ctx context.Context, hash string) (*storage.Token, error) {
	if m.GetTokenByHashFunc != nil {
		return m.GetTokenByHashFunc(ctx, hash)
	}
	return nil, storage.ErrNotFound
}

// HasTokenAtLevel reports false by default.
func (m *MockTokenStore) HasTokenAtLevel(ctx context.Context, level int) (bool, error) {
	if m.HasTokenAtLevelFunc != nil {
		return m.HasTokenAtLevelFunc(ctx, level)
	}
	return false, nil
}

// DeleteExpiredTokens removes nothing by default.
func (m *MockTokenStore) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	if m.DeleteExpiredTokensFunc != nil {
		return m.DeleteExpiredTokensFunc(ctx)
	}
	return 0, nil
}
