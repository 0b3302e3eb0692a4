package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB opens a migrated in-memory SQLite database that is closed when the test ends.
func openTestDB(t *testing.T) *SQLExecutor {
	t.Helper()

	exec, err := Open(context.Background(), Config{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = exec.Close() })
	return exec
}

func TestBind_SQLite(t *testing.T) {
	t.Parallel()

	stmt, args, err := Bind(DialectSQLite,
		"SELECT * FROM billing WHERE client_id = :client_id AND status = :status",
		map[string]any{"client_id": int64(4), "status": "paid"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM billing WHERE client_id = ? AND status = ?", stmt)
	assert.Equal(t, []any{int64(4), "paid"}, args)
}

func TestBind_PostgresReusesPositions(t *testing.T) {
	t.Parallel()

	stmt, args, err := Bind(DialectPostgres,
		"SELECT 1 WHERE a = :id AND b = :name AND c = :id",
		map[string]any{"id": 7, "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2 AND c = $1", stmt)
	assert.Equal(t, []any{7, "x"}, args)
}

func TestBind_SQLiteRepeatsArguments(t *testing.T) {
	t.Parallel()

	stmt, args, err := Bind(DialectSQLite, "a = :id OR b = :id", map[string]any{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, "a = ? OR b = ?", stmt)
	assert.Equal(t, []any{3, 3}, args)
}

func TestBind_SkipsQuotesAndCasts(t *testing.T) {
	t.Parallel()

	stmt, args, err := Bind(DialectPostgres,
		`SELECT created_at::date FROM clients WHERE note = 'at 10:30' AND name LIKE :term ESCAPE '\'`,
		map[string]any{"term": "%a%"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT created_at::date FROM clients WHERE note = 'at 10:30' AND name LIKE $1 ESCAPE '\'`, stmt)
	assert.Equal(t, []any{"%a%"}, args)
}

func TestBind_Mismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		params   map[string]any
	}{
		{"unbound placeholder", "a = :a AND b = :b", map[string]any{"a": 1}},
		{"unused parameter", "a = :a", map[string]any{"a": 1, "extra": 2}},
		{"params without placeholders", "SELECT 1", map[string]any{"a": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Bind(DialectSQLite, tt.template, tt.params)
			assert.ErrorIs(t, err, ErrBinding)
		})
	}
}

func TestBind_JSONNumbers(t *testing.T) {
	t.Parallel()

	_, args, err := Bind(DialectSQLite, ":i :f", map[string]any{
		"i": json.Number("500"),
		"f": json.Number("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(500), 12.5}, args)
}

func TestBind_ColonWithoutName(t *testing.T) {
	t.Parallel()

	stmt, args, err := Bind(DialectSQLite, "SELECT ': ' || :x || ':'", map[string]any{"x": "v"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT ': ' || ? || ':'", stmt)
	assert.Len(t, args, 1)
}

func TestSQLExecutor_ExecAndQuery(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)
	ctx := context.Background()

	res, err := exec.Exec(ctx,
		"INSERT INTO clients (name, email, created_at) VALUES (:name, :email, :created_at)",
		map[string]any{"name": "Acme", "email": "ops@acme.test", "created_at": "2024-03-01 10:00:00"})
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	assert.Positive(t, id)

	rows, err := exec.Query(ctx, "SELECT id, name, email FROM clients WHERE id = :id", map[string]any{"id": id})
	require.NoError(t, err)
	defer rows.Close() //nolint:errcheck

	require.True(t, rows.Next())
	row, err := ScanRow(rows)
	require.NoError(t, err)
	assert.Equal(t, id, row["id"])
	assert.Equal(t, "Acme", row["name"])
	assert.Equal(t, "ops@acme.test", row["email"])
	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

func TestSQLExecutor_BindErrorIsStoreError(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)

	_, err := exec.Query(context.Background(), "SELECT * FROM clients WHERE id = :id", map[string]any{})
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr), "expected StoreError, got %v", err)
	assert.Equal(t, "query", storeErr.Op)
	assert.ErrorIs(t, err, ErrBinding)
}

func TestSQLExecutor_DriverFaultIsStoreError(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)

	_, err := exec.Exec(context.Background(), "UPDATE no_such_table SET a = :a", map[string]any{"a": 1})
	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr), "expected StoreError, got %v", err)
	assert.Equal(t, "exec", storeErr.Op)
}

func TestSQLExecutor_Duplicate(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)
	ctx := context.Background()
	params := map[string]any{"hash": "h", "client_id": 1, "level": 1, "expires_at": 10}
	const insert = "INSERT INTO access_tokens (token_hash, client_id, level, expires_at) VALUES (:hash, :client_id, :level, :expires_at)"

	_, err := exec.Exec(ctx, insert, params)
	require.NoError(t, err)

	_, err = exec.Exec(ctx, insert, params)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSQLExecutor_RowsAffected(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)

	res, err := exec.Exec(context.Background(),
		"UPDATE billing SET status = :status WHERE id = :id",
		map[string]any{"status": "paid", "id": 99})
	require.NoError(t, err)

	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLExecutor_Ping(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)
	assert.NoError(t, exec.Ping(context.Background()))

	require.NoError(t, exec.Close())
	assert.Error(t, exec.Ping(context.Background()))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{Driver: "mysql", URL: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	exec := openTestDB(t)
	require.NoError(t, RunMigrations(exec.DB(), DialectSQLite))

	for _, table := range []string{"clients", "billing", "call_session", "widget", "call", "access_tokens"} {
		rows, err := exec.Query(context.Background(),
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = :name",
			map[string]any{"name": table})
		require.NoError(t, err)
		assert.True(t, rows.Next(), "missing table %s", table)
		_ = rows.Close()
	}
}

func TestNeedsReturning(t *testing.T) {
	t.Parallel()

	assert.True(t, needsReturning("  insert INTO billing (a) VALUES ($1)"))
	assert.False(t, needsReturning("INSERT INTO billing (a) VALUES ($1) RETURNING id"))
	assert.False(t, needsReturning("UPDATE billing SET a = $1"))
}
