package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jarviz-io/jarviz-api/internal/metrics"
)

// Dialect selects the placeholder syntax and driver quirks of a database.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Compile-time interface satisfaction check.
var _ Executor = (*SQLExecutor)(nil)

// SQLExecutor implements Executor over database/sql.
type SQLExecutor struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLExecutor wraps an open database handle.
func NewSQLExecutor(db *sql.DB, dialect Dialect) *SQLExecutor {
	return &SQLExecutor{db: db, dialect: dialect}
}

// Dialect returns the dialect statements are rewritten for.
func (e *SQLExecutor) Dialect() Dialect {
	return e.dialect
}

// DB returns the underlying handle.
func (e *SQLExecutor) DB() *sql.DB {
	return e.db
}

// Query binds params into template and runs it.
func (e *SQLExecutor) Query(ctx context.Context, template string, params map[string]any) (Rows, error) {
	stmt, args, err := Bind(e.dialect, template, params)
	if err != nil {
		metrics.RecordStoreOperation("query", "bind_error")
		return nil, storeErr("query", err)
	}

	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		metrics.RecordStoreOperation("query", "error")
		return nil, storeErr("query", err)
	}

	metrics.RecordStoreOperation("query", "ok")
	return &sqlRows{Rows: rows}, nil
}

// Exec binds params into template and runs it.
// On PostgreSQL an INSERT without a RETURNING clause gets RETURNING id so that
// LastInsertId reports the new row.
func (e *SQLExecutor) Exec(ctx context.Context, template string, params map[string]any) (Result, error) {
	stmt, args, err := Bind(e.dialect, template, params)
	if err != nil {
		metrics.RecordStoreOperation("exec", "bind_error")
		return nil, storeErr("exec", err)
	}

	if e.dialect == DialectPostgres && needsReturning(stmt) {
		var id int64
		if err := e.db.QueryRowContext(ctx, stmt+" RETURNING id", args...).Scan(&id); err != nil {
			metrics.RecordStoreOperation("exec", "error")
			return nil, storeErr("exec", classify(err))
		}
		metrics.RecordStoreOperation("exec", "ok")
		return insertResult{id: id}, nil
	}

	res, err := e.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		metrics.RecordStoreOperation("exec", "error")
		return nil, storeErr("exec", classify(err))
	}

	metrics.RecordStoreOperation("exec", "ok")
	return res, nil
}

// Ping verifies database connectivity with a lightweight query.
// It is used by the /ready endpoint.
func (e *SQLExecutor) Ping(ctx context.Context) error {
	var result int
	if err := e.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return storeErr("ping", fmt.Errorf("database ping failed: %w", err))
	}
	if result != 1 {
		return storeErr("ping", fmt.Errorf("database ping returned unexpected result: %d", result))
	}
	return nil
}

// Close closes the database connection.
func (e *SQLExecutor) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// sqlRows wraps iteration faults in StoreError.
type sqlRows struct {
	*sql.Rows
}

func (r *sqlRows) Scan(dest ...any) error {
	return storeErr("scan", r.Rows.Scan(dest...))
}

func (r *sqlRows) Err() error {
	return storeErr("query", r.Rows.Err())
}

type insertResult struct {
	id int64
}

func (r insertResult) LastInsertId() (int64, error) { return r.id, nil }
func (r insertResult) RowsAffected() (int64, error) { return 1, nil }

func needsReturning(stmt string) bool {
	s := strings.ToUpper(strings.TrimSpace(stmt))
	return strings.HasPrefix(s, "INSERT") && !strings.Contains(s, "RETURNING")
}

// classify marks unique-constraint violations with ErrDuplicate.
func classify(err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// Extended code 2067 is SQLITE_CONSTRAINT_UNIQUE.
		if sqliteErr.Code() == 2067 || sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

// Bind rewrites the :name placeholders of template for dialect and returns the
// positional arguments. Every placeholder must have a value in params and every
// param must be referenced. Quoted text and :: casts are left untouched.
//
// SQLite receives one ? per occurrence; PostgreSQL reuses $n for repeated names.
func Bind(dialect Dialect, template string, params map[string]any) (string, []any, error) {
	var b strings.Builder
	b.Grow(len(template))

	args := make([]any, 0, len(params))
	positions := make(map[string]int)
	used := make(map[string]bool, len(params))
	inQuote := false

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
			continue
		case inQuote || c != ':':
			b.WriteByte(c)
			continue
		case i+1 < len(template) && template[i+1] == ':':
			b.WriteString("::")
			i++
			continue
		}

		j := i + 1
		for j < len(template) && isNameByte(template[j], j == i+1) {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}

		name := template[i+1 : j]
		v, ok := params[name]
		if !ok {
			return "", nil, fmt.Errorf("%w: no value for :%s", ErrBinding, name)
		}
		used[name] = true

		if dialect == DialectPostgres {
			n, seen := positions[name]
			if !seen {
				args = append(args, bindValue(v))
				n = len(args)
				positions[name] = n
			}
			b.WriteString("$" + strconv.Itoa(n))
		} else {
			args = append(args, bindValue(v))
			b.WriteByte('?')
		}
		i = j - 1
	}

	if len(used) != len(params) {
		var unused []string
		for name := range params {
			if !used[name] {
				unused = append(unused, name)
			}
		}
		sort.Strings(unused)
		return "", nil, fmt.Errorf("%w: unused parameter :%s", ErrBinding, strings.Join(unused, ", :"))
	}

	return b.String(), args, nil
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	default:
		return false
	}
}

// bindValue converts decoded JSON numbers to driver values.
func bindValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
