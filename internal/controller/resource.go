package controller

import (
	"context"
	"errors"
	"strings"

	"github.com/jarviz-io/jarviz-api/internal/query"
	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// resource writes normalized payloads to one table.
type resource struct {
	exec      storage.Executor
	schema    query.FieldSchema
	insertSQL string
	updateSQL string
}

func newResource(exec storage.Executor, table string, schema query.FieldSchema) resource {
	names := schema.Names()
	placeholders := make([]string, len(names))
	assignments := make([]string, len(names))
	for i, n := range names {
		placeholders[i] = ":" + n
		assignments[i] = n + " = :" + n
	}

	return resource{
		exec:   exec,
		schema: schema,
		insertSQL: "INSERT INTO " + table + " (" + strings.Join(names, ", ") + ") VALUES (" +
			strings.Join(placeholders, ", ") + ")",
		updateSQL: "UPDATE " + table + " SET " + strings.Join(assignments, ", ") + " WHERE id = :id",
	}
}

// insert stores a normalized payload and returns the id assigned by the store.
func (r resource) insert(ctx context.Context, op string, params query.Payload) (int64, error) {
	res, err := r.exec.Exec(ctx, r.insertSQL, params)
	if err != nil {
		return 0, persistErr(op, err)
	}
	if err := requireAffected(res); err != nil {
		return 0, persistErr(op, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, persistErr(op, err)
	}
	return id, nil
}

// create normalizes payload and inserts it.
func (r resource) create(ctx context.Context, op string, payload query.Payload) (int64, error) {
	params, err := query.Normalize(r.schema, payload)
	if err != nil {
		return 0, err
	}
	return r.insert(ctx, op, params)
}

// update normalizes payload and overwrites every field of row id.
func (r resource) update(ctx context.Context, op string, id int64, payload query.Payload) error {
	if id <= 0 {
		return query.InvalidParams(0, "invalid arguments")
	}
	params, err := query.Normalize(r.schema, payload)
	if err != nil {
		return err
	}
	params["id"] = id

	res, err := r.exec.Exec(ctx, r.updateSQL, params)
	if err != nil {
		return persistErr(op, err)
	}
	if err := requireAffected(res); err != nil {
		return persistErr(op, err)
	}
	return nil
}

func requireAffected(res storage.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoRowsAffected
	}
	return nil
}

// selectRows runs a query and maps every row with fn.
func selectRows[T any](ctx context.Context, exec storage.Executor, op, stmt string, params map[string]any, fn func(*rowReader) T) ([]T, error) {
	rows, err := exec.Query(ctx, stmt, params)
	if err != nil {
		return nil, persistErr(op, err)
	}
	out, err := mapRows(rows, fn)
	if err != nil {
		var me *MappingError
		if errors.As(err, &me) {
			return nil, err
		}
		return nil, persistErr(op, err)
	}
	return out, nil
}

// selectOne is selectRows for queries expected to match at most one row.
// It returns storage.ErrNotFound when nothing matches.
func selectOne[T any](ctx context.Context, exec storage.Executor, op, stmt string, params map[string]any, fn func(*rowReader) T) (*T, error) {
	out, err := selectRows(ctx, exec, op, stmt, params, fn)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, storage.ErrNotFound
	}
	return &out[0], nil
}
