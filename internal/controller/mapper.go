package controller

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jarviz-io/jarviz-api/internal/storage"
)

// TimestampLayout is the text form of stored timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

var errMissingColumn = errors.New("column not in result")

// rowReader converts the columns of one row. The first conversion failure is
// kept in err and later reads return zero values.
type rowReader struct {
	row   storage.Row
	index int
	err   error
}

func (r *rowReader) value(col string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.row[col]
	if !ok {
		r.fail(col, errMissingColumn)
		return nil, false
	}
	return v, true
}

func (r *rowReader) fail(col string, err error) {
	if r.err == nil {
		r.err = &MappingError{Row: r.index, Column: col, Err: err}
	}
}

func (r *rowReader) integer(col string) int64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return 0
	}
	n, err := toInt64(v)
	if err != nil {
		r.fail(col, err)
	}
	return n
}

func (r *rowReader) number(col string) float64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return 0
	}
	f, err := toFloat64(v)
	if err != nil {
		r.fail(col, err)
	}
	return f
}

func (r *rowReader) text(col string) string {
	v, ok := r.value(col)
	if !ok || v == nil {
		return ""
	}
	s, err := toString(v)
	if err != nil {
		r.fail(col, err)
	}
	return s
}

func (r *rowReader) optText(col string) *string {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	s := r.text(col)
	return &s
}

func (r *rowReader) optInteger(col string) *int64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	n := r.integer(col)
	return &n
}

func (r *rowReader) optNumber(col string) *float64 {
	v, ok := r.value(col)
	if !ok || v == nil {
		return nil
	}
	f := r.number(col)
	return &f
}

// mapRows drains rows, converting each with fn, and closes rows.
// The result keeps the order rows were produced in and is never nil.
// The first conversion failure aborts the mapping.
func mapRows[T any](rows storage.Rows, fn func(*rowReader) T) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for i := 0; rows.Next(); i++ {
		row, err := storage.ScanRow(rows)
		if err != nil {
			return nil, err
		}
		r := &rowReader{row: row, index: i}
		rec := fn(r)
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case []byte:
		return parseInt(string(n))
	case string:
		return parseInt(n)
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int64(f), nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case []byte:
		return toFloat64(string(n))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to number", v)
	}
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case int:
		return strconv.Itoa(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(s), nil
	case time.Time:
		return s.UTC().Format(TimestampLayout), nil
	default:
		return "", fmt.Errorf("cannot convert %T to text", v)
	}
}
