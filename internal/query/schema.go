// Package query holds the parameter normalization and predicate construction shared by
// every resource controller.
package query

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when a payload or filter argument is rejected.
var ErrInvalidParams = errors.New("query: invalid params")

// ParamsError carries a client-facing message and an optional numeric code.
// It matches ErrInvalidParams with errors.Is.
type ParamsError struct {
	Code    int
	Message string
}

func (e *ParamsError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("query: %s (code %d)", e.Message, e.Code)
	}
	return "query: " + e.Message
}

// Unwrap lets errors.Is(err, ErrInvalidParams) succeed.
func (e *ParamsError) Unwrap() error {
	return ErrInvalidParams
}

// InvalidParams builds a ParamsError.
func InvalidParams(code int, format string, args ...any) error {
	return &ParamsError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Payload is a caller-supplied field map for create and update operations.
type Payload map[string]any

// Field is one entry of a FieldSchema. A nil Default stands for SQL NULL.
type Field struct {
	Name    string
	Default any
}

// FieldSchema is the canonical, ordered set of fields for one resource kind.
// The zero value is an empty schema. A FieldSchema is never modified after NewSchema returns.
type FieldSchema struct {
	fields []Field
	index  map[string]int
}

// NewSchema builds a schema from fields in declaration order.
// It panics on duplicate names since schemas are package-level declarations.
func NewSchema(fields ...Field) FieldSchema {
	s := FieldSchema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := s.index[f.Name]; dup {
			panic("query: duplicate schema field " + f.Name)
		}
		s.fields[i] = f
		s.index[f.Name] = i
	}
	return s
}

// Len returns the number of fields.
func (s FieldSchema) Len() int {
	return len(s.fields)
}

// Names returns the field names in declaration order.
func (s FieldSchema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether name is a schema field.
func (s FieldSchema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Default returns the default value of a field.
func (s FieldSchema) Default(name string) (any, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i].Default, true
}

// Defaults returns a fresh payload holding every default.
func (s FieldSchema) Defaults() Payload {
	out := make(Payload, len(s.fields))
	for _, f := range s.fields {
		out[f.Name] = f.Default
	}
	return out
}

// Normalize fills every schema field the payload lacks (or sets to nil) with its default.
//
// Caller values are kept as-is, without checking them against the default's type.
// Over-supply is detected by count: once defaults are merged in, a result with more keys
// than the schema means the caller sent a field the schema does not know.
// The input payload is not modified.
func Normalize(schema FieldSchema, payload Payload) (Payload, error) {
	out := make(Payload, len(payload)+schema.Len())
	for k, v := range payload {
		out[k] = v
	}
	for _, f := range schema.fields {
		if v, ok := out[f.Name]; !ok || v == nil {
			out[f.Name] = f.Default
		}
	}

	if len(out) > schema.Len() {
		return nil, InvalidParams(0, "wrong params")
	}

	return out, nil
}
