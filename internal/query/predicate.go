package query

import (
	"reflect"
	"strings"
	"time"
)

// DateLayout is the format of range bounds.
const DateLayout = "2006-01-02"

// EpochFloor is the lower range bound used when the caller omits one.
const EpochFloor = "2000-01-01"

// Range parameter names bound by Build.
const (
	ParamFrom = "from"
	ParamTo   = "to"
)

// Criterion is one optional equality condition. Fragment must reference the
// placeholder :Key and nothing else.
type Criterion struct {
	Key      string
	Fragment string
}

// Filter holds the caller-supplied filter values keyed by criterion key.
type Filter map[string]any

// DateRange is an inclusive range over Column.
type DateRange struct {
	Column string
	From   string
	To     string
}

// ResolveRange fills omitted bounds: from falls back to EpochFloor, to to the date of now.
func ResolveRange(column, from, to string, now time.Time) DateRange {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" {
		from = EpochFloor
	}
	if to == "" {
		to = now.Format(DateLayout)
	}
	return DateRange{Column: column, From: from, To: to}
}

func (r DateRange) clause() string {
	return r.Column + " >= :" + ParamFrom + " AND " + r.Column + " <= :" + ParamTo
}

// Predicate is a boolean condition plus the parameters it references.
type Predicate struct {
	Text   string
	Params map[string]any
}

// Clause returns the predicate prefixed with WHERE, or "" when there is nothing to filter on.
func (p Predicate) Clause() string {
	if p.Text == "" {
		return ""
	}
	return " WHERE " + p.Text
}

// Empty reports whether the predicate has no condition.
func (p Predicate) Empty() bool {
	return p.Text == ""
}

// Build folds the present criteria, in declaration order, into one predicate and appends the
// range when rng is not nil.
//
// A criterion is present when its filter value is non-empty (see Present). Only present
// criteria have their value bound; the value is looked up in filter by key when Build runs.
func Build(criteria []Criterion, filter Filter, rng *DateRange) Predicate {
	var b strings.Builder
	params := make(map[string]any)

	for _, c := range criteria {
		v, ok := filter[c.Key]
		if !ok || !Present(v) {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.Fragment)
		params[c.Key] = v
	}

	if rng != nil {
		if b.Len() > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(rng.clause())
		params[ParamFrom] = rng.From
		params[ParamTo] = rng.To
	}

	return Predicate{Text: b.String(), Params: params}
}

// And joins two predicates. Parameters of q win on key collisions.
func (p Predicate) And(q Predicate) Predicate {
	params := make(map[string]any, len(p.Params)+len(q.Params))
	for k, v := range p.Params {
		params[k] = v
	}
	for k, v := range q.Params {
		params[k] = v
	}

	switch {
	case p.Text == "":
		return Predicate{Text: q.Text, Params: params}
	case q.Text == "":
		return Predicate{Text: p.Text, Params: params}
	default:
		return Predicate{Text: p.Text + " AND " + q.Text, Params: params}
	}
}

// Present reports whether a filter value counts as supplied.
// nil, empty strings, false, zero numbers and nil pointers are treated as absent.
func Present(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Present(rv.Elem().Interface())
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	default:
		return true
	}
}

// Search builds a substring match of term over any of columns, bound under key.
// It is kept apart from Build: search terms are matched partially, criteria exactly.
// Wildcards in term are escaped so they match literally.
func Search(columns []string, key, term string) Predicate {
	if len(columns) == 0 || term == "" {
		return Predicate{Params: map[string]any{}}
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " LIKE :" + key + ` ESCAPE '\'`
	}
	return Predicate{
		Text:   "(" + strings.Join(parts, " OR ") + ")",
		Params: map[string]any{key: "%" + EscapeLike(term) + "%"},
	}
}

// EscapeLike escapes LIKE wildcards using backslash as the escape character.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
