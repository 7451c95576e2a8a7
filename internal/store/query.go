package store

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Op is a filter comparison.
type Op int

// Filter operators.
const (
	// OpEq matches when the field equals Value.
	OpEq Op = iota
	// OpContains matches when the field is an array holding Value.
	OpContains
)

// Filter is one condition on a top-level document field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq matches documents whose field equals v.
func Eq(field string, v any) Filter {
	return Filter{Field: field, Op: OpEq, Value: v}
}

// Contains matches documents whose array field holds v.
func Contains(field string, v any) Filter {
	return Filter{Field: field, Op: OpContains, Value: v}
}

// Query selects documents. Filters are ANDed. Zero Limit means no limit.
// Documents missing the OrderBy field sort first ascending and last descending.
type Query struct {
	Where   []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

//nolint:gochecknoglobals // Compiled once
var fieldName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validate rejects field names that are not plain snake_case identifiers.
// Backends splice field names into paths, so this runs before every List.
func (q Query) Validate() error {
	for _, f := range q.Where {
		if !fieldName.MatchString(f.Field) {
			return ErrInvalidInput.WithCause(fmt.Errorf("bad filter field %q", f.Field))
		}
		if f.Op != OpEq && f.Op != OpContains {
			return ErrInvalidInput.WithCause(fmt.Errorf("bad filter op %d", f.Op))
		}
	}
	if q.OrderBy != "" && !fieldName.MatchString(q.OrderBy) {
		return ErrInvalidInput.WithCause(fmt.Errorf("bad order field %q", q.OrderBy))
	}
	if q.Limit < 0 {
		return ErrInvalidInput.WithCause(fmt.Errorf("negative limit %d", q.Limit))
	}
	return nil
}

// unmarshalDoc decodes JSON keeping numbers as json.Number.
func unmarshalDoc(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// docEntry is a decoded document awaiting filter and sort.
type docEntry struct {
	id  string
	doc map[string]any
	raw []byte
}

// evaluate applies q to decoded documents in memory.
func evaluate(entries []docEntry, q Query) []Record {
	matched := entries[:0:0]
	for _, e := range entries {
		if matchesAll(e.doc, q.Where) {
			matched = append(matched, e)
		}
	}

	if q.OrderBy != "" {
		slices.SortStableFunc(matched, func(a, b docEntry) int {
			c := compareValues(a.doc[q.OrderBy], b.doc[q.OrderBy])
			if q.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
			return strings.Compare(a.id, b.id)
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]Record, len(matched))
	for i, e := range matched {
		out[i] = Record{ID: e.id, Data: e.raw}
	}
	return out
}

func matchesAll(doc map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := doc[f.Field]
		switch f.Op {
		case OpEq:
			if !ok || !equalValues(v, f.Value) {
				return false
			}
		case OpContains:
			arr, isArr := v.([]any)
			if !isArr || !slices.ContainsFunc(arr, func(item any) bool { return equalValues(item, f.Value) }) {
				return false
			}
		}
	}
	return true
}

// equalValues compares a decoded JSON value with a Go filter value.
func equalValues(docVal, want any) bool {
	if n, ok := asFloat(docVal); ok {
		w, ok := asFloat(want)
		return ok && n == w
	}
	switch d := docVal.(type) {
	case string:
		w, ok := want.(string)
		return ok && d == w
	case bool:
		w, ok := want.(bool)
		return ok && d == w
	case nil:
		return want == nil
	}
	return false
}

// compareValues orders decoded JSON values: missing < numbers < strings < other.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case 1:
		fa, _ := asFloat(a)
		fb, _ := asFloat(b)
		return cmp.Compare(fa, fb)
	case 2:
		return strings.Compare(a.(string), b.(string))
	}
	return 0
}

func rank(v any) int {
	if v == nil {
		return 0
	}
	if _, ok := asFloat(v); ok {
		return 1
	}
	if _, ok := v.(string); ok {
		return 2
	}
	return 3
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
