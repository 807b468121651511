// Package view implements the read-side row abstraction: in-memory views
// over arbitrary row types with paging, sorting and field projection.
package view

import (
	"fmt"
	"strings"

	"docwindow/internal/domain"
	"docwindow/internal/window/sqlbind"
)

// Row is one line of a view.
type Row interface {
	ID() string
}

// FieldExtractor reads one field value off a row.
type FieldExtractor[T Row] func(row T) any

// FieldTable maps field names to typed extractor functions, in declaration
// order. It replaces reflective field access: every exposed field is declared
// explicitly with the code that reads it.
type FieldTable[T Row] struct {
	order      []string
	extractors map[string]FieldExtractor[T]
}

func NewFieldTable[T Row]() *FieldTable[T] {
	return &FieldTable[T]{extractors: map[string]FieldExtractor[T]{}}
}

// Add declares a field. Redeclaring a name is a programming error.
func (t *FieldTable[T]) Add(fieldName string, extractor FieldExtractor[T]) *FieldTable[T] {
	if _, exists := t.extractors[fieldName]; exists {
		panic(fmt.Sprintf("field %s declared twice", fieldName))
	}
	t.order = append(t.order, fieldName)
	t.extractors[fieldName] = extractor
	return t
}

// FieldNames returns the declared field names in order.
func (t *FieldTable[T]) FieldNames() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// RenderRow projects a row into a field name to value map.
func (t *FieldTable[T]) RenderRow(row T) map[string]any {
	out := make(map[string]any, len(t.order))
	for _, name := range t.order {
		out[name] = t.extractors[name](row)
	}
	return out
}

// Comparator builds a row comparator for the given sort specification.
// Unknown field names fail so callers surface bad sort requests instead of
// silently ignoring them.
func (t *FieldTable[T]) Comparator(orderBys []sqlbind.OrderBy) (func(a, b T) int, error) {
	extractors := make([]FieldExtractor[T], len(orderBys))
	for i, orderBy := range orderBys {
		extractor, ok := t.extractors[orderBy.FieldName]
		if !ok {
			return nil, fmt.Errorf("%w: cannot sort by unknown field %s", domain.ErrValidation, orderBy.FieldName)
		}
		extractors[i] = extractor
	}
	return func(a, b T) int {
		for i, orderBy := range orderBys {
			av, bv := extractors[i](a), extractors[i](b)
			if av == nil || bv == nil {
				if cmp := compareNulls(av, bv, orderBy.NullsLast); cmp != 0 {
					return cmp
				}
				continue
			}
			cmp := compareValues(av, bv)
			if cmp == 0 {
				continue
			}
			if !orderBy.Ascending {
				cmp = -cmp
			}
			return cmp
		}
		return 0
	}, nil
}

// compareNulls places nil values independently of the sort direction, the
// way NULLS FIRST/LAST does in SQL.
func compareNulls(a, b any, nullsLast bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if nullsLast {
			return 1
		}
		return -1
	default:
		if nullsLast {
			return -1
		}
		return 1
	}
}

func compareValues(a, b any) int {
	if an, aok := asFloat(a); aok {
		if bn, bok := asFloat(b); bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func asFloat(v any) (float64, bool) {
	switch typed := v.(type) {
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	default:
		return 0, false
	}
}
