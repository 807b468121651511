package filter

import (
	"fmt"

	"docwindow/internal/domain"
)

// List is an immutable collection of filters keyed by filter id, keeping
// insertion order. The zero-allocation Empty singleton is the canonical
// empty list.
type List struct {
	order []string
	byID  map[string]*Filter
}

// Empty is the canonical empty filter list.
var Empty = &List{}

// NewList builds a list from filters. A duplicate filter id is a
// programming error and fails.
func NewList(filters ...*Filter) (*List, error) {
	if len(filters) == 0 {
		return Empty, nil
	}
	l := &List{byID: make(map[string]*Filter, len(filters))}
	for _, f := range filters {
		if _, exists := l.byID[f.FilterID()]; exists {
			return nil, fmt.Errorf("%w: duplicate filter id %q", domain.ErrValidation, f.FilterID())
		}
		l.order = append(l.order, f.FilterID())
		l.byID[f.FilterID()] = f
	}
	return l, nil
}

func ofOrdered(order []string, byID map[string]*Filter) *List {
	if len(order) == 0 {
		return Empty
	}
	return &List{order: order, byID: byID}
}

// IsEmpty is nil-safe: a nil list counts as empty.
func (l *List) IsEmpty() bool {
	return l == nil || len(l.order) == 0
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

// ToSlice returns the filters in insertion order.
func (l *List) ToSlice() []*Filter {
	out := make([]*Filter, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

func (l *List) FilterByID(filterID string) (*Filter, bool) {
	f, ok := l.byID[filterID]
	return f, ok
}

func (l *List) ContainsFilterByID(filterID string) bool {
	_, ok := l.byID[filterID]
	return ok
}

// MergeWith merges other into this list, overriding by id (right biased).
// Identity short-circuits when either side is empty.
func (l *List) MergeWith(other *List) *List {
	if l.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return l
	}
	order := make([]string, 0, len(l.order)+len(other.order))
	byID := make(map[string]*Filter, len(l.order)+len(other.order))
	for _, id := range l.order {
		order = append(order, id)
		byID[id] = l.byID[id]
	}
	for _, id := range other.order {
		if _, exists := byID[id]; !exists {
			order = append(order, id)
		}
		byID[id] = other.byID[id]
	}
	return ofOrdered(order, byID)
}

// MergeWithFilter merges a single filter, overriding by id.
func (l *List) MergeWithFilter(f *Filter) *List {
	single, _ := NewList(f)
	return l.MergeWith(single)
}

// RetainingOnly keeps only filters matching the predicate. When nothing was
// removed it returns the receiver unchanged; callers may rely on reference
// equality as a no-op signal for cache invalidation.
func (l *List) RetainingOnly(predicate func(*Filter) bool) *List {
	if l.IsEmpty() {
		return l
	}
	var order []string
	byID := make(map[string]*Filter, len(l.order))
	for _, id := range l.order {
		f := l.byID[id]
		if predicate(f) {
			order = append(order, id)
			byID[id] = f
		}
	}
	if len(order) == len(l.order) {
		return l
	}
	return ofOrdered(order, byID)
}

// Subtract removes the filters whose id exists in other.
func (l *List) Subtract(other *List) *List {
	return l.RetainingOnly(func(f *Filter) bool {
		return !other.ContainsFilterByID(f.FilterID())
	})
}

func (l *List) ParamValueAsString(filterID, parameterName string) string {
	f, ok := l.FilterByID(filterID)
	if !ok {
		return ""
	}
	return f.ParamValueAsString(parameterName, "")
}

func (l *List) ParamValueAsInt(filterID, parameterName string, defaultValue int) int {
	f, ok := l.FilterByID(filterID)
	if !ok {
		return defaultValue
	}
	return f.ParamValueAsInt(parameterName, defaultValue)
}

// Equal reports structural equality.
func (l *List) Equal(other *List) bool {
	if l == other {
		return true
	}
	if l == nil || other == nil || len(l.order) != len(other.order) {
		return false
	}
	for i, id := range l.order {
		if other.order[i] != id {
			return false
		}
		if !l.byID[id].Equal(other.byID[id]) {
			return false
		}
	}
	return true
}

func (l *List) String() string {
	return fmt.Sprintf("FilterList%v", l.order)
}
