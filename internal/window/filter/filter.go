package filter

import (
	"fmt"
	"time"

	"docwindow/internal/domain"
)

// Filter is an immutable, composable predicate set identified by filterId.
// Parameters keep their declaration order; a subset may be flagged internal
// (applied to queries but hidden from the user-facing filter editor).
type Filter struct {
	filterID       string
	caption        string
	facetFilter    bool
	paramOrder     []string
	paramsByName   map[string]Param
	internalParams map[string]struct{}
}

// Builder assembles a Filter. Build fails on an empty filter id and on two
// parameters sharing a field name (silently dropping a predicate would be
// worse than failing).
type Builder struct {
	filterID       string
	caption        string
	facetFilter    bool
	paramOrder     []string
	paramsByName   map[string]Param
	internalParams map[string]struct{}
	err            error
}

func NewBuilder() *Builder {
	return &Builder{
		paramsByName:   map[string]Param{},
		internalParams: map[string]struct{}{},
	}
}

func (b *Builder) FilterID(filterID string) *Builder {
	b.filterID = filterID
	return b
}

func (b *Builder) Caption(caption string) *Builder {
	b.caption = caption
	return b
}

func (b *Builder) FacetFilter(facetFilter bool) *Builder {
	b.facetFilter = facetFilter
	return b
}

func (b *Builder) AddParameter(p Param) *Builder {
	b.addParameter(p, false)
	return b
}

// AddInternalParameter adds a parameter excluded from user-facing filter
// editing but still applied to queries.
func (b *Builder) AddInternalParameter(p Param) *Builder {
	b.addParameter(p, true)
	return b
}

func (b *Builder) addParameter(p Param, internal bool) {
	if b.err != nil {
		return
	}
	name := p.FieldName()
	if name == "" && p.IsSQLFilter() {
		// raw SQL params are keyed by their clause
		name = p.SQLWhereClause()
	}
	if _, exists := b.paramsByName[name]; exists {
		b.err = fmt.Errorf("%w: duplicate filter parameter %q", domain.ErrValidation, name)
		return
	}
	b.paramOrder = append(b.paramOrder, name)
	b.paramsByName[name] = p
	if internal {
		b.internalParams[name] = struct{}{}
	}
}

func (b *Builder) Build() (*Filter, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.filterID == "" {
		return nil, fmt.Errorf("%w: filterId is empty", domain.ErrValidation)
	}
	return &Filter{
		filterID:       b.filterID,
		caption:        b.caption,
		facetFilter:    b.facetFilter,
		paramOrder:     b.paramOrder,
		paramsByName:   b.paramsByName,
		internalParams: b.internalParams,
	}, nil
}

// SingleParameterFilter is a shortcut for a filter with one
// field/operator/value parameter.
func SingleParameterFilter(filterID, fieldName string, operator Operator, value any) (*Filter, error) {
	return NewBuilder().
		FilterID(filterID).
		AddParameter(NameOperatorValueParam(fieldName, operator, value)).
		Build()
}

// InArrayFilter is a shortcut for an IN_ARRAY filter over integer values.
func InArrayFilter(filterID, fieldName string, values []int) (*Filter, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: values is empty", domain.ErrValidation)
	}
	return NewBuilder().
		FilterID(filterID).
		AddParameter(NameOperatorValueParam(fieldName, OperatorInArray, values)).
		Build()
}

func (f *Filter) FilterID() string    { return f.filterID }
func (f *Filter) Caption() string     { return f.caption }
func (f *Filter) IsFacetFilter() bool { return f.facetFilter }

func (f *Filter) HasParameters() bool {
	return len(f.paramOrder) > 0
}

// Params returns the parameters in declaration order.
func (f *Filter) Params() []Param {
	out := make([]Param, 0, len(f.paramOrder))
	for _, name := range f.paramOrder {
		out = append(out, f.paramsByName[name])
	}
	return out
}

func (f *Filter) IsInternalParameter(name string) bool {
	_, ok := f.internalParams[name]
	return ok
}

// Param returns the named parameter or a not-found error carrying the
// filter context.
func (f *Filter) Param(name string) (Param, error) {
	p, ok := f.paramsByName[name]
	if !ok {
		return Param{}, fmt.Errorf("parameter %q not found in filter %q: %w", name, f.filterID, domain.ErrNotFound)
	}
	return p, nil
}

func (f *Filter) ParamOrZero(name string) (Param, bool) {
	p, ok := f.paramsByName[name]
	return p, ok
}

func (f *Filter) ParamValueAsString(name, defaultValue string) string {
	p, ok := f.ParamOrZero(name)
	if !ok {
		return defaultValue
	}
	return p.ValueAsString()
}

func (f *Filter) ParamValueAsInt(name string, defaultValue int) int {
	p, ok := f.ParamOrZero(name)
	if !ok {
		return defaultValue
	}
	return p.ValueAsInt(defaultValue)
}

func (f *Filter) ParamValueAsBool(name string, defaultValue bool) bool {
	p, ok := f.ParamOrZero(name)
	if !ok {
		return defaultValue
	}
	return p.ValueAsBool(defaultValue)
}

func (f *Filter) ParamValueAsDateOr(name string, defaultValue time.Time) time.Time {
	p, ok := f.ParamOrZero(name)
	if !ok {
		return defaultValue
	}
	return p.ValueAsDateOr(defaultValue)
}

// Equal reports structural equality.
func (f *Filter) Equal(other *Filter) bool {
	if f == other {
		return true
	}
	if f == nil || other == nil {
		return false
	}
	if f.filterID != other.filterID ||
		f.caption != other.caption ||
		f.facetFilter != other.facetFilter ||
		len(f.paramOrder) != len(other.paramOrder) {
		return false
	}
	for i, name := range f.paramOrder {
		if other.paramOrder[i] != name {
			return false
		}
		if !f.paramsByName[name].Equal(other.paramsByName[name]) {
			return false
		}
		if f.IsInternalParameter(name) != other.IsInternalParameter(name) {
			return false
		}
	}
	return true
}

func (f *Filter) String() string {
	return fmt.Sprintf("Filter{id=%s, params=%v}", f.filterID, f.paramOrder)
}
