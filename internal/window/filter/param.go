package filter

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
)

// Operator is the comparison applied between a filter parameter's field and
// its value.
type Operator string

const (
	OperatorEqual    Operator = "EQUAL"
	OperatorNotEqual Operator = "NOT_EQUAL"
	OperatorInArray  Operator = "IN_ARRAY"
	OperatorLike     Operator = "LIKE"
	// OperatorLikeI is LIKE, case-insensitive.
	OperatorLikeI   Operator = "LIKE_I"
	OperatorNotLike Operator = "NOT_LIKE"
	// OperatorNotLikeI is NOT LIKE, case-insensitive.
	OperatorNotLikeI       Operator = "NOT_LIKE_I"
	OperatorGreater        Operator = "GREATER"
	OperatorGreaterOrEqual Operator = "GREATER_OR_EQUAL"
	OperatorLess           Operator = "LESS"
	OperatorLessOrEqual    Operator = "LESS_OR_EQUAL"
	OperatorBetween        Operator = "BETWEEN"
)

// IsRangeOperator reports whether the operator uses ValueTo.
func (op Operator) IsRangeOperator() bool {
	return op == OperatorBetween
}

// Param is one predicate of a DocumentFilter: either a
// field/operator/value triple, or a raw SQL where-clause escape hatch.
// The two forms are mutually exclusive. Immutable after construction;
// equality is structural (needed for UI caching/ETag).
type Param struct {
	joinAnd   bool
	fieldName string
	operator  Operator
	value     any
	valueTo   any

	sqlWhereClause       string
	sqlWhereClauseParams []any
}

// ParamBuilder builds a field/operator/value Param.
type ParamBuilder struct {
	joinAnd   bool
	fieldName string
	operator  Operator
	value     any
	valueTo   any
}

// NewParam starts building a field parameter. JoinAnd defaults to true and
// the operator to EQUAL.
func NewParam() *ParamBuilder {
	return &ParamBuilder{joinAnd: true, operator: OperatorEqual}
}

func (b *ParamBuilder) JoinAnd(joinAnd bool) *ParamBuilder {
	b.joinAnd = joinAnd
	return b
}

func (b *ParamBuilder) FieldName(fieldName string) *ParamBuilder {
	b.fieldName = fieldName
	return b
}

func (b *ParamBuilder) Operator(operator Operator) *ParamBuilder {
	b.operator = operator
	return b
}

func (b *ParamBuilder) Value(value any) *ParamBuilder {
	b.value = value
	return b
}

func (b *ParamBuilder) ValueTo(valueTo any) *ParamBuilder {
	b.valueTo = valueTo
	return b
}

func (b *ParamBuilder) Build() (Param, error) {
	if b.fieldName == "" {
		return Param{}, fmt.Errorf("%w: filter parameter field name is empty", domain.ErrValidation)
	}
	if b.operator == "" {
		return Param{}, fmt.Errorf("%w: filter parameter operator is empty", domain.ErrValidation)
	}
	return Param{
		joinAnd:   b.joinAnd,
		fieldName: b.fieldName,
		operator:  b.operator,
		value:     b.value,
		valueTo:   b.valueTo,
	}, nil
}

// MustBuild is Build for statically-known parameters.
func (b *ParamBuilder) MustBuild() Param {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// NameEqualsParam is a shortcut for the most common kind of parameter.
func NameEqualsParam(fieldName string, value any) Param {
	return NameOperatorValueParam(fieldName, OperatorEqual, value)
}

func NameOperatorValueParam(fieldName string, operator Operator, value any) Param {
	return NewParam().FieldName(fieldName).Operator(operator).Value(value).MustBuild()
}

// SQLParam creates a raw SQL where-clause parameter. The clause may contain
// `?` placeholders matched positionally by params.
func SQLParam(joinAnd bool, sqlWhereClause string, params ...any) Param {
	return Param{
		joinAnd:              joinAnd,
		sqlWhereClause:       sqlWhereClause,
		sqlWhereClauseParams: params,
	}
}

func (p Param) IsJoinAnd() bool      { return p.joinAnd }
func (p Param) FieldName() string    { return p.fieldName }
func (p Param) Operator() Operator   { return p.operator }
func (p Param) Value() any           { return p.value }
func (p Param) ValueTo() any         { return p.valueTo }
func (p Param) IsSQLFilter() bool    { return p.sqlWhereClause != "" }
func (p Param) SQLWhereClause() string { return p.sqlWhereClause }
func (p Param) SQLWhereClauseParams() []any {
	return p.sqlWhereClauseParams
}

// Equal reports structural equality, including ValueTo.
func (p Param) Equal(other Param) bool {
	return p.joinAnd == other.joinAnd &&
		p.fieldName == other.fieldName &&
		p.operator == other.operator &&
		reflect.DeepEqual(p.value, other.value) &&
		reflect.DeepEqual(p.valueTo, other.valueTo) &&
		p.sqlWhereClause == other.sqlWhereClause &&
		reflect.DeepEqual(p.sqlWhereClauseParams, other.sqlWhereClauseParams)
}

func (p Param) String() string {
	if p.IsSQLFilter() {
		return fmt.Sprintf("Param{sql=%s}", p.sqlWhereClause)
	}
	return fmt.Sprintf("Param{field=%s, op=%s, value=%v, valueTo=%v}", p.fieldName, p.operator, p.value, p.valueTo)
}

//
// Value coercions. All "Or" variants return the caller-supplied default
// instead of failing on a missing value.
//

func (p Param) ValueAsString() string {
	if p.value == nil {
		return ""
	}
	return valueToString(p.value)
}

func (p Param) ValueAsInt(defaultValue int) int {
	n, err := valueToInt(p.value)
	if err != nil {
		return defaultValue
	}
	return n
}

func (p Param) ValueAsBool(defaultValue bool) bool {
	switch v := p.value.(type) {
	case nil:
		return defaultValue
	case bool:
		return v
	case string:
		// Y/N is the legacy dictionary boolean encoding.
		switch v {
		case "Y", "true":
			return true
		case "N", "false":
			return false
		}
	}
	return defaultValue
}

func (p Param) ValueAsDateOr(defaultValue time.Time) time.Time {
	return valueToTimeOr(p.value, defaultValue)
}

func (p Param) ValueToAsDateOr(defaultValue time.Time) time.Time {
	return valueToTimeOr(p.valueTo, defaultValue)
}

// ValueAsSlice wraps a scalar value into a single-element slice so callers
// can treat EQUAL and IN_ARRAY parameters uniformly.
func (p Param) ValueAsSlice() []any {
	switch v := p.value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []int:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return []any{v}
	}
}

// ValueAsIntSlice converts each element: numbers pass through, LookupValue
// elements resolve via their id, everything else is parsed from its string
// form.
func (p Param) ValueAsIntSlice() ([]int, error) {
	items := p.ValueAsSlice()
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := valueToInt(item)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot convert %v to int list element", domain.ErrValidation, item)
		}
		out = append(out, n)
	}
	return out, nil
}

func valueToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case datatypes.LookupValue:
		return strconv.Itoa(v.ID)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func valueToInt(value any) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("%w: nil value", domain.ErrValidation)
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case datatypes.LookupValue:
		return v.ID, nil
	default:
		return strconv.Atoi(fmt.Sprintf("%v", v))
	}
}

func valueToTimeOr(value any, defaultValue time.Time) time.Time {
	switch v := value.(type) {
	case nil:
		return defaultValue
	case time.Time:
		return v
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return defaultValue
}
