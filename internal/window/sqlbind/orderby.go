package sqlbind

import "strings"

// OrderBy is one requested ordering term, addressed by field name.
type OrderBy struct {
	FieldName string
	Ascending bool
	NullsLast bool
}

// OrderByValue is the SQL expression a field orders by. The zero value is
// the null expression: fields without a defined order-by render nothing.
type OrderByValue struct {
	selectValue SelectValue
}

func NewOrderByValue(selectValue SelectValue) OrderByValue {
	return OrderByValue{selectValue: selectValue}
}

func (v OrderByValue) IsNullExpression() bool {
	return v.selectValue.IsZero()
}

func (v OrderByValue) ToSQL() string {
	return v.selectValue.ToSQL()
}

func (v OrderByValue) WithTableAlias(tableAlias string) OrderByValue {
	return OrderByValue{selectValue: v.selectValue.WithTableAlias(tableAlias)}
}

// OrderByBindings resolves a field name to its order-by expression.
// Resolving an unknown field name is a lookup failure.
type OrderByBindings interface {
	FieldOrderBy(fieldName string) (OrderByValue, error)
}

// OrderByBuilder renders an ORDER BY clause from a list of order-by terms.
// Terms whose field has no order-by expression are silently dropped, so
// partial or degenerate lists never fail the whole query.
type OrderByBuilder struct {
	bindings   OrderByBindings
	tableAlias string
}

func NewOrderByBuilder(bindings OrderByBindings) *OrderByBuilder {
	return &OrderByBuilder{bindings: bindings}
}

// JoinOnTableAlias rebinds every rendered expression to the given table
// name or alias.
func (b *OrderByBuilder) JoinOnTableAlias(tableAlias string) *OrderByBuilder {
	b.tableAlias = tableAlias
	return b
}

// BuildSQL renders the order-by terms joined with ", ". Returns "" when
// nothing renders.
func (b *OrderByBuilder) BuildSQL(orderBys []OrderBy) (string, error) {
	if len(orderBys) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(orderBys))
	for _, orderBy := range orderBys {
		value, err := b.bindings.FieldOrderBy(orderBy.FieldName)
		if err != nil {
			return "", err
		}
		if value.IsNullExpression() {
			continue
		}
		if b.tableAlias != "" {
			value = value.WithTableAlias(b.tableAlias)
		}
		clauses = append(clauses, renderOrderBy(value, orderBy.Ascending, orderBy.NullsLast))
	}

	return strings.Join(clauses, ", "), nil
}

func renderOrderBy(value OrderByValue, ascending, nullsLast bool) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(value.ToSQL())
	sb.WriteString(")")
	if ascending {
		sb.WriteString(" ASC")
	} else {
		sb.WriteString(" DESC")
	}
	if nullsLast {
		sb.WriteString(" NULLS LAST")
	} else {
		sb.WriteString(" NULLS FIRST")
	}
	return sb.String()
}
