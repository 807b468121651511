// Package sqlbind maps logical document entities and fields to concrete,
// composable SQL fragments. Fragments are built once per entity binding and
// cached; table-alias substitution is a single localized operation so one
// field binding can be reused across differently-aliased queries.
package sqlbind

// SelectValue renders one SELECT column: either alias.column, a bare
// column, or a virtual-column SQL expression.
type SelectValue struct {
	tableAlias  string
	columnName  string
	virtualSQL  string
	columnAlias string
}

// ColumnSelectValue references a plain table column, optionally qualified
// by a table name or alias.
func ColumnSelectValue(tableAlias, columnName, columnAlias string) SelectValue {
	return SelectValue{
		tableAlias:  tableAlias,
		columnName:  columnName,
		columnAlias: columnAlias,
	}
}

// VirtualSelectValue wraps a literal SQL expression standing in for a
// column.
func VirtualSelectValue(sql, columnAlias string) SelectValue {
	return SelectValue{
		virtualSQL:  sql,
		columnAlias: columnAlias,
	}
}

func (v SelectValue) IsVirtual() bool {
	return v.virtualSQL != ""
}

func (v SelectValue) IsZero() bool {
	return v.virtualSQL == "" && v.columnName == ""
}

func (v SelectValue) ColumnAlias() string {
	return v.columnAlias
}

func (v SelectValue) ToSQL() string {
	switch {
	case v.virtualSQL != "":
		return v.virtualSQL
	case v.tableAlias != "":
		return v.tableAlias + "." + v.columnName
	default:
		return v.columnName
	}
}

func (v SelectValue) ToSQLWithColumnAlias() string {
	return v.ToSQL() + " AS " + v.columnAlias
}

// WithTableAlias returns a copy bound to a different table name or alias.
// Virtual-column expressions are literal SQL and are not rebound.
func (v SelectValue) WithTableAlias(tableAlias string) SelectValue {
	if v.IsVirtual() || v.tableAlias == tableAlias {
		return v
	}
	v.tableAlias = tableAlias
	return v
}
