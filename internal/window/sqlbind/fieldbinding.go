package sqlbind

import (
	"fmt"

	"docwindow/internal/domain"
)

// FieldType classifies a bound field's value domain. It drives value
// comparison and display rendering, not SQL generation.
type FieldType string

const (
	FieldTypeString    FieldType = "String"
	FieldTypeInt       FieldType = "Int"
	FieldTypeDecimal   FieldType = "Decimal"
	FieldTypeBool      FieldType = "Bool"
	FieldTypeDate      FieldType = "Date"
	FieldTypeTimestamp FieldType = "Timestamp"
	FieldTypeLookup    FieldType = "Lookup"
)

// DisplayColumnSuffix is appended to a lookup field's name to form the
// display column alias.
const DisplayColumnSuffix = "_Display"

// FieldBindingConfig declares one field's SQL binding.
type FieldBindingConfig struct {
	FieldName  string
	ColumnName string
	// ColumnSQL, when set, makes this a virtual column: the SQL expression
	// stands in for the column and is never alias-rebound.
	ColumnSQL string
	Type      FieldType
	KeyColumn bool
	// LookupDisplayTemplate, when set, adds a display column to the select.
	LookupDisplayTemplate *LookupTemplate

	DefaultOrderBy          bool
	DefaultOrderByPriority  int
	DefaultOrderByAscending bool
}

// FieldBinding maps one logical document field to SQL. Immutable.
type FieldBinding struct {
	fieldName  string
	columnName string
	columnSQL  string
	fieldType  FieldType
	keyColumn  bool
	lookup     *LookupTemplate

	defaultOrderBy          bool
	defaultOrderByPriority  int
	defaultOrderByAscending bool
}

func NewFieldBinding(cfg FieldBindingConfig) (*FieldBinding, error) {
	if cfg.FieldName == "" {
		return nil, fmt.Errorf("%w: field name is empty", domain.ErrValidation)
	}
	if cfg.ColumnName == "" && cfg.ColumnSQL == "" {
		return nil, fmt.Errorf("%w: field %q has neither column name nor column SQL", domain.ErrValidation, cfg.FieldName)
	}
	if cfg.KeyColumn && cfg.ColumnSQL != "" {
		return nil, fmt.Errorf("%w: key field %q cannot be a virtual column", domain.ErrValidation, cfg.FieldName)
	}
	fieldType := cfg.Type
	if fieldType == "" {
		fieldType = FieldTypeString
	}
	return &FieldBinding{
		fieldName:               cfg.FieldName,
		columnName:              cfg.ColumnName,
		columnSQL:               cfg.ColumnSQL,
		fieldType:               fieldType,
		keyColumn:               cfg.KeyColumn,
		lookup:                  cfg.LookupDisplayTemplate,
		defaultOrderBy:          cfg.DefaultOrderBy,
		defaultOrderByPriority:  cfg.DefaultOrderByPriority,
		defaultOrderByAscending: cfg.DefaultOrderByAscending,
	}, nil
}

func (f *FieldBinding) FieldName() string  { return f.fieldName }
func (f *FieldBinding) ColumnName() string { return f.columnName }
func (f *FieldBinding) Type() FieldType    { return f.fieldType }
func (f *FieldBinding) IsKeyColumn() bool  { return f.keyColumn }
func (f *FieldBinding) IsVirtualColumn() bool {
	return f.columnSQL != ""
}

func (f *FieldBinding) IsUsingDisplayColumn() bool {
	return f.lookup != nil
}

func (f *FieldBinding) IsDefaultOrderBy() bool         { return f.defaultOrderBy }
func (f *FieldBinding) DefaultOrderByPriority() int    { return f.defaultOrderByPriority }
func (f *FieldBinding) IsDefaultOrderByAscending() bool { return f.defaultOrderByAscending }

// SelectValue returns the field's select expression for the inner select,
// unqualified; bind the query's alias with WithTableAlias.
func (f *FieldBinding) SelectValue() SelectValue {
	if f.IsVirtualColumn() {
		return VirtualSelectValue(f.columnSQL, f.fieldName)
	}
	return ColumnSelectValue("", f.columnName, f.fieldName)
}

// ExposedValue references the column under the name the inner select exposes
// it as. Everything composed on top of the two-level select (filters, order
// bys, key lookups) must go through it: the outer level only knows field
// names, including for virtual columns and fields whose name differs from
// their column.
func (f *FieldBinding) ExposedValue() SelectValue {
	return ColumnSelectValue("", f.fieldName, f.fieldName)
}

// DisplayColumnAlias is the alias under which the display column appears in
// result sets.
func (f *FieldBinding) DisplayColumnAlias() string {
	return f.fieldName + DisplayColumnSuffix
}

// DisplayValue returns the display column expression of a lookup field. The
// display column is rendered on the outer select level, so it joins on the
// exposed field name.
func (f *FieldBinding) DisplayValue() (DisplayValue, bool) {
	if f.lookup == nil {
		return DisplayValue{}, false
	}
	return NewDisplayValue("", f.fieldName, f.lookup, f.DisplayColumnAlias()), true
}

// OrderBy returns the expression this field orders by. Order bys apply on
// the outer select level; lookup fields order by their raw key value.
func (f *FieldBinding) OrderBy() OrderByValue {
	return NewOrderByValue(f.ExposedValue())
}

func (f *FieldBinding) String() string {
	return fmt.Sprintf("FieldBinding{field=%s, column=%s}", f.fieldName, f.columnName)
}
