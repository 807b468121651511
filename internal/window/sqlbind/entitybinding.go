package sqlbind

import (
	"fmt"
	"sort"
	"strings"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
)

// TableAliasMaster is the alias bound to a window's root entity.
const TableAliasMaster = "master"

// FieldNameVersion is the conventional row-version field. An entity that
// binds it together with a key column supports optimistic-concurrency
// version reads.
const FieldNameVersion = "Updated"

// EntityBinding describes one document entity's SQL shape: table, alias,
// key/link columns, field bindings and the cached SQL fragments derived
// from them. Built once via Builder; immutable afterwards.
type EntityBinding struct {
	tableName            string
	tableAlias           string
	keyColumnName        string
	linkColumnName       string
	parentLinkColumnName string

	fieldOrder   []string
	fieldsByName map[string]*FieldBinding

	sqlSelectAllFrom     string
	sqlWhereClause       *WhereExpression
	defaultOrderBys      []OrderBy
	sqlSelectVersionByID string
}

func (b *EntityBinding) TableName() string            { return b.tableName }
func (b *EntityBinding) TableAlias() string           { return b.tableAlias }
func (b *EntityBinding) KeyColumnName() string        { return b.keyColumnName }
func (b *EntityBinding) LinkColumnName() string       { return b.linkColumnName }
func (b *EntityBinding) ParentLinkColumnName() string { return b.parentLinkColumnName }

// SQLSelectAllFrom is the cached two-level select:
// SELECT alias.*, <display columns> FROM (<security-wrapped inner>) alias.
func (b *EntityBinding) SQLSelectAllFrom() string {
	return b.sqlSelectAllFrom
}

// SQLWhereClause is the compiled entity where clause, nil when none was
// configured (or the legacy clause failed to compile).
func (b *EntityBinding) SQLWhereClause() *WhereExpression {
	return b.sqlWhereClause
}

// DefaultOrderBys is the implicit ORDER BY applied when a query supplies
// none, derived from field metadata.
func (b *EntityBinding) DefaultOrderBys() []OrderBy {
	return b.defaultOrderBys
}

// SQLSelectVersionByID is the pre-built optimistic-locking read, empty when
// versioning is unsupported.
func (b *EntityBinding) SQLSelectVersionByID() string {
	return b.sqlSelectVersionByID
}

func (b *EntityBinding) IsVersioningSupported() bool {
	return b.sqlSelectVersionByID != ""
}

// Fields returns the field bindings in declaration order.
func (b *EntityBinding) Fields() []*FieldBinding {
	out := make([]*FieldBinding, 0, len(b.fieldOrder))
	for _, name := range b.fieldOrder {
		out = append(out, b.fieldsByName[name])
	}
	return out
}

// FieldByName returns the binding of the named field; unknown names fail
// with full descriptor context for diagnosis.
func (b *EntityBinding) FieldByName(fieldName string) (*FieldBinding, error) {
	field, ok := b.fieldsByName[fieldName]
	if !ok {
		return nil, fmt.Errorf("%w: no field %q in entity binding for table %q (fields: %s)",
			domain.ErrNotFound, fieldName, b.tableName, strings.Join(b.fieldOrder, ", "))
	}
	return field, nil
}

// FieldOrderBy implements OrderByBindings.
func (b *EntityBinding) FieldOrderBy(fieldName string) (OrderByValue, error) {
	field, err := b.FieldByName(fieldName)
	if err != nil {
		return OrderByValue{}, err
	}
	return field.OrderBy(), nil
}

// BuildSQLOrderBy renders the given order-by terms against this entity's
// table alias.
func (b *EntityBinding) BuildSQLOrderBy(orderBys []OrderBy) (string, error) {
	return NewOrderByBuilder(b).JoinOnTableAlias(b.tableAlias).BuildSQL(orderBys)
}

// ReplaceTableNameWithTableAlias rewrites fully-qualified column references
// to the entity's alias. Plain textual substitution: acceptable because the
// input is admin-authored dictionary configuration, not arbitrary SQL.
func (b *EntityBinding) ReplaceTableNameWithTableAlias(sql string) string {
	if sql == "" {
		return sql
	}
	return strings.ReplaceAll(sql, b.tableName+".", b.tableAlias+".")
}

func (b *EntityBinding) String() string {
	return fmt.Sprintf("EntityBinding{table=%s, alias=%s, key=%s, fields=%d}",
		b.tableName, b.tableAlias, b.keyColumnName, len(b.fieldOrder))
}

//
// Builder
//

// Builder assembles an EntityBinding. Not reusable: mutating a builder
// after Build panics, and key registration is guarded (at most one key
// column per entity).
type Builder struct {
	built *EntityBinding

	tableName            string
	tableAlias           string
	linkColumnName       string
	parentLinkColumnName string
	sqlWhereClause       string
	access               AccessSQLWrapper

	fieldOrder   []string
	fieldsByName map[string]*FieldBinding
	keyField     *FieldBinding
}

func NewBuilder() *Builder {
	return &Builder{
		fieldsByName: map[string]*FieldBinding{},
		access:       NoAccessRestriction(),
	}
}

func (b *Builder) assertNotBuilt() {
	if b.built != nil {
		panic("entity binding builder already built")
	}
}

func (b *Builder) TableName(tableName string) *Builder {
	b.assertNotBuilt()
	b.tableName = tableName
	return b
}

func (b *Builder) TableAlias(tableAlias string) *Builder {
	b.assertNotBuilt()
	b.tableAlias = tableAlias
	return b
}

// TableAliasForDetail derives the alias from the detail id, falling back to
// the master alias for root entities.
func (b *Builder) TableAliasForDetail(detailID datatypes.DetailID) *Builder {
	if detailID.IsEmpty() {
		return b.TableAlias(TableAliasMaster)
	}
	return b.TableAlias("d_" + detailID.String())
}

// ChildToParentLink declares how child rows link to their parent document.
func (b *Builder) ChildToParentLink(linkColumnName, parentLinkColumnName string) *Builder {
	b.assertNotBuilt()
	b.linkColumnName = linkColumnName
	b.parentLinkColumnName = parentLinkColumnName
	return b
}

func (b *Builder) SQLWhereClause(sqlWhereClause string) *Builder {
	b.assertNotBuilt()
	b.sqlWhereClause = sqlWhereClause
	return b
}

func (b *Builder) AccessWrapper(access AccessSQLWrapper) *Builder {
	b.assertNotBuilt()
	b.access = access
	return b
}

// AddField registers a field binding. Registering a second key field fails
// fast: at most one key column per entity.
func (b *Builder) AddField(field *FieldBinding) error {
	b.assertNotBuilt()
	if field.IsKeyColumn() {
		if b.keyField != nil {
			return fmt.Errorf("%w: more than one key field is not allowed: %s, %s",
				domain.ErrValidation, b.keyField, field)
		}
		b.keyField = field
	}
	b.fieldOrder = append(b.fieldOrder, field.FieldName())
	b.fieldsByName[field.FieldName()] = field
	return nil
}

// Build computes the cached SQL fragments and freezes the binding.
// Building with zero fields fails.
func (b *Builder) Build() (*EntityBinding, error) {
	if b.built != nil {
		return b.built, nil
	}
	if b.tableName == "" {
		return nil, fmt.Errorf("%w: table name is empty", domain.ErrValidation)
	}
	if b.tableAlias == "" {
		b.tableAlias = TableAliasMaster
	}
	if len(b.fieldOrder) == 0 {
		return nil, fmt.Errorf("%w: no SQL fields found for table %q", domain.ErrValidation, b.tableName)
	}

	binding := &EntityBinding{
		tableName:            b.tableName,
		tableAlias:           b.tableAlias,
		linkColumnName:       b.linkColumnName,
		parentLinkColumnName: b.parentLinkColumnName,
		fieldOrder:           b.fieldOrder,
		fieldsByName:         b.fieldsByName,
	}
	if b.keyField != nil {
		binding.keyColumnName = b.keyField.ColumnName()
	}

	binding.sqlSelectAllFrom = b.buildSQLSelectAllFrom()
	binding.sqlWhereClause = b.buildSQLWhereClause()
	binding.defaultOrderBys = b.buildDefaultOrderBys()
	binding.sqlSelectVersionByID = b.buildSQLSelectVersionByID()

	b.built = binding
	return binding, nil
}

// buildSQLSelectAllFrom composes the two-level select. The inner select is
// wrapped for row-level access control and must reference the original
// table name; the outer select and everything composed on top of it operate
// against the stable alias.
func (b *Builder) buildSQLSelectAllFrom() string {
	selectValues := make([]string, 0, len(b.fieldOrder))
	displayValues := make([]string, 0)
	for _, name := range b.fieldOrder {
		field := b.fieldsByName[name]
		selectValues = append(selectValues,
			field.SelectValue().WithTableAlias(b.tableName).ToSQLWithColumnAlias())
		if display, ok := field.DisplayValue(); ok {
			displayValues = append(displayValues,
				display.WithJoinTableAlias(b.tableAlias).ToSQLWithColumnAlias())
		}
	}

	inner := "SELECT " +
		"\n " + strings.Join(selectValues, "\n, ") +
		"\n FROM " + b.tableName
	inner = b.access.WrapTableSelect(b.tableName, inner)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString("\n")
	sb.WriteString(b.tableAlias)
	sb.WriteString(".*")
	for _, display := range displayValues {
		sb.WriteString("\n, ")
		sb.WriteString(display)
	}
	sb.WriteString("\n FROM (")
	sb.WriteString(inner)
	sb.WriteString(") ")
	sb.WriteString(b.tableAlias)
	return sb.String()
}

// buildSQLWhereClause rewrites fully-qualified legacy column references to
// the alias and compiles the result. The clause applies on the outer select
// level, so it may only reference bound fields, and by their field names.
// A malformed legacy clause degrades to a no-op filter instead of failing
// the whole descriptor build.
func (b *Builder) buildSQLWhereClause() *WhereExpression {
	if strings.TrimSpace(b.sqlWhereClause) == "" {
		return nil
	}
	prepared := strings.ReplaceAll(strings.TrimSpace(b.sqlWhereClause),
		b.tableName+".", b.tableAlias+".")
	expr, err := CompileWhereExpression(prepared)
	if err != nil {
		return nil
	}
	return expr
}

func (b *Builder) buildDefaultOrderBys() []OrderBy {
	fields := make([]*FieldBinding, 0)
	for _, name := range b.fieldOrder {
		if field := b.fieldsByName[name]; field.IsDefaultOrderBy() {
			fields = append(fields, field)
		}
	}
	// Stable sort: insertion order breaks priority ties.
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].DefaultOrderByPriority() < fields[j].DefaultOrderByPriority()
	})

	orderBys := make([]OrderBy, len(fields))
	for i, field := range fields {
		orderBys[i] = OrderBy{
			FieldName: field.FieldName(),
			Ascending: field.IsDefaultOrderByAscending(),
			NullsLast: true,
		}
	}
	return orderBys
}

func (b *Builder) buildSQLSelectVersionByID() string {
	versionField, ok := b.fieldsByName[FieldNameVersion]
	if !ok || b.keyField == nil {
		return ""
	}
	return "SELECT " + versionField.ColumnName() +
		" FROM " + b.tableName +
		" WHERE " + b.keyField.ColumnName() + "=$1"
}
