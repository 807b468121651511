package dictionary

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/sqlbind"
)

const salesOrderYAML = `window_id: sales-order
caption: Sales Order
table: c_order
where: IsActive='Y'
allow_create_new: "@Processed@=N"
fields:
  - name: C_Order_ID
    column: C_Order_ID
    type: Int
    key: true
  - name: DocumentNo
    column: DocumentNo
    default_order_by: true
    order_by_priority: 10
  - name: Processed
    column: Processed
    type: Bool
  - name: Updated
    column: Updated
    type: Timestamp
tabs:
  - detail_id: lines
    caption: Order Lines
    link_column: C_Order_ID
    parent_link_column: C_Order_ID
    table: c_orderline
    fields:
      - name: C_OrderLine_ID
        column: C_OrderLine_ID
        type: Int
        key: true
      - name: Line
        column: Line
        type: Int
        default_order_by: true
      - name: QtyOrdered
        column: QtyOrdered
        type: Decimal
`

func salesOrderDef(t *testing.T) WindowDef {
	t.Helper()
	var def WindowDef
	require.NoError(t, yaml.Unmarshal([]byte(salesOrderYAML), &def))
	return def
}

func writeDefinition(t *testing.T, dir, windowID, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, windowID+".yaml"), []byte(content), 0o644))
}

func TestCompileWindowDefinition(t *testing.T) {
	root, err := Compile(salesOrderDef(t), sqlbind.NoAccessRestriction())
	require.NoError(t, err)

	assert.Equal(t, datatypes.WindowID("sales-order"), root.WindowID())
	assert.Equal(t, "Sales Order", root.Caption())
	assert.Equal(t, "c_order", root.Binding().TableName())

	// root where clause survives compilation
	whereExpr := root.Binding().SQLWhereClause()
	require.NotNil(t, whereExpr)
	assert.True(t, whereExpr.IsConstant())

	// permission logic compiled, delete defaults to always-true
	assert.Equal(t, "@Processed@=N", root.AllowCreateNewLogic().String())
	assert.Equal(t, "true", root.AllowDeleteLogic().String())

	details := root.Details()
	require.Len(t, details, 1)
	lines := details[0]
	assert.Equal(t, datatypes.DetailID("lines"), lines.DetailID())
	assert.Equal(t, "c_orderline", lines.Binding().TableName())

	field, err := lines.Binding().FieldByName("Line")
	require.NoError(t, err)
	assert.Equal(t, sqlbind.FieldTypeInt, field.Type())
}

func TestCompileDefaultsFieldTypeToString(t *testing.T) {
	root, err := Compile(salesOrderDef(t), sqlbind.NoAccessRestriction())
	require.NoError(t, err)

	field, err := root.Binding().FieldByName("DocumentNo")
	require.NoError(t, err)
	assert.Equal(t, sqlbind.FieldTypeString, field.Type())
	assert.True(t, field.IsDefaultOrderBy())
}

func TestCompileRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(def *WindowDef)
	}{
		{"missing window id", func(def *WindowDef) { def.WindowID = "" }},
		{"missing table", func(def *WindowDef) { def.Entity.Table = "" }},
		{"no fields", func(def *WindowDef) { def.Entity.Fields = nil }},
		{"field without column or sql", func(def *WindowDef) { def.Entity.Fields[1].Column = "" }},
		{"unknown field type", func(def *WindowDef) { def.Entity.Fields[1].Type = "Fancy" }},
		{"tab without detail id", func(def *WindowDef) { def.Tabs[0].DetailID = "" }},
		{"tab without link column", func(def *WindowDef) { def.Tabs[0].LinkColumn = "" }},
		{"malformed permission logic", func(def *WindowDef) { def.Entity.AllowCreateNew = "@Processed@" }},
		{"second key field", func(def *WindowDef) { def.Entity.Fields[1].Key = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := salesOrderDef(t)
			tt.mutate(&def)
			_, err := Compile(def, sqlbind.NoAccessRestriction())
			require.Error(t, err)
		})
	}
}

func TestProviderLoadsAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "sales-order", salesOrderYAML)
	p := NewProvider(dir, sqlbind.NoAccessRestriction())

	root, err := p.WindowDescriptor("sales-order")
	require.NoError(t, err)
	assert.Equal(t, datatypes.WindowID("sales-order"), root.WindowID())

	// served from the cache even after the file disappears
	require.NoError(t, os.Remove(filepath.Join(dir, "sales-order.yaml")))
	again, err := p.WindowDescriptor("sales-order")
	require.NoError(t, err)
	assert.Same(t, root, again)

	p.InvalidateWindow("sales-order")
	_, err = p.WindowDescriptor("sales-order")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProviderUnknownWindow(t *testing.T) {
	p := NewProvider(t.TempDir(), sqlbind.NoAccessRestriction())
	_, err := p.WindowDescriptor("nope")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProviderEmptyWindowID(t *testing.T) {
	p := NewProvider(t.TempDir(), sqlbind.NoAccessRestriction())
	_, err := p.WindowDescriptor("")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestProviderRejectsWindowIDMismatch(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "other-name", salesOrderYAML)
	p := NewProvider(dir, sqlbind.NoAccessRestriction())

	_, err := p.WindowDescriptor("other-name")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestProviderListWindowIDs(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "sales-order", salesOrderYAML)
	writeDefinition(t, dir, "purchase-order", salesOrderYAML)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a window"), 0o644))
	p := NewProvider(dir, sqlbind.NoAccessRestriction())

	ids, err := p.ListWindowIDs()
	require.NoError(t, err)
	assert.Equal(t, []datatypes.WindowID{"purchase-order", "sales-order"}, ids)
}

func TestProviderInvalidateAllForcesRecompile(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "sales-order", salesOrderYAML)
	p := NewProvider(dir, sqlbind.NoAccessRestriction())

	first, err := p.WindowDescriptor("sales-order")
	require.NoError(t, err)

	p.InvalidateAll()
	second, err := p.WindowDescriptor("sales-order")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}
