package view

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwindow/internal/domain"
	"docwindow/internal/window/sqlbind"
)

type orderRow struct {
	id         string
	documentNo string
	grandTotal float64
}

func (r orderRow) ID() string { return r.id }

func orderFieldTable() *FieldTable[orderRow] {
	return NewFieldTable[orderRow]().
		Add("DocumentNo", func(r orderRow) any { return r.documentNo }).
		Add("GrandTotal", func(r orderRow) any { return r.grandTotal })
}

func orderRows() []orderRow {
	return []orderRow{
		{id: "1", documentNo: "SO-003", grandTotal: 50},
		{id: "2", documentNo: "SO-001", grandTotal: 200},
		{id: "3", documentNo: "SO-002", grandTotal: 100},
	}
}

func newOrderView(onChange ChangeListener) *CustomView[orderRow] {
	return NewCustomView("orders-view", orderFieldTable(), func() ([]orderRow, error) {
		return orderRows(), nil
	}, onChange)
}

func TestFieldTableRejectsDuplicateField(t *testing.T) {
	table := NewFieldTable[orderRow]().Add("DocumentNo", func(r orderRow) any { return r.documentNo })
	assert.Panics(t, func() {
		table.Add("DocumentNo", func(r orderRow) any { return nil })
	})
}

func TestFieldTableRenderRow(t *testing.T) {
	rendered := orderFieldTable().RenderRow(orderRow{id: "1", documentNo: "SO-001", grandTotal: 99.5})
	assert.Equal(t, map[string]any{"DocumentNo": "SO-001", "GrandTotal": 99.5}, rendered)
}

func TestFieldTableComparator(t *testing.T) {
	table := orderFieldTable()

	cmp, err := table.Comparator([]sqlbind.OrderBy{{FieldName: "GrandTotal", Ascending: true}})
	require.NoError(t, err)
	assert.Negative(t, cmp(orderRow{grandTotal: 1}, orderRow{grandTotal: 2}))
	assert.Positive(t, cmp(orderRow{grandTotal: 2}, orderRow{grandTotal: 1}))
	assert.Zero(t, cmp(orderRow{grandTotal: 1}, orderRow{grandTotal: 1}))

	_, err = table.Comparator([]sqlbind.OrderBy{{FieldName: "NoSuchField", Ascending: true}})
	require.ErrorIs(t, err, domain.ErrValidation)
}

type noteRow struct {
	id   string
	note any
}

func (r noteRow) ID() string { return r.id }

func TestFieldTableComparatorNullOrdering(t *testing.T) {
	table := NewFieldTable[noteRow]().
		Add("Note", func(r noteRow) any { return r.note })

	nilRow := noteRow{id: "1", note: nil}
	bRow := noteRow{id: "2", note: "b"}
	aRow := noteRow{id: "3", note: "a"}

	// nulls last regardless of direction
	for _, ascending := range []bool{true, false} {
		cmp, err := table.Comparator([]sqlbind.OrderBy{{FieldName: "Note", Ascending: ascending, NullsLast: true}})
		require.NoError(t, err)
		assert.Positive(t, cmp(nilRow, bRow))
		assert.Negative(t, cmp(bRow, nilRow))
	}

	// without the flag nulls sort first
	cmp, err := table.Comparator([]sqlbind.OrderBy{{FieldName: "Note", Ascending: true}})
	require.NoError(t, err)
	assert.Negative(t, cmp(nilRow, bRow))
	assert.Zero(t, cmp(nilRow, nilRow))
	assert.Negative(t, cmp(aRow, bRow))
}

func TestGetPageDefaults(t *testing.T) {
	v := newOrderView(nil)

	page, err := v.GetPage(-1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, page.FirstRow)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Rows, 3)
	// without orderBys the supplier order is kept
	assert.Equal(t, "1", page.Rows[0].ID())
}

func TestGetPageSorts(t *testing.T) {
	v := newOrderView(nil)

	page, err := v.GetPage(0, 10, []sqlbind.OrderBy{{FieldName: "DocumentNo", Ascending: true}})
	require.NoError(t, err)
	require.Len(t, page.Rows, 3)
	assert.Equal(t, "SO-001", page.Rows[0].documentNo)
	assert.Equal(t, "SO-002", page.Rows[1].documentNo)
	assert.Equal(t, "SO-003", page.Rows[2].documentNo)

	page, err = v.GetPage(0, 10, []sqlbind.OrderBy{{FieldName: "GrandTotal", Ascending: false}})
	require.NoError(t, err)
	assert.Equal(t, 200.0, page.Rows[0].grandTotal)
	assert.Equal(t, 50.0, page.Rows[2].grandTotal)

	// sorting must not disturb the cached order
	page, err = v.GetPage(0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", page.Rows[0].ID())
}

func TestGetPageWindowing(t *testing.T) {
	v := newOrderView(nil)

	page, err := v.GetPage(1, 1, nil)
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "2", page.Rows[0].ID())
	assert.Equal(t, 1, page.FirstRow)
	assert.Equal(t, 3, page.Total)

	// off the end yields an empty page, not an error
	page, err = v.GetPage(10, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 3, page.Total)
}

func TestGetByID(t *testing.T) {
	v := newOrderView(nil)

	row, err := v.GetByID("2")
	require.NoError(t, err)
	assert.Equal(t, "SO-001", row.documentNo)

	_, err = v.GetByID("99")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSupplierRunsOncePerGeneration(t *testing.T) {
	supplierCalls := 0
	var changedViews []string
	v := NewCustomView("orders-view", orderFieldTable(), func() ([]orderRow, error) {
		supplierCalls++
		return orderRows(), nil
	}, func(viewID string) {
		changedViews = append(changedViews, viewID)
	})

	_, err := v.Size()
	require.NoError(t, err)
	_, err = v.GetPage(0, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, supplierCalls)

	v.InvalidateAll()
	assert.Equal(t, []string{"orders-view"}, changedViews)

	_, err = v.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, supplierCalls)
}

func TestSupplierErrorIsNotCached(t *testing.T) {
	supplierCalls := 0
	v := NewCustomView("orders-view", orderFieldTable(), func() ([]orderRow, error) {
		supplierCalls++
		if supplierCalls == 1 {
			return nil, errors.New("backend down")
		}
		return orderRows(), nil
	}, nil)

	_, err := v.Size()
	require.Error(t, err)

	size, err := v.Size()
	require.NoError(t, err)
	assert.Equal(t, 3, size)
}

func TestSQLOperationsUnsupported(t *testing.T) {
	v := newOrderView(nil)

	_, err := v.SQLWhereClause()
	require.ErrorIs(t, err, domain.ErrUnsupported)

	_, err = v.FilterParameterDropdown("default", "DocumentNo")
	require.ErrorIs(t, err, domain.ErrUnsupported)

	_, err = v.FilterParameterTypeahead("default", "DocumentNo", "SO")
	require.ErrorIs(t, err, domain.ErrUnsupported)

	assert.True(t, v.StickyFilters().IsEmpty())
}

func TestRenderRowThroughView(t *testing.T) {
	v := newOrderView(nil)
	row, err := v.GetByID("3")
	require.NoError(t, err)
	rendered := v.RenderRow(row)
	assert.Equal(t, "SO-002", rendered["DocumentNo"])
	assert.Equal(t, 100.0, rendered["GrandTotal"])
}
