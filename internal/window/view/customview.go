package view

import (
	"fmt"
	"sort"

	"docwindow/internal/cache"
	"docwindow/internal/domain"
	"docwindow/internal/window/filter"
	"docwindow/internal/window/sqlbind"
)

// Default paging applied when a page request leaves them unset.
const (
	DefaultFirstRow   = 0
	DefaultPageLength = 30
)

// Page is one window of view rows.
type Page[T Row] struct {
	Rows     []T
	FirstRow int
	Total    int
}

// RowsSupplier produces the full row set of a view.
type RowsSupplier[T Row] func() ([]T, error)

// ChangeListener is notified when a view's content changed entirely.
type ChangeListener func(viewID string)

// CustomView serves rows produced by a supplier. The supplier runs once and
// the rows are cached until InvalidateAll. Paging and sorting happen in
// memory over the cached set.
//
// Custom views are backed by application code, not by SQL, so the SQL-side
// view operations (where clause extraction, filter dropdowns and typeahead)
// are unsupported by contract.
type CustomView[T Row] struct {
	viewID   string
	fields   *FieldTable[T]
	rows     *cache.MemoizingSupplier[viewRows[T]]
	onChange ChangeListener
}

type viewRows[T Row] struct {
	ordered []T
	byID    map[string]T
}

func NewCustomView[T Row](viewID string, fields *FieldTable[T], supplier RowsSupplier[T], onChange ChangeListener) *CustomView[T] {
	v := &CustomView[T]{
		viewID:   viewID,
		fields:   fields,
		onChange: onChange,
	}
	v.rows = cache.NewMemoizingSupplier(func() (viewRows[T], error) {
		ordered, err := supplier()
		if err != nil {
			return viewRows[T]{}, err
		}
		byID := make(map[string]T, len(ordered))
		for _, row := range ordered {
			byID[row.ID()] = row
		}
		return viewRows[T]{ordered: ordered, byID: byID}, nil
	})
	return v
}

func (v *CustomView[T]) ViewID() string { return v.viewID }

// FieldNames returns the view's projected field names.
func (v *CustomView[T]) FieldNames() []string {
	return v.fields.FieldNames()
}

// Size returns the total row count.
func (v *CustomView[T]) Size() (int, error) {
	rows, err := v.rows.Get()
	if err != nil {
		return 0, err
	}
	return len(rows.ordered), nil
}

// GetPage returns one window of rows, sorted when orderBys are given.
// Negative firstRow falls back to 0, non-positive pageLength to the default
// page size.
func (v *CustomView[T]) GetPage(firstRow, pageLength int, orderBys []sqlbind.OrderBy) (Page[T], error) {
	rows, err := v.rows.Get()
	if err != nil {
		return Page[T]{}, err
	}
	if firstRow < 0 {
		firstRow = DefaultFirstRow
	}
	if pageLength <= 0 {
		pageLength = DefaultPageLength
	}

	ordered := rows.ordered
	if len(orderBys) > 0 {
		cmp, err := v.fields.Comparator(orderBys)
		if err != nil {
			return Page[T]{}, err
		}
		ordered = make([]T, len(rows.ordered))
		copy(ordered, rows.ordered)
		sort.SliceStable(ordered, func(i, j int) bool { return cmp(ordered[i], ordered[j]) < 0 })
	}

	if firstRow >= len(ordered) {
		return Page[T]{Rows: nil, FirstRow: firstRow, Total: len(ordered)}, nil
	}
	end := firstRow + pageLength
	if end > len(ordered) {
		end = len(ordered)
	}
	page := make([]T, end-firstRow)
	copy(page, ordered[firstRow:end])
	return Page[T]{Rows: page, FirstRow: firstRow, Total: len(ordered)}, nil
}

// GetByID returns one row by id.
func (v *CustomView[T]) GetByID(rowID string) (T, error) {
	var zero T
	rows, err := v.rows.Get()
	if err != nil {
		return zero, err
	}
	row, ok := rows.byID[rowID]
	if !ok {
		return zero, fmt.Errorf("%w: no row %s in view %s", domain.ErrNotFound, rowID, v.viewID)
	}
	return row, nil
}

// RenderRow projects a row through the view's field table.
func (v *CustomView[T]) RenderRow(row T) map[string]any {
	return v.fields.RenderRow(row)
}

// InvalidateAll drops the cached rows and announces a full view change.
func (v *CustomView[T]) InvalidateAll() {
	v.rows.Forget()
	if v.onChange != nil {
		v.onChange(v.viewID)
	}
}

// SQLWhereClause is unsupported: custom views are not SQL backed.
func (v *CustomView[T]) SQLWhereClause() (sqlbind.SQLAndParams, error) {
	return sqlbind.SQLAndParams{}, fmt.Errorf("%w: view %s has no SQL where clause", domain.ErrUnsupported, v.viewID)
}

// FilterParameterDropdown is unsupported: custom views have no filter
// parameter lookups.
func (v *CustomView[T]) FilterParameterDropdown(filterID, parameterName string) ([]any, error) {
	return nil, fmt.Errorf("%w: view %s supports no filter parameter dropdown (%s/%s)", domain.ErrUnsupported, v.viewID, filterID, parameterName)
}

// FilterParameterTypeahead is unsupported for the same reason.
func (v *CustomView[T]) FilterParameterTypeahead(filterID, parameterName, query string) ([]any, error) {
	return nil, fmt.Errorf("%w: view %s supports no filter parameter typeahead (%s/%s)", domain.ErrUnsupported, v.viewID, filterID, parameterName)
}

// StickyFilters returns the filters baked into the view. Custom views carry
// none.
func (v *CustomView[T]) StickyFilters() *filter.List {
	return filter.Empty
}
