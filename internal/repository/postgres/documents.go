package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/model"
	"docwindow/internal/window/sqlbind"
)

// DocumentsRepository loads and stores documents using the SQL produced by
// their entity bindings. One repository serves every window; the per-entity
// SQL lives in the descriptors.
type DocumentsRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewDocumentsRepository(pool *pgxpool.Pool, logger *slog.Logger) *DocumentsRepository {
	return &DocumentsRepository{pool: pool, logger: logger}
}

var _ model.DocumentsRepository = (*DocumentsRepository)(nil)

// RetrieveDocuments fetches the documents matching the query.
func (r *DocumentsRepository) RetrieveDocuments(ctx context.Context, query model.DocumentQuery) ([]*model.Document, error) {
	if query.Parent != nil && query.Parent.IsNew() {
		// A parent that was never saved cannot have rows in the database.
		return nil, nil
	}

	sql, params, err := r.buildSelect(query)
	if err != nil {
		return nil, err
	}

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", query.Descriptor.Binding().TableName(), err)
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		doc, err := r.scanDocument(rows, query)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s rows: %w", query.Descriptor.Binding().TableName(), err)
	}
	return docs, nil
}

// RetrieveDocument fetches exactly one document, or a typed not-found error
// carrying the document's path.
func (r *DocumentsRepository) RetrieveDocument(ctx context.Context, query model.DocumentQuery) (*model.Document, error) {
	if query.RecordID.IsEmpty() {
		return nil, fmt.Errorf("%w: record id is required", domain.ErrValidation)
	}
	query.Limit = 1

	docs, err := r.RetrieveDocuments(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, model.NewDocumentNotFoundError(r.queryPath(query))
	}
	return docs[0], nil
}

func (r *DocumentsRepository) queryPath(query model.DocumentQuery) datatypes.DocumentPath {
	if query.Parent != nil {
		return query.Parent.Path().ChildPath(query.Descriptor.DetailID(), query.RecordID)
	}
	return datatypes.RootDocumentPath(query.Descriptor.WindowID(), query.RecordID)
}

// buildSelect composes the full select: binding select, where conditions,
// order by and paging. Placeholders are numbered by the params collector.
func (r *DocumentsRepository) buildSelect(query model.DocumentQuery) (string, []any, error) {
	binding := query.Descriptor.Binding()
	collector := sqlbind.NewParamsCollector()

	var conditions []string

	if whereExpr := binding.SQLWhereClause(); whereExpr != nil {
		if resolved, err := whereExpr.Resolve(noVariables); err == nil {
			conditions = append(conditions, "("+resolved+")")
		} else {
			r.logger.Debug("skipping non-constant entity where clause",
				"table", binding.TableName(), "error", err)
		}
	}

	if !query.RecordID.IsEmpty() {
		keySQL, err := r.keyColumnSQL(binding)
		if err != nil {
			return "", nil, err
		}
		recordID, err := query.RecordID.ToInt()
		if err != nil {
			return "", nil, fmt.Errorf("%w: record id %s is not numeric", domain.ErrValidation, query.RecordID)
		}
		conditions = append(conditions, keySQL+" = "+collector.Add(recordID))
	}

	if query.Parent != nil {
		linkSQL, parentID, err := r.parentLinkCondition(binding, query.Parent)
		if err != nil {
			return "", nil, err
		}
		conditions = append(conditions, linkSQL+" = "+collector.Add(parentID))
	}

	if !query.Filters.IsEmpty() {
		filtersSQL, err := sqlbind.ConvertFilters(
			sqlbind.NewEntityFilterConverter(binding),
			collector,
			query.Filters,
			sqlbind.SQLOptions{TableAlias: binding.TableAlias()},
		)
		if err != nil {
			return "", nil, fmt.Errorf("converting filters for %s: %w", binding.TableName(), err)
		}
		if filtersSQL != "" {
			conditions = append(conditions, filtersSQL)
		}
	}

	var sb strings.Builder
	sb.WriteString(binding.SQLSelectAllFrom())
	if len(conditions) > 0 {
		sb.WriteString("\n WHERE ")
		sb.WriteString(strings.Join(conditions, "\n AND "))
	}

	orderBys := query.OrderBys
	if len(orderBys) == 0 {
		orderBys = binding.DefaultOrderBys()
	}
	if len(orderBys) > 0 {
		orderBySQL, err := binding.BuildSQLOrderBy(orderBys)
		if err != nil {
			return "", nil, err
		}
		if orderBySQL != "" {
			sb.WriteString("\n ORDER BY ")
			sb.WriteString(orderBySQL)
		}
	}

	if query.Limit > 0 {
		sb.WriteString("\n LIMIT ")
		sb.WriteString(collector.Add(query.Limit))
	}
	if query.Offset > 0 {
		sb.WriteString("\n OFFSET ")
		sb.WriteString(collector.Add(query.Offset))
	}

	return sb.String(), collector.Params(), nil
}

// noVariables resolves nothing: only constant entity where clauses apply to
// repository queries.
func noVariables(string) (string, bool) { return "", false }

func (r *DocumentsRepository) keyField(binding *sqlbind.EntityBinding) (*sqlbind.FieldBinding, error) {
	for _, field := range binding.Fields() {
		if field.IsKeyColumn() {
			return field, nil
		}
	}
	return nil, fmt.Errorf("%w: table %s has no key column", domain.ErrValidation, binding.TableName())
}

func (r *DocumentsRepository) keyColumnSQL(binding *sqlbind.EntityBinding) (string, error) {
	field, err := r.keyField(binding)
	if err != nil {
		return "", err
	}
	return field.ExposedValue().WithTableAlias(binding.TableAlias()).ToSQL(), nil
}

// parentLinkCondition returns the child side link column qualified with the
// entity alias and the parent's key value.
func (r *DocumentsRepository) parentLinkCondition(binding *sqlbind.EntityBinding, parent *model.Document) (string, int, error) {
	linkColumn := binding.LinkColumnName()
	if linkColumn == "" {
		return "", 0, fmt.Errorf("%w: table %s has no child-to-parent link", domain.ErrValidation, binding.TableName())
	}
	parentID, err := parent.ID().ToInt()
	if err != nil {
		return "", 0, fmt.Errorf("%w: parent id %s is not numeric", domain.ErrValidation, parent.ID())
	}
	linkSQL := binding.TableAlias() + "." + linkColumn
	for _, field := range binding.Fields() {
		if field.ColumnName() == linkColumn {
			// the outer select exposes the column under its field name
			linkSQL = field.ExposedValue().WithTableAlias(binding.TableAlias()).ToSQL()
			break
		}
	}
	return linkSQL, parentID, nil
}

// scanDocument materializes one row into a document, keyed by the row's
// column aliases (field names and display aliases).
func (r *DocumentsRepository) scanDocument(rows pgx.Rows, query model.DocumentQuery) (*model.Document, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("reading row values: %w", err)
	}

	fieldValues := make(map[string]any, len(values))
	for i, desc := range rows.FieldDescriptions() {
		fieldValues[desc.Name] = values[i]
	}

	keyField, err := r.keyField(query.Descriptor.Binding())
	if err != nil {
		return nil, err
	}
	keyValue, ok := fieldValues[keyField.FieldName()]
	if !ok {
		return nil, fmt.Errorf("row of %s is missing key field %s",
			query.Descriptor.Binding().TableName(), keyField.FieldName())
	}

	doc := model.NewDocument(model.DocumentConfig{
		Descriptor: query.Descriptor,
		Repository: r,
		ID:         datatypes.NewDocumentID(fmt.Sprintf("%v", keyValue)),
		Parent:     query.Parent,
		Values:     fieldValues,
		IsNew:      false,
		Writable:   false,
	})
	return doc, nil
}

// CreateNewDocument builds a fresh in-memory document with a temporary id.
func (r *DocumentsRepository) CreateNewDocument(descriptor *model.EntityDescriptor, parent *model.Document) (*model.Document, error) {
	return model.NewDocument(model.DocumentConfig{
		Descriptor: descriptor,
		Repository: r,
		ID:         datatypes.NewTemporaryDocumentID(),
		Parent:     parent,
		Values:     map[string]any{},
		IsNew:      true,
		Writable:   true,
	}), nil
}

// Save inserts or updates the document's row, then refreshes the document
// from what the database actually stored.
func (r *DocumentsRepository) Save(ctx context.Context, doc *model.Document) error {
	if doc.IsNew() {
		if err := r.insert(ctx, doc); err != nil {
			return err
		}
	} else {
		if err := r.update(ctx, doc); err != nil {
			return err
		}
	}
	return r.Refresh(ctx, doc)
}

// persistableFields lists the fields written on insert and update: plain
// columns, excluding the key (database-assigned) and virtual columns.
func persistableFields(binding *sqlbind.EntityBinding) []*sqlbind.FieldBinding {
	var out []*sqlbind.FieldBinding
	for _, field := range binding.Fields() {
		if field.IsKeyColumn() || field.IsVirtualColumn() {
			continue
		}
		out = append(out, field)
	}
	return out
}

func (r *DocumentsRepository) insert(ctx context.Context, doc *model.Document) error {
	binding := doc.Descriptor().Binding()
	collector := sqlbind.NewParamsCollector()

	var columns, placeholders []string
	for _, field := range persistableFields(binding) {
		value, ok := doc.FieldValue(field.FieldName())
		if !ok {
			continue
		}
		columns = append(columns, field.ColumnName())
		placeholders = append(placeholders, collector.Add(value))
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: document %s has no values to insert", domain.ErrValidation, doc.Path())
	}

	keyField, err := r.keyField(binding)
	if err != nil {
		return err
	}

	sql := "INSERT INTO " + binding.TableName() +
		" (" + strings.Join(columns, ", ") + ")" +
		" VALUES (" + strings.Join(placeholders, ", ") + ")" +
		" RETURNING " + keyField.ColumnName()

	var newID int
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, sql, collector.Params()...).Scan(&newID); err != nil {
		return fmt.Errorf("inserting into %s: %w", binding.TableName(), err)
	}

	r.logger.Debug("document inserted", "table", binding.TableName(), "id", newID)
	doc.AssignID(datatypes.NewDocumentIDFromInt(newID))
	return nil
}

func (r *DocumentsRepository) update(ctx context.Context, doc *model.Document) error {
	binding := doc.Descriptor().Binding()
	collector := sqlbind.NewParamsCollector()

	var assignments []string
	for _, field := range persistableFields(binding) {
		value, ok := doc.FieldValue(field.FieldName())
		if !ok {
			continue
		}
		assignments = append(assignments, field.ColumnName()+" = "+collector.Add(value))
	}
	if len(assignments) == 0 {
		return nil
	}

	keyField, err := r.keyField(binding)
	if err != nil {
		return err
	}
	recordID, err := doc.ID().ToInt()
	if err != nil {
		return fmt.Errorf("%w: document id %s is not numeric", domain.ErrValidation, doc.ID())
	}

	sql := "UPDATE " + binding.TableName() +
		" SET " + strings.Join(assignments, ", ") +
		" WHERE " + keyField.ColumnName() + " = " + collector.Add(recordID)

	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, sql, collector.Params()...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", binding.TableName(), err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewDocumentNotFoundError(doc.Path())
	}
	return nil
}

// Delete removes the document's row.
func (r *DocumentsRepository) Delete(ctx context.Context, doc *model.Document) error {
	binding := doc.Descriptor().Binding()

	keyField, err := r.keyField(binding)
	if err != nil {
		return err
	}
	recordID, err := doc.ID().ToInt()
	if err != nil {
		return fmt.Errorf("%w: document id %s is not numeric", domain.ErrValidation, doc.ID())
	}

	sql := "DELETE FROM " + binding.TableName() + " WHERE " + keyField.ColumnName() + " = $1"
	tag, err := GetExecutor(ctx, r.pool).Exec(ctx, sql, recordID)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", binding.TableName(), err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewDocumentNotFoundError(doc.Path())
	}

	r.logger.Debug("document deleted", "table", binding.TableName(), "id", recordID)
	return nil
}

// Refresh reloads the document's field values from its stored row.
func (r *DocumentsRepository) Refresh(ctx context.Context, doc *model.Document) error {
	fresh, err := r.RetrieveDocument(ctx, model.DocumentQuery{
		Descriptor: doc.Descriptor(),
		RecordID:   doc.ID(),
		Parent:     doc.Parent(),
	})
	if err != nil {
		var notFound *model.DocumentNotFoundError
		if errors.As(err, &notFound) {
			return model.NewDocumentNotFoundError(doc.Path())
		}
		return err
	}
	doc.ReplaceFieldValues(fresh.FieldValues())
	return nil
}

// RetrieveVersion returns the document's last-updated timestamp as a string.
func (r *DocumentsRepository) RetrieveVersion(ctx context.Context, descriptor *model.EntityDescriptor, recordID datatypes.DocumentID) (string, error) {
	binding := descriptor.Binding()
	if !binding.IsVersioningSupported() {
		return "", fmt.Errorf("%w: table %s supports no version checks", domain.ErrUnsupported, binding.TableName())
	}
	id, err := recordID.ToInt()
	if err != nil {
		return "", fmt.Errorf("%w: record id %s is not numeric", domain.ErrValidation, recordID)
	}

	var version any
	err = GetExecutor(ctx, r.pool).QueryRow(ctx, binding.SQLSelectVersionByID(), id).Scan(&version)
	if IsPgNoRowsError(err) {
		return "", model.NewDocumentNotFoundError(datatypes.RootDocumentPath(descriptor.WindowID(), recordID))
	}
	if err != nil {
		return "", fmt.Errorf("querying version of %s/%v: %w", binding.TableName(), id, err)
	}
	return fmt.Sprintf("%v", version), nil
}
