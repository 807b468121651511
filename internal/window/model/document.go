package model

import (
	"context"
	"fmt"
	"strconv"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/logicexpr"
)

// CopyMode selects the mutability of a document copy.
type CopyMode int

const (
	// CopyWritable checks out a writable copy for editing.
	CopyWritable CopyMode = iota
	// CopyReadonly checks in a frozen snapshot.
	CopyReadonly
)

// DocumentConfig carries everything needed to materialize a document.
type DocumentConfig struct {
	Descriptor *EntityDescriptor
	Repository DocumentsRepository
	ID         datatypes.DocumentID
	Parent     *Document
	// Values maps field name to value. The document takes ownership.
	Values   map[string]any
	IsNew    bool
	Writable bool
}

// Document is one node of the document graph: a root document or an included
// row, with its field values and the collections of its detail rows.
//
// Field values are copy-on-write: Copy shares the value map between original
// and copy and the first write on either side clones it. A document is not
// safe for concurrent mutation; included collections serialize access to
// their rows, root documents are guarded by their owner.
type Document struct {
	descriptor *EntityDescriptor
	repository DocumentsRepository
	id         datatypes.DocumentID
	parent     *Document

	values       map[string]any
	valuesShared bool

	isNew    bool
	writable bool
	staled   bool

	includedByDetailID map[datatypes.DetailID]*IncludedDocumentsCollection
}

func NewDocument(cfg DocumentConfig) *Document {
	doc := &Document{
		descriptor:         cfg.Descriptor,
		repository:         cfg.Repository,
		id:                 cfg.ID,
		parent:             cfg.Parent,
		values:             cfg.Values,
		isNew:              cfg.IsNew,
		writable:           cfg.Writable,
		includedByDetailID: map[datatypes.DetailID]*IncludedDocumentsCollection{},
	}
	if doc.values == nil {
		doc.values = map[string]any{}
	}
	for _, detail := range cfg.Descriptor.Details() {
		doc.includedByDetailID[detail.DetailID()] = newIncludedDocumentsCollection(doc, detail)
	}
	return doc
}

func (d *Document) Descriptor() *EntityDescriptor { return d.descriptor }
func (d *Document) ID() datatypes.DocumentID      { return d.id }
func (d *Document) Parent() *Document             { return d.parent }
func (d *Document) IsNew() bool                   { return d.isNew }
func (d *Document) IsWritable() bool              { return d.writable }
func (d *Document) IsStaled() bool                { return d.staled }

// Path returns the document's address within its window.
func (d *Document) Path() datatypes.DocumentPath {
	if d.parent == nil {
		return datatypes.RootDocumentPath(d.descriptor.WindowID(), d.id)
	}
	return d.parent.Path().ChildPath(d.descriptor.DetailID(), d.id)
}

// FieldValue returns the raw value of the named field.
func (d *Document) FieldValue(fieldName string) (any, bool) {
	v, ok := d.values[fieldName]
	return v, ok
}

// FieldValues returns a snapshot of all field values.
func (d *Document) FieldValues() map[string]any {
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v
	}
	return out
}

func (d *Document) FieldValueAsString(fieldName string) string {
	v, ok := d.values[fieldName]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// FieldValueAsInt returns the field coerced to int, or defaultValue when the
// field is missing, nil or not numeric.
func (d *Document) FieldValueAsInt(fieldName string, defaultValue int) int {
	v, ok := d.values[fieldName]
	if !ok || v == nil {
		return defaultValue
	}
	switch typed := v.(type) {
	case int:
		return typed
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	case string:
		if n, err := strconv.Atoi(typed); err == nil {
			return n
		}
	}
	return defaultValue
}

// IsProcessed reports whether the document is frozen against changes.
func (d *Document) IsProcessed() bool {
	switch v, _ := d.values[FieldNameProcessed]; typed := v.(type) {
	case bool:
		return typed
	case string:
		return typed == "Y" || typed == "true"
	default:
		return false
	}
}

// SetFieldValue updates one field, recording the change on the collector.
// Fails when the document is read-only or already processed.
func (d *Document) SetFieldValue(fieldName string, value any, collector *ChangeCollector) error {
	if !d.writable {
		return &domain.InvalidStateError{
			Operation: "change field " + fieldName,
			Reason:    fmt.Sprintf("document %s is read-only", d.Path()),
		}
	}
	if d.IsProcessed() && fieldName != FieldNameProcessed {
		return &domain.InvalidStateError{
			Operation: "change field " + fieldName,
			Reason:    fmt.Sprintf("document %s is processed", d.Path()),
		}
	}
	d.copyValuesIfShared()
	d.values[fieldName] = value
	collector.CollectFieldChanged(d.Path(), fieldName, value)
	return nil
}

// copyValuesIfShared clones the value map before the first write after a
// Copy, leaving the sharing peer untouched.
func (d *Document) copyValuesIfShared() {
	if !d.valuesShared {
		return
	}
	cloned := make(map[string]any, len(d.values))
	for k, v := range d.values {
		cloned[k] = v
	}
	d.values = cloned
	d.valuesShared = false
}

// ReplaceFieldValues installs freshly loaded field values, taking ownership
// of the map. Used by repositories on load, save and refresh.
func (d *Document) ReplaceFieldValues(values map[string]any) {
	if values == nil {
		values = map[string]any{}
	}
	d.values = values
	d.valuesShared = false
	d.staled = false
	d.isNew = false
}

// AssignID installs the permanent id after the first save.
func (d *Document) AssignID(id datatypes.DocumentID) {
	d.id = id
}

// MarkStaled flags the document as possibly out of date with the database.
func (d *Document) MarkStaled() {
	d.staled = true
}

// RefreshFromRepository reloads this document's field values from storage and
// clears the staled flag.
func (d *Document) RefreshFromRepository(ctx context.Context) error {
	if err := d.repository.Refresh(ctx, d); err != nil {
		return fmt.Errorf("refreshing document %s: %w", d.Path(), err)
	}
	d.staled = false
	return nil
}

// AsEvaluatee adapts the document for logic expression evaluation: variables
// resolve to field values.
func (d *Document) AsEvaluatee() logicexpr.Evaluator {
	return func(name string) (any, bool) {
		v, ok := d.values[name]
		return v, ok
	}
}

// IncludedCollection returns the collection of rows of the given detail tab.
func (d *Document) IncludedCollection(detailID datatypes.DetailID) (*IncludedDocumentsCollection, error) {
	collection, ok := d.includedByDetailID[detailID]
	if !ok {
		return nil, fmt.Errorf("%w: no detail %s in document %s", domain.ErrNotFound, detailID, d.Path())
	}
	return collection, nil
}

// Copy returns a copy of this document attached to newParent (nil for root
// documents). Field values are shared copy-on-write; included collections are
// copied recursively with the same mode.
func (d *Document) Copy(newParent *Document, mode CopyMode) *Document {
	d.valuesShared = true
	copied := &Document{
		descriptor:         d.descriptor,
		repository:         d.repository,
		id:                 d.id,
		parent:             newParent,
		values:             d.values,
		valuesShared:       true,
		isNew:              d.isNew,
		writable:           mode == CopyWritable,
		staled:             d.staled,
		includedByDetailID: make(map[datatypes.DetailID]*IncludedDocumentsCollection, len(d.includedByDetailID)),
	}
	for detailID, collection := range d.includedByDetailID {
		copied.includedByDetailID[detailID] = collection.copyTo(copied, mode)
	}
	return copied
}

func (d *Document) String() string {
	return fmt.Sprintf("Document{path=%s, new=%t, writable=%t}", d.Path(), d.isNew, d.writable)
}
