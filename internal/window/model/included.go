package model

import (
	"context"
	"fmt"
	"sync"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/logicexpr"
)

// IncludedDocumentsCollection holds the rows of one detail tab of a parent
// document. Rows are loaded lazily: single rows on demand, the full set when
// a caller needs all of them. Once fully loaded the collection serves from
// memory until something marks it stale.
//
// All operations lock the collection, so concurrent readers of the same
// parent document are safe with each other.
type IncludedDocumentsCollection struct {
	mu sync.Mutex

	parentDocument *Document
	descriptor     *EntityDescriptor

	order []datatypes.DocumentID
	byID  map[datatypes.DocumentID]*Document

	fullyLoaded bool
	stale       bool
}

func newIncludedDocumentsCollection(parent *Document, descriptor *EntityDescriptor) *IncludedDocumentsCollection {
	return &IncludedDocumentsCollection{
		parentDocument: parent,
		descriptor:     descriptor,
		byID:           map[datatypes.DocumentID]*Document{},
	}
}

func (c *IncludedDocumentsCollection) DetailID() datatypes.DetailID {
	return c.descriptor.DetailID()
}

func (c *IncludedDocumentsCollection) rowPath(rowID datatypes.DocumentID) datatypes.DocumentPath {
	return c.parentDocument.Path().ChildPath(c.descriptor.DetailID(), rowID)
}

// GetDocumentByID returns the row with the given id, fetching it from the
// repository when it is not cached. Stale cached rows are refreshed first.
func (c *IncludedDocumentsCollection) GetDocumentByID(ctx context.Context, rowID datatypes.DocumentID) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getDocumentByIDLocked(ctx, rowID)
}

func (c *IncludedDocumentsCollection) getDocumentByIDLocked(ctx context.Context, rowID datatypes.DocumentID) (*Document, error) {
	if rowID.IsEmpty() {
		return nil, fmt.Errorf("%w: empty row id for detail %s", domain.ErrValidation, c.descriptor.DetailID())
	}

	if doc, ok := c.byID[rowID]; ok {
		if !doc.IsStaled() && !c.stale {
			return doc, nil
		}
		if doc.IsNew() {
			// Never saved, nothing in the database to refresh from.
			return doc, nil
		}
		if err := doc.RefreshFromRepository(ctx); err != nil {
			if IsDocumentNotFound(err, doc.Path()) {
				c.removeLocked(rowID)
			}
			return nil, err
		}
		return doc, nil
	}

	if rowID.IsNew() {
		// Temporary ids exist only in memory; a miss cannot be resolved by
		// querying the database.
		return nil, NewDocumentNotFoundError(c.rowPath(rowID))
	}

	doc, err := c.parentDocument.repository.RetrieveDocument(ctx, DocumentQuery{
		Descriptor: c.descriptor,
		RecordID:   rowID,
		Parent:     c.parentDocument,
	})
	if err != nil {
		return nil, err
	}
	c.putLocked(doc)
	// A targeted fetch added a row the full load never saw, so the cached
	// set can no longer be trusted to be complete.
	c.fullyLoaded = false
	return doc, nil
}

// GetDocuments returns all rows, loading the full set from the repository on
// first use or after the collection went stale.
func (c *IncludedDocumentsCollection) GetDocuments(ctx context.Context) ([]*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.fullyLoaded || c.stale {
		if err := c.loadAllLocked(ctx); err != nil {
			return nil, err
		}
	} else if err := c.refreshStaledLocked(ctx); err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, c.byID[id])
	}
	return docs, nil
}

// loadAllLocked replaces the cached rows with the repository's current ones.
// Rows created in memory and not yet saved survive the reload.
func (c *IncludedDocumentsCollection) loadAllLocked(ctx context.Context) error {
	loaded, err := c.parentDocument.repository.RetrieveDocuments(ctx, DocumentQuery{
		Descriptor: c.descriptor,
		Parent:     c.parentDocument,
		OrderBys:   c.descriptor.Binding().DefaultOrderBys(),
	})
	if err != nil {
		return fmt.Errorf("loading rows of detail %s of %s: %w", c.descriptor.DetailID(), c.parentDocument.Path(), err)
	}

	var newDocs []*Document
	for _, id := range c.order {
		if doc := c.byID[id]; doc.IsNew() {
			newDocs = append(newDocs, doc)
		}
	}

	c.order = c.order[:0]
	c.byID = make(map[datatypes.DocumentID]*Document, len(loaded)+len(newDocs))
	for _, doc := range loaded {
		c.putLocked(doc)
	}
	for _, doc := range newDocs {
		c.putLocked(doc)
	}

	c.fullyLoaded = true
	c.stale = false
	return nil
}

// refreshStaledLocked refreshes cached rows that were marked staled one by
// one. Rows the database no longer has are dropped from the collection.
func (c *IncludedDocumentsCollection) refreshStaledLocked(ctx context.Context) error {
	ids := append([]datatypes.DocumentID(nil), c.order...)
	for _, id := range ids {
		doc := c.byID[id]
		if !doc.IsStaled() || doc.IsNew() {
			continue
		}
		if err := doc.RefreshFromRepository(ctx); err != nil {
			if IsDocumentNotFound(err, doc.Path()) {
				c.removeLocked(id)
				continue
			}
			return err
		}
	}
	return nil
}

func (c *IncludedDocumentsCollection) putLocked(doc *Document) {
	if _, exists := c.byID[doc.ID()]; !exists {
		c.order = append(c.order, doc.ID())
	}
	c.byID[doc.ID()] = doc
}

func (c *IncludedDocumentsCollection) removeLocked(rowID datatypes.DocumentID) {
	if _, exists := c.byID[rowID]; !exists {
		return
	}
	delete(c.byID, rowID)
	for i, id := range c.order {
		if id == rowID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// MarkStaleAll flags the whole collection for reload and notifies the
// collector that clients shall refetch this detail tab.
func (c *IncludedDocumentsCollection) MarkStaleAll(collector *ChangeCollector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
	collector.CollectStaleDetail(c.parentDocument.Path(), c.descriptor.DetailID())
}

// CreateNewDocument creates a fresh writable row with a temporary id and the
// next free line number. The row lives only in memory until saved.
func (c *IncludedDocumentsCollection) CreateNewDocument(ctx context.Context, collector *ChangeCollector) (*Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertNewAllowedLocked(); err != nil {
		return nil, err
	}

	doc, err := c.parentDocument.repository.CreateNewDocument(c.descriptor, c.parentDocument)
	if err != nil {
		return nil, fmt.Errorf("creating row in detail %s of %s: %w", c.descriptor.DetailID(), c.parentDocument.Path(), err)
	}

	if _, fieldErr := c.descriptor.Binding().FieldByName(FieldNameLine); fieldErr == nil {
		lineNo, err := c.nextLineNoLocked(ctx)
		if err != nil {
			return nil, err
		}
		if err := doc.SetFieldValue(FieldNameLine, lineNo, collector); err != nil {
			return nil, err
		}
	}

	c.putLocked(doc)
	collector.CollectDocumentCreated(doc.Path())
	return doc, nil
}

// DeleteDocuments removes the given rows, deleting saved ones from the
// database.
func (c *IncludedDocumentsCollection) DeleteDocuments(ctx context.Context, rowIDs []datatypes.DocumentID, collector *ChangeCollector) error {
	if len(rowIDs) == 0 {
		return fmt.Errorf("%w: no row ids to delete", domain.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.assertDeleteAllowedLocked(); err != nil {
		return err
	}

	for _, rowID := range rowIDs {
		doc, err := c.getDocumentByIDLocked(ctx, rowID)
		if err != nil {
			return err
		}
		if !doc.IsNew() {
			if err := c.parentDocument.repository.Delete(ctx, doc); err != nil {
				return fmt.Errorf("deleting row %s: %w", doc.Path(), err)
			}
		}
		c.removeLocked(rowID)
		collector.CollectDocumentDeleted(doc.Path())
	}
	return nil
}

func (c *IncludedDocumentsCollection) assertNewAllowedLocked() error {
	return c.assertAllowedLocked("create row", c.descriptor.AllowCreateNewLogic())
}

func (c *IncludedDocumentsCollection) assertDeleteAllowedLocked() error {
	return c.assertAllowedLocked("delete row", c.descriptor.AllowDeleteLogic())
}

// assertAllowedLocked checks both the parent document's state and the
// descriptor's permission logic, evaluated against the parent's field values.
// A processed parent forbids structural changes regardless of the logic.
func (c *IncludedDocumentsCollection) assertAllowedLocked(operation string, logic logicexpr.Expression) error {
	if !c.parentDocument.IsWritable() {
		return &domain.InvalidStateError{
			Operation: operation,
			Reason:    fmt.Sprintf("parent document %s is read-only", c.parentDocument.Path()),
		}
	}
	if c.parentDocument.IsProcessed() {
		return &domain.InvalidStateError{
			Operation: operation,
			Reason:    "ParentDocumentProcessed",
		}
	}
	result := logic.Evaluate(c.parentDocument.AsEvaluatee())
	if !result.Value {
		return &domain.InvalidStateError{
			Operation: operation,
			Reason:    fmt.Sprintf("not allowed by %s", result),
		}
	}
	return nil
}

// NextLineNo returns the next free line number: the maximum existing line
// rounded down to a multiple of ten, plus ten. An empty collection starts
// at ten.
func (c *IncludedDocumentsCollection) NextLineNo(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextLineNoLocked(ctx)
}

func (c *IncludedDocumentsCollection) nextLineNoLocked(ctx context.Context) (int, error) {
	if !c.fullyLoaded || c.stale {
		if err := c.loadAllLocked(ctx); err != nil {
			return 0, err
		}
	}
	maxLineNo := 0
	for _, id := range c.order {
		if lineNo := c.byID[id].FieldValueAsInt(FieldNameLine, 0); lineNo > maxLineNo {
			maxLineNo = lineNo
		}
	}
	return maxLineNo/10*10 + 10, nil
}

// copyTo copies the collection for a copied parent document, copying each
// cached row with the same mode.
func (c *IncludedDocumentsCollection) copyTo(newParent *Document, mode CopyMode) *IncludedDocumentsCollection {
	c.mu.Lock()
	defer c.mu.Unlock()

	copied := newIncludedDocumentsCollection(newParent, c.descriptor)
	copied.fullyLoaded = c.fullyLoaded
	copied.stale = c.stale
	for _, id := range c.order {
		copied.putLocked(c.byID[id].Copy(newParent, mode))
	}
	return copied
}
