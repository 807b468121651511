package model

import (
	"context"

	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/filter"
	"docwindow/internal/window/sqlbind"
)

// DocumentQuery describes one document retrieval.
type DocumentQuery struct {
	Descriptor *EntityDescriptor
	// RecordID selects a single document by key. Empty means all matching.
	RecordID datatypes.DocumentID
	// Parent restricts the query to the rows linked to this parent document.
	// Nil when querying root documents.
	Parent   *Document
	Filters  *filter.List
	OrderBys []sqlbind.OrderBy
	Limit    int
	Offset   int
}

// DocumentsRepository loads and stores documents from the backing database.
type DocumentsRepository interface {
	// RetrieveDocuments fetches the documents matching the query, in query
	// order.
	RetrieveDocuments(ctx context.Context, query DocumentQuery) ([]*Document, error)

	// RetrieveDocument fetches a single document or a typed not-found error
	// carrying the document's path.
	RetrieveDocument(ctx context.Context, query DocumentQuery) (*Document, error)

	// CreateNewDocument builds a fresh in-memory document with a temporary id
	// and field defaults. Nothing is written to the database until Save.
	CreateNewDocument(descriptor *EntityDescriptor, parent *Document) (*Document, error)

	// Save inserts or updates the document and refreshes it from the stored
	// row, assigning the permanent id to freshly created documents.
	Save(ctx context.Context, doc *Document) error

	// Delete removes the document's row. Documents never saved are not
	// expected here.
	Delete(ctx context.Context, doc *Document) error

	// Refresh reloads the document's field values from its stored row.
	Refresh(ctx context.Context, doc *Document) error

	// RetrieveVersion returns the document's last-updated timestamp rendered
	// as a string, used for cheap staleness checks.
	RetrieveVersion(ctx context.Context, descriptor *EntityDescriptor, recordID datatypes.DocumentID) (string, error)
}
