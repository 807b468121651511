package model

import "docwindow/internal/window/datatypes"

// ChangeEventType enumerates what a change event describes.
type ChangeEventType string

const (
	ChangeEventFieldChanged    ChangeEventType = "field_changed"
	ChangeEventDocumentCreated ChangeEventType = "document_created"
	ChangeEventDocumentDeleted ChangeEventType = "document_deleted"
	ChangeEventDetailStale     ChangeEventType = "detail_stale"
)

// ChangeEvent records one observable mutation of the document graph.
type ChangeEvent struct {
	Type      ChangeEventType
	Path      datatypes.DocumentPath
	DetailID  datatypes.DetailID
	FieldName string
	Value     any
}

// ChangeCollector accumulates the change events produced while executing one
// mutating operation on a document graph. Callers pass it explicitly through
// the call chain and drain it when the operation commits. Not safe for
// concurrent use; a collector belongs to a single operation.
//
// All collect methods are nil-safe so read-mostly code paths can pass nil.
type ChangeCollector struct {
	events []ChangeEvent
}

func NewChangeCollector() *ChangeCollector {
	return &ChangeCollector{}
}

func (c *ChangeCollector) CollectFieldChanged(path datatypes.DocumentPath, fieldName string, value any) {
	if c == nil {
		return
	}
	c.events = append(c.events, ChangeEvent{
		Type:      ChangeEventFieldChanged,
		Path:      path,
		FieldName: fieldName,
		Value:     value,
	})
}

func (c *ChangeCollector) CollectDocumentCreated(path datatypes.DocumentPath) {
	if c == nil {
		return
	}
	c.events = append(c.events, ChangeEvent{Type: ChangeEventDocumentCreated, Path: path})
}

func (c *ChangeCollector) CollectDocumentDeleted(path datatypes.DocumentPath) {
	if c == nil {
		return
	}
	c.events = append(c.events, ChangeEvent{Type: ChangeEventDocumentDeleted, Path: path})
}

// CollectStaleDetail records that a whole detail tab of the given document
// must be reloaded by clients.
func (c *ChangeCollector) CollectStaleDetail(path datatypes.DocumentPath, detailID datatypes.DetailID) {
	if c == nil {
		return
	}
	c.events = append(c.events, ChangeEvent{Type: ChangeEventDetailStale, Path: path, DetailID: detailID})
}

// Events returns the collected events in collection order.
func (c *ChangeCollector) Events() []ChangeEvent {
	if c == nil {
		return nil
	}
	return c.events
}
