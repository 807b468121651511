package model

import (
	"fmt"

	"docwindow/internal/domain"
	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/logicexpr"
	"docwindow/internal/window/sqlbind"
)

// Well-known field names with engine-level semantics.
const (
	// FieldNameLine orders append-only detail rows.
	FieldNameLine = "Line"
	// FieldNameProcessed freezes a document against further changes.
	FieldNameProcessed = "Processed"
)

// EntityDescriptorConfig declares one document entity.
type EntityDescriptorConfig struct {
	WindowID datatypes.WindowID
	// DetailID is empty for a window's root entity.
	DetailID datatypes.DetailID
	Caption  string
	Binding  *sqlbind.EntityBinding
	// AllowCreateNewLogic and AllowDeleteLogic default to always-true.
	AllowCreateNewLogic logicexpr.Expression
	AllowDeleteLogic    logicexpr.Expression
	Details             []*EntityDescriptor
}

// EntityDescriptor is the metadata of one document entity: its SQL binding,
// permission logic and detail (included documents) entities. Immutable.
type EntityDescriptor struct {
	windowID            datatypes.WindowID
	detailID            datatypes.DetailID
	caption             string
	binding             *sqlbind.EntityBinding
	allowCreateNewLogic logicexpr.Expression
	allowDeleteLogic    logicexpr.Expression
	detailOrder         []datatypes.DetailID
	detailsByID         map[datatypes.DetailID]*EntityDescriptor
}

func NewEntityDescriptor(cfg EntityDescriptorConfig) (*EntityDescriptor, error) {
	if cfg.Binding == nil {
		return nil, fmt.Errorf("%w: entity descriptor has no SQL binding", domain.ErrValidation)
	}
	d := &EntityDescriptor{
		windowID:            cfg.WindowID,
		detailID:            cfg.DetailID,
		caption:             cfg.Caption,
		binding:             cfg.Binding,
		allowCreateNewLogic: cfg.AllowCreateNewLogic,
		allowDeleteLogic:    cfg.AllowDeleteLogic,
		detailsByID:         map[datatypes.DetailID]*EntityDescriptor{},
	}
	if d.allowCreateNewLogic == nil {
		d.allowCreateNewLogic = logicexpr.True
	}
	if d.allowDeleteLogic == nil {
		d.allowDeleteLogic = logicexpr.True
	}
	for _, detail := range cfg.Details {
		if detail.detailID.IsEmpty() {
			return nil, fmt.Errorf("%w: detail entity of window %s has no detail id", domain.ErrValidation, cfg.WindowID)
		}
		if _, exists := d.detailsByID[detail.detailID]; exists {
			return nil, fmt.Errorf("%w: duplicate detail id %s in window %s", domain.ErrValidation, detail.detailID, cfg.WindowID)
		}
		d.detailOrder = append(d.detailOrder, detail.detailID)
		d.detailsByID[detail.detailID] = detail
	}
	return d, nil
}

func (d *EntityDescriptor) WindowID() datatypes.WindowID { return d.windowID }
func (d *EntityDescriptor) DetailID() datatypes.DetailID { return d.detailID }
func (d *EntityDescriptor) Caption() string              { return d.caption }

func (d *EntityDescriptor) Binding() *sqlbind.EntityBinding {
	return d.binding
}

func (d *EntityDescriptor) AllowCreateNewLogic() logicexpr.Expression {
	return d.allowCreateNewLogic
}

func (d *EntityDescriptor) AllowDeleteLogic() logicexpr.Expression {
	return d.allowDeleteLogic
}

// Details returns the detail entity descriptors in declaration order.
func (d *EntityDescriptor) Details() []*EntityDescriptor {
	out := make([]*EntityDescriptor, 0, len(d.detailOrder))
	for _, id := range d.detailOrder {
		out = append(out, d.detailsByID[id])
	}
	return out
}

func (d *EntityDescriptor) DetailByID(detailID datatypes.DetailID) (*EntityDescriptor, error) {
	detail, ok := d.detailsByID[detailID]
	if !ok {
		return nil, fmt.Errorf("%w: no detail %s in entity %s", domain.ErrNotFound, detailID, d)
	}
	return detail, nil
}

func (d *EntityDescriptor) String() string {
	if d.detailID.IsEmpty() {
		return fmt.Sprintf("EntityDescriptor{window=%s, table=%s}", d.windowID, d.binding.TableName())
	}
	return fmt.Sprintf("EntityDescriptor{window=%s, detail=%s, table=%s}", d.windowID, d.detailID, d.binding.TableName())
}
