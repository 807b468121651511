// Package dictionary loads window definitions from YAML files and compiles
// them into entity descriptors with their SQL bindings. Compiled descriptors
// are cached; editing a definition requires an explicit invalidation.
package dictionary

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docwindow/internal/window/sqlbind"
)

// WindowDef is the YAML shape of one window definition file.
type WindowDef struct {
	WindowID string    `yaml:"window_id"`
	Caption  string    `yaml:"caption"`
	Entity   EntityDef `yaml:",inline"`
	Tabs     []TabDef  `yaml:"tabs"`
}

// EntityDef describes one entity's table binding and permission logic.
type EntityDef struct {
	Table          string     `yaml:"table"`
	Where          string     `yaml:"where"`
	AllowCreateNew string     `yaml:"allow_create_new"`
	AllowDelete    string     `yaml:"allow_delete"`
	Fields         []FieldDef `yaml:"fields"`
}

// TabDef describes one detail tab.
type TabDef struct {
	DetailID         string    `yaml:"detail_id"`
	Caption          string    `yaml:"caption"`
	LinkColumn       string    `yaml:"link_column"`
	ParentLinkColumn string    `yaml:"parent_link_column"`
	Entity           EntityDef `yaml:",inline"`
}

// FieldDef describes one field binding. A field is either a plain column
// (column) or a virtual one (sql); lookup fields carry the SQL template that
// resolves their display string.
type FieldDef struct {
	Name      string `yaml:"name"`
	Column    string `yaml:"column"`
	SQL       string `yaml:"sql"`
	Type      string `yaml:"type"`
	Key       bool   `yaml:"key"`
	LookupSQL string `yaml:"lookup_sql"`

	DefaultOrderBy    bool `yaml:"default_order_by"`
	OrderByPriority   int  `yaml:"order_by_priority"`
	OrderByDescending bool `yaml:"order_by_descending"`
}

func (d WindowDef) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.WindowID, validation.Required),
		validation.Field(&d.Entity),
		validation.Field(&d.Tabs),
	)
}

func (d EntityDef) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Table, validation.Required),
		validation.Field(&d.Fields, validation.Required),
	)
}

func (d TabDef) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.DetailID, validation.Required),
		validation.Field(&d.LinkColumn, validation.Required),
		validation.Field(&d.ParentLinkColumn, validation.Required),
		validation.Field(&d.Entity),
	)
}

func (d FieldDef) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Column, validation.Required.When(d.SQL == "").Error("either column or sql is required")),
		validation.Field(&d.Type, validation.In(
			string(sqlbind.FieldTypeString),
			string(sqlbind.FieldTypeInt),
			string(sqlbind.FieldTypeDecimal),
			string(sqlbind.FieldTypeBool),
			string(sqlbind.FieldTypeDate),
			string(sqlbind.FieldTypeTimestamp),
			string(sqlbind.FieldTypeLookup),
		)),
	)
}
