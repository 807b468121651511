package dictionary

import (
	"fmt"

	"docwindow/internal/window/datatypes"
	"docwindow/internal/window/logicexpr"
	"docwindow/internal/window/model"
	"docwindow/internal/window/sqlbind"
)

// Compile turns a validated window definition into the root entity
// descriptor with its detail descriptors and cached SQL bindings.
func Compile(def WindowDef, access sqlbind.AccessSQLWrapper) (*model.EntityDescriptor, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("window %s definition invalid: %w", def.WindowID, err)
	}

	windowID := datatypes.WindowID(def.WindowID)

	details := make([]*model.EntityDescriptor, 0, len(def.Tabs))
	for _, tab := range def.Tabs {
		detail, err := compileEntity(windowID, datatypes.DetailID(tab.DetailID), tab.Caption, tab.Entity, tab, access, nil)
		if err != nil {
			return nil, fmt.Errorf("window %s, tab %s: %w", def.WindowID, tab.DetailID, err)
		}
		details = append(details, detail)
	}

	root, err := compileEntity(windowID, "", def.Caption, def.Entity, TabDef{}, access, details)
	if err != nil {
		return nil, fmt.Errorf("window %s: %w", def.WindowID, err)
	}
	return root, nil
}

func compileEntity(
	windowID datatypes.WindowID,
	detailID datatypes.DetailID,
	caption string,
	entity EntityDef,
	tab TabDef,
	access sqlbind.AccessSQLWrapper,
	details []*model.EntityDescriptor,
) (*model.EntityDescriptor, error) {
	builder := sqlbind.NewBuilder().
		TableName(entity.Table).
		TableAliasForDetail(detailID).
		SQLWhereClause(entity.Where).
		AccessWrapper(access)
	if tab.LinkColumn != "" {
		builder.ChildToParentLink(tab.LinkColumn, tab.ParentLinkColumn)
	}

	for _, fieldDef := range entity.Fields {
		field, err := compileField(fieldDef)
		if err != nil {
			return nil, err
		}
		if err := builder.AddField(field); err != nil {
			return nil, err
		}
	}

	binding, err := builder.Build()
	if err != nil {
		return nil, err
	}

	allowCreateNew, err := compileLogic(entity.AllowCreateNew)
	if err != nil {
		return nil, fmt.Errorf("allow_create_new: %w", err)
	}
	allowDelete, err := compileLogic(entity.AllowDelete)
	if err != nil {
		return nil, fmt.Errorf("allow_delete: %w", err)
	}

	return model.NewEntityDescriptor(model.EntityDescriptorConfig{
		WindowID:            windowID,
		DetailID:            detailID,
		Caption:             caption,
		Binding:             binding,
		AllowCreateNewLogic: allowCreateNew,
		AllowDeleteLogic:    allowDelete,
		Details:             details,
	})
}

func compileField(def FieldDef) (*sqlbind.FieldBinding, error) {
	fieldType := sqlbind.FieldType(def.Type)
	if def.Type == "" {
		fieldType = sqlbind.FieldTypeString
	}

	cfg := sqlbind.FieldBindingConfig{
		FieldName:               def.Name,
		ColumnName:              def.Column,
		ColumnSQL:               def.SQL,
		Type:                    fieldType,
		KeyColumn:               def.Key,
		DefaultOrderBy:          def.DefaultOrderBy,
		DefaultOrderByPriority:  def.OrderByPriority,
		DefaultOrderByAscending: !def.OrderByDescending,
	}
	if def.LookupSQL != "" {
		cfg.LookupDisplayTemplate = sqlbind.NewLookupTemplate(def.LookupSQL)
	}

	field, err := sqlbind.NewFieldBinding(cfg)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", def.Name, err)
	}
	return field, nil
}

// compileLogic compiles a dictionary logic expression, defaulting to
// always-true when the definition leaves it empty.
func compileLogic(source string) (logicexpr.Expression, error) {
	if source == "" {
		return logicexpr.True, nil
	}
	return logicexpr.Compile(source)
}
