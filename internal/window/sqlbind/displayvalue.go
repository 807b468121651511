package sqlbind

import "strings"

// Late-bound placeholders in pre-compiled lookup display SQL templates.
const (
	LookupParamKeyID        = "@KeyId@"
	LookupParamShowInactive = "@ShowInactive@"
)

// LookupTemplate is a pre-compiled SQL expression resolving a lookup key to
// its display caption. The key-id SQL and the show-inactive flag are bound
// late, when the template is rendered into a concrete query.
type LookupTemplate struct {
	sql string
}

func NewLookupTemplate(sql string) *LookupTemplate {
	return &LookupTemplate{sql: sql}
}

// Resolve substitutes the two placeholders into the template.
func (t *LookupTemplate) Resolve(keyIDSQL string, showInactive bool) string {
	sql := strings.ReplaceAll(t.sql, LookupParamKeyID, keyIDSQL)
	showInactiveSQL := "'N'"
	if showInactive {
		showInactiveSQL = "'Y'"
	}
	return strings.ReplaceAll(sql, LookupParamShowInactive, showInactiveSQL)
}

// DisplayValue builds the `(expression) AS alias` display column of a
// lookup field. Without a template it degrades to the join column itself.
type DisplayValue struct {
	joinTableAlias string
	joinColumnName string
	template       *LookupTemplate
	columnAlias    string
}

func NewDisplayValue(joinTableAlias, joinColumnName string, template *LookupTemplate, columnAlias string) DisplayValue {
	return DisplayValue{
		joinTableAlias: joinTableAlias,
		joinColumnName: joinColumnName,
		template:       template,
		columnAlias:    columnAlias,
	}
}

func (d DisplayValue) ColumnAlias() string {
	return d.columnAlias
}

func (d DisplayValue) joinColumnSQL() string {
	if d.joinTableAlias != "" {
		return d.joinTableAlias + "." + d.joinColumnName
	}
	return d.joinColumnName
}

func (d DisplayValue) ToSQL() string {
	if d.template == nil {
		return d.joinColumnSQL()
	}
	// Inactive lookup values still need a caption when displaying old rows.
	return d.template.Resolve(d.joinColumnSQL(), true)
}

func (d DisplayValue) ToSQLWithColumnAlias() string {
	return "(" + d.ToSQL() + ") AS " + d.columnAlias
}

// WithJoinTableAlias returns a copy joining on a different table name or
// alias.
func (d DisplayValue) WithJoinTableAlias(joinTableAlias string) DisplayValue {
	if d.joinTableAlias == joinTableAlias {
		return d
	}
	d.joinTableAlias = joinTableAlias
	return d
}
