package sqlbind

// AccessSQLWrapper applies row-level access control around the innermost
// per-table SELECT. The wrapper sees the original table name, not an alias,
// so permission rules resolve against fully-qualified columns; it operates
// in read-only mode (queries only, never mutations).
type AccessSQLWrapper interface {
	WrapTableSelect(tableName, innerSQL string) string
}

type noAccessRestriction struct{}

func (noAccessRestriction) WrapTableSelect(_ string, innerSQL string) string {
	return innerSQL
}

// NoAccessRestriction performs no row-level filtering.
func NoAccessRestriction() AccessSQLWrapper {
	return noAccessRestriction{}
}
