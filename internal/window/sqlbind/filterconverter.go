package sqlbind

import (
	"fmt"
	"strings"

	"docwindow/internal/window/filter"
)

// SQLOptions controls how filter SQL is rendered.
type SQLOptions struct {
	// TableAlias qualifies column references; empty renders bare columns.
	TableAlias string
}

// FilterConverter translates an abstract document filter into a SQL
// fragment plus collected bind parameters.
type FilterConverter interface {
	// CanConvert reports whether the filter identified by filterID can be
	// converted by this converter.
	CanConvert(filterID string) bool

	// Convert renders the filter. Bind parameters are appended to out in
	// predicate order. An empty fragment means the filter contributes
	// nothing.
	Convert(out *ParamsCollector, f *filter.Filter, opts SQLOptions) (string, error)
}

// ConvertFilters renders a filter list: each filter's fragment is tagged
// with its id and the fragments are ANDed in list order.
func ConvertFilters(conv FilterConverter, out *ParamsCollector, filters *filter.List, opts SQLOptions) (string, error) {
	if filters.IsEmpty() {
		return "", nil
	}

	var sb strings.Builder
	for _, f := range filters.ToSlice() {
		if !conv.CanConvert(f.FilterID()) {
			return "", fmt.Errorf("no converter for filter %q", f.FilterID())
		}
		sqlFragment, err := conv.Convert(out, f, opts)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(sqlFragment) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n AND ")
		}
		sb.WriteString("/* ")
		sb.WriteString(f.FilterID())
		sb.WriteString(" */ (")
		sb.WriteString(sqlFragment)
		sb.WriteString(")")
	}
	return sb.String(), nil
}

// EntityFilterConverter is the default converter for field filters: it
// resolves field names through an entity binding and renders standard
// operator SQL.
type EntityFilterConverter struct {
	binding *EntityBinding
}

func NewEntityFilterConverter(binding *EntityBinding) *EntityFilterConverter {
	return &EntityFilterConverter{binding: binding}
}

func (c *EntityFilterConverter) CanConvert(string) bool {
	return true
}

func (c *EntityFilterConverter) Convert(out *ParamsCollector, f *filter.Filter, opts SQLOptions) (string, error) {
	var sb strings.Builder
	for _, param := range f.Params() {
		clause, err := c.convertParam(out, param, opts)
		if err != nil {
			return "", fmt.Errorf("filter %q: %w", f.FilterID(), err)
		}
		if clause == "" {
			continue
		}
		if sb.Len() > 0 {
			if param.IsJoinAnd() {
				sb.WriteString(" AND ")
			} else {
				sb.WriteString(" OR ")
			}
		}
		sb.WriteString(clause)
	}
	return sb.String(), nil
}

func (c *EntityFilterConverter) convertParam(out *ParamsCollector, param filter.Param, opts SQLOptions) (string, error) {
	if param.IsSQLFilter() {
		return out.RewriteQuestionPlaceholders(param.SQLWhereClause(), param.SQLWhereClauseParams())
	}

	columnSQL, err := c.columnSQL(param.FieldName(), opts)
	if err != nil {
		return "", err
	}

	switch param.Operator() {
	case filter.OperatorEqual:
		if param.Value() == nil {
			return columnSQL + " IS NULL", nil
		}
		return columnSQL + " = " + out.Add(param.Value()), nil

	case filter.OperatorNotEqual:
		if param.Value() == nil {
			return columnSQL + " IS NOT NULL", nil
		}
		return columnSQL + " <> " + out.Add(param.Value()), nil

	case filter.OperatorInArray:
		values := param.ValueAsSlice()
		if len(values) == 0 {
			// An empty IN list matches nothing.
			return "1=0", nil
		}
		return columnSQL + " IN (" + out.AddAll(values) + ")", nil

	case filter.OperatorLike:
		return columnSQL + " LIKE " + out.Add(likePattern(param.ValueAsString())), nil
	case filter.OperatorLikeI:
		return "UPPER(" + columnSQL + ") LIKE UPPER(" + out.Add(likePattern(param.ValueAsString())) + ")", nil
	case filter.OperatorNotLike:
		return columnSQL + " NOT LIKE " + out.Add(likePattern(param.ValueAsString())), nil
	case filter.OperatorNotLikeI:
		return "UPPER(" + columnSQL + ") NOT LIKE UPPER(" + out.Add(likePattern(param.ValueAsString())) + ")", nil

	case filter.OperatorGreater:
		return columnSQL + " > " + out.Add(param.Value()), nil
	case filter.OperatorGreaterOrEqual:
		return columnSQL + " >= " + out.Add(param.Value()), nil
	case filter.OperatorLess:
		return columnSQL + " < " + out.Add(param.Value()), nil
	case filter.OperatorLessOrEqual:
		return columnSQL + " <= " + out.Add(param.Value()), nil

	case filter.OperatorBetween:
		return columnSQL + " BETWEEN " + out.Add(param.Value()) + " AND " + out.Add(param.ValueTo()), nil

	default:
		return "", fmt.Errorf("unsupported filter operator %q", param.Operator())
	}
}

func (c *EntityFilterConverter) columnSQL(fieldName string, opts SQLOptions) (string, error) {
	field, err := c.binding.FieldByName(fieldName)
	if err != nil {
		return "", err
	}
	// Filters apply on the outer select level, where columns carry their
	// field names.
	return field.ExposedValue().WithTableAlias(opts.TableAlias).ToSQL(), nil
}

// likePattern wraps plain values in wildcards; values already containing a
// wildcard are passed through.
func likePattern(value string) string {
	if strings.ContainsAny(value, "%_") {
		return value
	}
	return "%" + value + "%"
}
