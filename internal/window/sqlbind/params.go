package sqlbind

import (
	"fmt"
	"strings"
)

// SQLAndParams pairs a SQL fragment with its bind parameters.
type SQLAndParams struct {
	SQL    string
	Params []any
}

func (s SQLAndParams) IsEmpty() bool {
	return strings.TrimSpace(s.SQL) == ""
}

// ParamsCollector collects bind parameters in order and hands out the
// matching PostgreSQL $n placeholders.
type ParamsCollector struct {
	params []any
}

func NewParamsCollector() *ParamsCollector {
	return &ParamsCollector{}
}

// Add registers a parameter and returns its placeholder.
func (c *ParamsCollector) Add(value any) string {
	c.params = append(c.params, value)
	return fmt.Sprintf("$%d", len(c.params))
}

// AddAll registers several parameters and returns their placeholders joined
// with ", " (IN-list rendering).
func (c *ParamsCollector) AddAll(values []any) string {
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = c.Add(v)
	}
	return strings.Join(placeholders, ", ")
}

func (c *ParamsCollector) Params() []any {
	return c.params
}

func (c *ParamsCollector) Len() int {
	return len(c.params)
}

// RewriteQuestionPlaceholders replaces each `?` in a raw, user-authored
// where clause with the collector's next placeholder, binding params
// positionally. A count mismatch is a configuration error.
func (c *ParamsCollector) RewriteQuestionPlaceholders(sql string, params []any) (string, error) {
	var sb strings.Builder
	idx := 0
	for _, r := range sql {
		if r != '?' {
			sb.WriteRune(r)
			continue
		}
		if idx >= len(params) {
			return "", fmt.Errorf("sql %q has more placeholders than params (%d)", sql, len(params))
		}
		sb.WriteString(c.Add(params[idx]))
		idx++
	}
	if idx != len(params) {
		return "", fmt.Errorf("sql %q has %d placeholders but %d params", sql, idx, len(params))
	}
	return sb.String(), nil
}
