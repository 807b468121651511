package sqlbind

import (
	"fmt"
	"strings"
)

// WhereExpression is a compiled legacy where clause. Clauses may reference
// context variables as @Name@; variables are resolved when the expression
// is rendered into a concrete query.
type WhereExpression struct {
	parts []wherePart
}

type wherePart struct {
	literal  string
	variable string
}

// VariableResolver resolves a context variable to its SQL literal form.
type VariableResolver func(name string) (string, bool)

// CompileWhereExpression parses a @Var@ where clause. Unbalanced variable
// markers fail compilation.
func CompileWhereExpression(sql string) (*WhereExpression, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, nil
	}

	var parts []wherePart
	for len(sql) > 0 {
		at := strings.IndexByte(sql, '@')
		if at < 0 {
			parts = append(parts, wherePart{literal: sql})
			break
		}
		if at > 0 {
			parts = append(parts, wherePart{literal: sql[:at]})
		}
		rest := sql[at+1:]
		end := strings.IndexByte(rest, '@')
		if end < 0 {
			return nil, fmt.Errorf("unbalanced variable marker in where clause %q", sql)
		}
		name := rest[:end]
		if name == "" {
			return nil, fmt.Errorf("empty variable name in where clause %q", sql)
		}
		parts = append(parts, wherePart{variable: name})
		sql = rest[end+1:]
	}

	return &WhereExpression{parts: parts}, nil
}

// IsConstant reports whether the expression references no variables.
func (e *WhereExpression) IsConstant() bool {
	for _, p := range e.parts {
		if p.variable != "" {
			return false
		}
	}
	return true
}

// Resolve renders the expression, looking up every variable. A missing
// variable fails resolution.
func (e *WhereExpression) Resolve(resolver VariableResolver) (string, error) {
	var sb strings.Builder
	for _, p := range e.parts {
		if p.variable == "" {
			sb.WriteString(p.literal)
			continue
		}
		value, ok := resolver(p.variable)
		if !ok {
			return "", fmt.Errorf("where clause variable %q not resolvable", p.variable)
		}
		sb.WriteString(value)
	}
	return sb.String(), nil
}

func (e *WhereExpression) String() string {
	var sb strings.Builder
	for _, p := range e.parts {
		if p.variable != "" {
			sb.WriteString("@" + p.variable + "@")
		} else {
			sb.WriteString(p.literal)
		}
	}
	return sb.String()
}
