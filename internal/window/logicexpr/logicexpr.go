// Package logicexpr evaluates the small boolean expression language used
// by dictionary metadata to gate document operations, e.g.
// "Processed=N & IsActive=Y". Clauses compare a field value (or a literal)
// against a literal and are combined left to right with & (and) and | (or).
package logicexpr

import (
	"fmt"
	"strings"
)

// Evaluator resolves a variable name to a field value.
type Evaluator func(name string) (any, bool)

// Result is an evaluated expression outcome, named for diagnostics.
type Result struct {
	Value bool
	Name  string
}

func (r Result) String() string {
	return fmt.Sprintf("%s=%t", r.Name, r.Value)
}

// Expression is a compiled boolean expression.
type Expression interface {
	Evaluate(ev Evaluator) Result
	String() string
}

type constantExpr struct {
	name  string
	value bool
}

// Constant is a named constant expression.
func Constant(name string, value bool) Expression {
	return constantExpr{name: name, value: value}
}

// True always permits.
var True = Constant("true", true)

// False always rejects.
var False = Constant("false", false)

func (e constantExpr) Evaluate(Evaluator) Result {
	return Result{Value: e.value, Name: e.name}
}

func (e constantExpr) String() string {
	return e.name
}

type comparison struct {
	lhs     operand
	rhs     operand
	negated bool
}

type operand struct {
	variable string
	literal  string
}

type compiledExpr struct {
	source      string
	comparisons []comparison
	// joiners[i] is true when comparison i+1 is ANDed to the running result.
	joiners []bool
}

// Compile parses an expression. The empty string compiles to True.
func Compile(source string) (Expression, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return True, nil
	}

	expr := &compiledExpr{source: source}
	rest := source
	for {
		idx := strings.IndexAny(rest, "&|")
		var clause string
		if idx < 0 {
			clause = rest
		} else {
			clause = rest[:idx]
		}

		cmp, err := parseComparison(clause)
		if err != nil {
			return nil, fmt.Errorf("logic expression %q: %w", source, err)
		}
		expr.comparisons = append(expr.comparisons, cmp)

		if idx < 0 {
			break
		}
		expr.joiners = append(expr.joiners, rest[idx] == '&')
		rest = rest[idx+1:]
	}
	return expr, nil
}

func parseComparison(clause string) (comparison, error) {
	clause = strings.TrimSpace(clause)
	negated := false
	opIdx := strings.IndexAny(clause, "=!")
	if opIdx <= 0 || opIdx == len(clause)-1 {
		return comparison{}, fmt.Errorf("malformed clause %q", clause)
	}
	rhsIdx := opIdx + 1
	if clause[opIdx] == '!' {
		negated = true
		// the legacy language writes not-equal as ! or !=
		if rhsIdx < len(clause) && clause[rhsIdx] == '=' {
			rhsIdx++
		}
	}
	lhs, err := parseOperand(clause[:opIdx])
	if err != nil {
		return comparison{}, err
	}
	rhs, err := parseOperand(clause[rhsIdx:])
	if err != nil {
		return comparison{}, err
	}
	return comparison{lhs: lhs, rhs: rhs, negated: negated}, nil
}

func parseOperand(s string) (operand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return operand{}, fmt.Errorf("empty operand")
	}
	if strings.HasPrefix(s, "@") {
		if !strings.HasSuffix(s, "@") || len(s) < 3 {
			return operand{}, fmt.Errorf("malformed variable reference %q", s)
		}
		return operand{variable: s[1 : len(s)-1]}, nil
	}
	return operand{literal: strings.Trim(s, "'")}, nil
}

// Evaluate runs the expression left to right (no operator precedence, as
// in the legacy dictionary language). A variable that cannot be resolved
// makes its clause false.
func (e *compiledExpr) Evaluate(ev Evaluator) Result {
	result := e.comparisons[0].evaluate(ev)
	for i, joinAnd := range e.joiners {
		next := e.comparisons[i+1].evaluate(ev)
		if joinAnd {
			result = result && next
		} else {
			result = result || next
		}
	}
	return Result{Value: result, Name: e.source}
}

func (c comparison) evaluate(ev Evaluator) bool {
	lhs, okL := c.lhs.resolve(ev)
	rhs, okR := c.rhs.resolve(ev)
	if !okL || !okR {
		return false
	}
	if c.negated {
		return lhs != rhs
	}
	return lhs == rhs
}

func (o operand) resolve(ev Evaluator) (string, bool) {
	if o.variable == "" {
		return o.literal, true
	}
	value, ok := ev(o.variable)
	if !ok {
		return "", false
	}
	return normalizeValue(value), true
}

// normalizeValue renders field values in the dictionary's comparison form:
// booleans as Y/N, everything else via fmt.
func normalizeValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "Y"
		}
		return "N"
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *compiledExpr) String() string {
	return e.source
}
