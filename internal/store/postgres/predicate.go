package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// argList accumulates positional query arguments.
type argList struct {
	args []any
}

// add appends an argument and returns its placeholder.
func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return fmt.Sprintf("$%d", len(a.args))
}

// pathParam binds a dotted data path as a text[] parameter for the #>> / #>
// operators, so path segments never enter the SQL text.
func (a *argList) pathParam(path string) string {
	return a.add(pq.Array(strings.Split(path, ".")))
}

// buildPredicate renders a predicate tree into a SQL condition over the
// documents table. All values and paths are bound as parameters.
func buildPredicate(p store.Predicate, a *argList) (string, error) {
	switch node := p.(type) {
	case store.Cond:
		return buildCond(node, a)
	case store.Group:
		return buildGroup(node, a)
	default:
		return "", fmt.Errorf("unknown predicate node %T", p)
	}
}

func buildGroup(g store.Group, a *argList) (string, error) {
	parts := make([]string, 0, len(g.Preds))
	for _, child := range g.Preds {
		sql, err := buildPredicate(child, a)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}

	switch g.Op {
	case model.OpAnd:
		return "(" + strings.Join(parts, " AND ") + ")", nil
	case model.OpOr:
		return "(" + strings.Join(parts, " OR ") + ")", nil
	case model.OpNot:
		if len(parts) != 1 {
			return "", fmt.Errorf("not group requires exactly one child, got %d", len(parts))
		}
		// Missing paths yield NULL comparisons; coalesce so NOT excludes
		// only genuine matches.
		return "NOT COALESCE(" + parts[0] + ", FALSE)", nil
	default:
		return "", fmt.Errorf("unknown group operator %q", g.Op)
	}
}

func buildCond(c store.Cond, a *argList) (string, error) {
	switch c.Op {
	case model.OpEq:
		return compareExpr(c, "=", a)
	case model.OpNe:
		lhs, rhs, err := typedExpr(c.Path, c.Value, a)
		if err != nil {
			return "", err
		}
		return "(" + lhs + " IS DISTINCT FROM " + rhs + ")", nil
	case model.OpGt:
		return compareExpr(c, ">", a)
	case model.OpLt:
		return compareExpr(c, "<", a)
	case model.OpGte:
		return compareExpr(c, ">=", a)
	case model.OpLte:
		return compareExpr(c, "<=", a)
	case model.OpIn:
		return membershipExpr(c, false, a)
	case model.OpNin:
		return membershipExpr(c, true, a)
	case model.OpRegex:
		pattern, ok := c.Value.(string)
		if !ok {
			return "", fmt.Errorf("regex predicate on %q requires a string pattern", c.Path)
		}
		return "(data #>> " + a.pathParam(c.Path) + ") ~ " + a.add(pattern), nil
	case model.OpExists:
		want, ok := c.Value.(bool)
		if !ok {
			return "", fmt.Errorf("exists predicate on %q requires a boolean", c.Path)
		}
		if want {
			return "(data #> " + a.pathParam(c.Path) + ") IS NOT NULL", nil
		}
		return "(data #> " + a.pathParam(c.Path) + ") IS NULL", nil
	default:
		return "", fmt.Errorf("unknown condition operator %q", c.Op)
	}
}

func compareExpr(c store.Cond, op string, a *argList) (string, error) {
	lhs, rhs, err := typedExpr(c.Path, c.Value, a)
	if err != nil {
		return "", err
	}
	return "(" + lhs + " " + op + " " + rhs + ")", nil
}

// typedExpr renders both sides of a comparison, casting the extracted path
// to match the JSON type of the value. Dates are ISO-8601 strings, so string
// comparison orders them correctly. Objects and arrays compare as jsonb,
// which is insensitive to key order and whitespace.
func typedExpr(path string, value any, a *argList) (lhs, rhs string, err error) {
	switch v := value.(type) {
	case bool:
		return "(data #>> " + a.pathParam(path) + ")::boolean", a.add(v), nil
	case string:
		return "(data #>> " + a.pathParam(path) + ")", a.add(v), nil
	case map[string]any, []any:
		raw, merr := json.Marshal(v)
		if merr != nil {
			return "", "", fmt.Errorf("encode comparison value for %q: %w", path, merr)
		}
		return "(data #> " + a.pathParam(path) + ")", a.add(string(raw)) + "::jsonb", nil
	default:
		if f, ok := toFloat(value); ok {
			return "(data #>> " + a.pathParam(path) + ")::numeric", a.add(f), nil
		}
		return "", "", fmt.Errorf("unsupported comparison value %T for %q", value, path)
	}
}

func membershipExpr(c store.Cond, negate bool, a *argList) (string, error) {
	items, ok := c.Value.([]any)
	if !ok {
		return "", fmt.Errorf("in/nin predicate on %q requires a list", c.Path)
	}
	if len(items) == 0 {
		if negate {
			return "TRUE", nil
		}
		return "FALSE", nil
	}

	base := "(data #>> " + a.pathParam(c.Path) + ")"
	var expr string
	switch items[0].(type) {
	case bool:
		vals := make([]bool, len(items))
		for i, item := range items {
			b, ok := item.(bool)
			if !ok {
				return "", fmt.Errorf("mixed element types in list for %q", c.Path)
			}
			vals[i] = b
		}
		expr = base + "::boolean = ANY(" + a.add(pq.Array(vals)) + ")"
	default:
		if _, ok := toFloat(items[0]); ok {
			vals := make([]float64, len(items))
			for i, item := range items {
				f, ok := toFloat(item)
				if !ok {
					return "", fmt.Errorf("mixed element types in list for %q", c.Path)
				}
				vals[i] = f
			}
			expr = base + "::numeric = ANY(" + a.add(pq.Array(vals)) + ")"
		} else {
			vals := make([]string, len(items))
			for i, item := range items {
				s, ok := item.(string)
				if !ok {
					return "", fmt.Errorf("mixed element types in list for %q", c.Path)
				}
				vals[i] = s
			}
			expr = base + " = ANY(" + a.add(pq.Array(vals)) + ")"
		}
	}

	if negate {
		return "NOT COALESCE(" + expr + ", FALSE)", nil
	}
	return "(" + expr + ")", nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
