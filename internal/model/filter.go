package model

import (
	"encoding/json"
	"strings"
)

// Filter combinator and leaf operators. Leaf operators are checked against
// per-type allow-lists by the query compiler.
const (
	OpAnd = "and"
	OpOr  = "or"
	OpNot = "not"

	OpEq     = "eq"
	OpNe     = "ne"
	OpGt     = "gt"
	OpLt     = "lt"
	OpGte    = "gte"
	OpLte    = "lte"
	OpIn     = "in"
	OpNin    = "nin"
	OpRegex  = "regex"
	OpExists = "exists"
)

// IsCombinator reports whether the (already normalized) operator combines
// child filters rather than testing a field.
func IsCombinator(op string) bool {
	return op == OpAnd || op == OpOr || op == OpNot
}

// NormalizeOperator lower-cases and trims an operator, defaulting to eq.
func NormalizeOperator(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "" {
		return OpEq
	}
	return op
}

// FilterNode is one node of a client-supplied filter tree: either a
// FilterLeaf testing a single field or a FilterGroup combining children.
type FilterNode interface {
	filterNode()
}

// FilterLeaf is a single field/operator/value test.
type FilterLeaf struct {
	Field    string
	Operator string
	Value    any
}

func (FilterLeaf) filterNode() {}

// FilterGroup combines child nodes with and/or/not.
type FilterGroup struct {
	Operator string
	Children []FilterNode
}

func (FilterGroup) filterNode() {}

// filterRuleJSON is the wire shape of a filter node: a leaf carries field,
// operator and value; a combinator carries operator and rules.
type filterRuleJSON struct {
	Field    string            `json:"field,omitempty"`
	Operator string            `json:"operator,omitempty"`
	Value    any               `json:"value,omitempty"`
	Rules    []json.RawMessage `json:"rules,omitempty"`
}

// DecodeFilters parses a list of raw filter rules into FilterNodes. Shape
// checks beyond leaf-vs-group (operator allow-lists, value types, guardrails)
// belong to the query compiler.
func DecodeFilters(raw []json.RawMessage) ([]FilterNode, error) {
	nodes := make([]FilterNode, 0, len(raw))
	for _, r := range raw {
		node, err := decodeFilter(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeFilter(raw json.RawMessage) (FilterNode, error) {
	var rule filterRuleJSON
	if err := json.Unmarshal(raw, &rule); err != nil {
		return nil, Invalid("malformed filter rule: %v", err)
	}

	op := NormalizeOperator(rule.Operator)
	if IsCombinator(op) {
		if rule.Field != "" || rule.Value != nil {
			return nil, Invalid("combinator operator '%s' cannot carry a field or value", op)
		}
		children, err := DecodeFilters(rule.Rules)
		if err != nil {
			return nil, err
		}
		return FilterGroup{Operator: op, Children: children}, nil
	}

	if len(rule.Rules) > 0 {
		return nil, Invalid("leaf filter operators cannot include nested rules")
	}
	return FilterLeaf{Field: strings.TrimSpace(rule.Field), Operator: op, Value: rule.Value}, nil
}
