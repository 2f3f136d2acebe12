// Package query turns client-supplied filter trees into guarded store
// queries. Every request is checked against configurable guardrails and the
// published schema's field allow-list before anything touches the store.
package query

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// Guardrails bound the shape of a single query.
type Guardrails struct {
	MaxPageSize    int
	MaxFilterDepth int
	MaxRuleCount   int
}

// DefaultGuardrails returns the built-in limits.
func DefaultGuardrails() Guardrails {
	return Guardrails{MaxPageSize: 100, MaxFilterDepth: 3, MaxRuleCount: 20}
}

// Request is the wire shape of a record query.
type Request struct {
	Page          int               `json:"page,omitempty"`
	Size          int               `json:"size,omitempty"`
	SortBy        string            `json:"sortBy,omitempty"`
	SortDirection string            `json:"sortDirection,omitempty"`
	Filters       []json.RawMessage `json:"filters,omitempty"`
}

// Result is the page envelope returned to callers.
type Result struct {
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int               `json:"totalElements"`
	SortBy        string            `json:"sortBy,omitempty"`
	SortDirection string            `json:"sortDirection,omitempty"`
	Content       []*model.Document `json:"content"`
}

// operator allow-list per field type
var allowedOperators = map[model.FieldType]map[string]bool{
	model.FieldTypeString: opSet(model.OpEq, model.OpNe, model.OpIn, model.OpNin, model.OpRegex, model.OpExists),
	model.FieldTypeNumber: opSet(model.OpEq, model.OpNe, model.OpGt, model.OpLt, model.OpGte, model.OpLte,
		model.OpIn, model.OpNin, model.OpExists),
	model.FieldTypeDate: opSet(model.OpEq, model.OpNe, model.OpGt, model.OpLt, model.OpGte, model.OpLte,
		model.OpIn, model.OpNin, model.OpExists),
	model.FieldTypeBoolean: opSet(model.OpEq, model.OpNe, model.OpIn, model.OpNin, model.OpExists),
	model.FieldTypeObject:  opSet(model.OpEq, model.OpNe, model.OpExists),
	model.FieldTypeArray:   opSet(model.OpEq, model.OpNe, model.OpExists),
}

func opSet(ops ...string) map[string]bool {
	m := make(map[string]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}

// Compiler validates and compiles query requests against one schema's
// flattened field types.
type Compiler struct {
	limits Guardrails
}

// NewCompiler returns a compiler with the given guardrails.
func NewCompiler(limits Guardrails) *Compiler {
	return &Compiler{limits: limits}
}

// Compile checks a request against the guardrails and the field allow-list
// and produces the store query. Unknown fields fail closed.
func (c *Compiler) Compile(req Request, fieldTypes map[string]model.FieldType) (store.DocumentQuery, error) {
	var q store.DocumentQuery

	page, size, err := c.checkPaging(req.Page, req.Size)
	if err != nil {
		return q, err
	}
	q.Page, q.Size = page, size

	q.SortBy, q.SortDesc, err = c.checkSort(req.SortBy, req.SortDirection, fieldTypes)
	if err != nil {
		return q, err
	}

	nodes, err := model.DecodeFilters(req.Filters)
	if err != nil {
		return q, err
	}
	if len(nodes) == 0 {
		return q, nil
	}

	total := 0
	for _, node := range nodes {
		total += countRules(node)
	}
	if total > c.limits.MaxRuleCount {
		return q, model.Invalid("filter has %d rules, limit is %d", total, c.limits.MaxRuleCount)
	}
	for _, node := range nodes {
		if d := depth(node); d > c.limits.MaxFilterDepth {
			return q, model.Invalid("filter nesting depth %d exceeds limit %d", d, c.limits.MaxFilterDepth)
		}
	}

	preds := make([]store.Predicate, 0, len(nodes))
	for _, node := range nodes {
		p, err := c.compileNode(node, fieldTypes)
		if err != nil {
			return q, err
		}
		preds = append(preds, p)
	}
	q.Filter = store.And(preds...)
	return q, nil
}

func (c *Compiler) checkPaging(page, size int) (int, int, error) {
	if page < 0 {
		return 0, 0, model.Invalid("page must be >= 0")
	}
	if size == 0 {
		size = 10
	}
	if size < 1 {
		return 0, 0, model.Invalid("size must be >= 1")
	}
	if size > c.limits.MaxPageSize {
		return 0, 0, model.Invalid("size %d exceeds the maximum page size %d", size, c.limits.MaxPageSize)
	}
	return page, size, nil
}

func (c *Compiler) checkSort(sortBy, direction string, fieldTypes map[string]model.FieldType) (string, bool, error) {
	sortBy = strings.TrimSpace(sortBy)
	direction = strings.ToUpper(strings.TrimSpace(direction))
	if sortBy == "" {
		if direction != "" {
			return "", false, model.Invalid("sortDirection requires sortBy")
		}
		return "", false, nil
	}
	if _, ok := fieldTypes[sortBy]; !ok {
		return "", false, model.Invalid("unknown sort field: %s", sortBy)
	}
	switch direction {
	case "", "ASC":
		return sortBy, false, nil
	case "DESC":
		return sortBy, true, nil
	}
	return "", false, model.Invalid("sortDirection must be ASC or DESC, got %q", direction)
}

// countRules counts every node in the tree, combinators included.
func countRules(node model.FilterNode) int {
	group, ok := node.(model.FilterGroup)
	if !ok {
		return 1
	}
	n := 1
	for _, child := range group.Children {
		n += countRules(child)
	}
	return n
}

// depth is the nesting depth of a tree; a lone leaf counts as 1. A tree of
// exactly the configured depth is accepted.
func depth(node model.FilterNode) int {
	group, ok := node.(model.FilterGroup)
	if !ok {
		return 1
	}
	max := 0
	for _, child := range group.Children {
		if d := depth(child); d > max {
			max = d
		}
	}
	return max + 1
}

func (c *Compiler) compileNode(node model.FilterNode, fieldTypes map[string]model.FieldType) (store.Predicate, error) {
	switch n := node.(type) {
	case model.FilterGroup:
		return c.compileGroup(n, fieldTypes)
	case model.FilterLeaf:
		return c.compileLeaf(n, fieldTypes)
	}
	return nil, model.Invalid("unsupported filter node")
}

func (c *Compiler) compileGroup(group model.FilterGroup, fieldTypes map[string]model.FieldType) (store.Predicate, error) {
	if group.Operator == model.OpNot {
		if len(group.Children) != 1 {
			return nil, model.Invalid("'not' requires exactly one child rule, got %d", len(group.Children))
		}
	} else if len(group.Children) == 0 {
		return nil, model.Invalid("'%s' requires at least one child rule", group.Operator)
	}

	preds := make([]store.Predicate, 0, len(group.Children))
	for _, child := range group.Children {
		p, err := c.compileNode(child, fieldTypes)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return store.Group{Op: group.Operator, Preds: preds}, nil
}

func (c *Compiler) compileLeaf(leaf model.FilterLeaf, fieldTypes map[string]model.FieldType) (store.Predicate, error) {
	if leaf.Field == "" {
		return nil, model.Invalid("filter rule is missing a field")
	}
	fieldType, ok := fieldTypes[leaf.Field]
	if !ok {
		return nil, model.Invalid("unknown filter field: %s", leaf.Field)
	}
	if !allowedOperators[fieldType][leaf.Operator] {
		return nil, model.Invalid("operator '%s' is not allowed on %s field '%s'", leaf.Operator, fieldType, leaf.Field)
	}
	if err := checkValueShape(leaf, fieldType); err != nil {
		return nil, err
	}
	return store.Cond{Path: leaf.Field, Op: leaf.Operator, Value: leaf.Value}, nil
}

func checkValueShape(leaf model.FilterLeaf, fieldType model.FieldType) error {
	switch leaf.Operator {
	case model.OpIn, model.OpNin:
		list, ok := leaf.Value.([]any)
		if !ok {
			return model.Invalid("operator '%s' on field '%s' requires a list value", leaf.Operator, leaf.Field)
		}
		for _, item := range list {
			if !valueMatchesType(item, fieldType) {
				return model.Invalid("list element %v does not match %s field '%s'", item, fieldType, leaf.Field)
			}
		}
	case model.OpRegex:
		pattern, ok := leaf.Value.(string)
		if !ok {
			return model.Invalid("operator 'regex' on field '%s' requires a string pattern", leaf.Field)
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return model.Invalid("invalid regex pattern on field '%s': %v", leaf.Field, err)
		}
	case model.OpExists:
		if _, ok := leaf.Value.(bool); !ok {
			return model.Invalid("operator 'exists' on field '%s' requires a boolean value", leaf.Field)
		}
	case model.OpEq, model.OpNe, model.OpGt, model.OpLt, model.OpGte, model.OpLte:
		// The store casts the extracted path to the value's type, so a
		// mismatched value must be rejected here, not at execution time.
		if !valueMatchesType(leaf.Value, fieldType) {
			return model.Invalid("operator '%s' on %s field '%s' requires a matching value", leaf.Operator, fieldType, leaf.Field)
		}
	}
	return nil
}

func valueMatchesType(v any, fieldType model.FieldType) bool {
	switch fieldType {
	case model.FieldTypeString, model.FieldTypeDate:
		_, ok := v.(string)
		return ok
	case model.FieldTypeNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64, json.Number:
			return true
		}
		return false
	case model.FieldTypeBoolean:
		_, ok := v.(bool)
		return ok
	case model.FieldTypeObject:
		_, ok := v.(map[string]any)
		return ok
	case model.FieldTypeArray:
		_, ok := v.([]any)
		return ok
	}
	return true
}
