package schema

import (
	"sort"
	"strings"

	"github.com/groblegark/dynrec/internal/model"
)

// checkCompatibility compares a candidate field set against the previously
// published one by flattened path and rejects any edit that could invalidate
// documents accepted under the old schema. The first violation wins.
func checkCompatibility(previous, candidate []model.FieldDefinition) error {
	oldPaths := model.FlattenFields(previous)
	newPaths := model.FlattenFields(candidate)

	for _, path := range sortedPaths(oldPaths) {
		oldDesc := oldPaths[path]
		newDesc, ok := newPaths[path]
		if !ok {
			return &model.CompatibilityError{Path: path, Rule: "field removed"}
		}
		if newDesc.Type != oldDesc.Type {
			return &model.CompatibilityError{Path: path, Rule: "type changed"}
		}
		if !oldDesc.Required && newDesc.Required {
			return &model.CompatibilityError{Path: path, Rule: "field became required"}
		}
		if enumNarrowed(oldDesc.EnumValues, newDesc.EnumValues) {
			return &model.CompatibilityError{Path: path, Rule: "enum values narrowed"}
		}
		if minTightened(oldDesc.Min, newDesc.Min) {
			return &model.CompatibilityError{Path: path, Rule: "min constraint tightened"}
		}
		if maxTightened(oldDesc.Max, newDesc.Max) {
			return &model.CompatibilityError{Path: path, Rule: "max constraint tightened"}
		}
		if regexChanged(oldDesc.Regex, newDesc.Regex) {
			return &model.CompatibilityError{Path: path, Rule: "regex pattern changed"}
		}
	}

	for _, path := range sortedPaths(newPaths) {
		if _, ok := oldPaths[path]; !ok && newPaths[path].Required {
			return &model.CompatibilityError{Path: path, Rule: "new required field"}
		}
	}
	return nil
}

func sortedPaths(m map[string]model.Descriptor) []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// enumNarrowed reports whether an old allowed value is no longer allowed.
// Growing the list or dropping the constraint entirely is fine.
func enumNarrowed(old, candidate []any) bool {
	if len(old) == 0 {
		return false
	}
	if len(candidate) == 0 {
		return false
	}
	for _, v := range old {
		if !containsValue(candidate, v) {
			return true
		}
	}
	return false
}

func containsValue(list []any, v any) bool {
	for _, item := range list {
		if model.ValuesEqual(item, v) {
			return true
		}
	}
	return false
}

func minTightened(old, candidate *float64) bool {
	if candidate == nil {
		return false
	}
	if old == nil {
		return true
	}
	return *candidate > *old
}

func maxTightened(old, candidate *float64) bool {
	if candidate == nil {
		return false
	}
	if old == nil {
		return true
	}
	return *candidate < *old
}

// regexChanged treats any difference as breaking, in either direction.
// Patterns are compared after trimming surrounding whitespace.
func regexChanged(old, candidate string) bool {
	return strings.TrimSpace(old) != strings.TrimSpace(candidate)
}
