package record

import (
	"context"
	"fmt"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// checkUnique verifies every populated unique field against the active
// documents of the entity. excludeID skips the document being mutated so a
// record can keep its own unique values. Absent or nil values are not
// constrained.
func (s *Service) checkUnique(ctx context.Context, entity string, data map[string]any, fields []model.FieldDefinition, excludeID string) error {
	for _, path := range uniquePaths(fields, "", false) {
		value := model.ResolvePath(data, path)
		if value == nil {
			continue
		}
		exists, err := s.store.ExistsDocument(ctx, entity, store.Cond{Path: path, Op: model.OpEq, Value: value}, excludeID)
		if err != nil {
			return fmt.Errorf("uniqueness check on %s: %w", path, err)
		}
		if exists {
			return model.Invalid("value already exists for unique field '%s': %v", path, value)
		}
	}
	return nil
}

// uniquePaths collects the dotted paths of unique scalar fields. Fields
// nested under an ARRAY are skipped: a single path cannot address one array
// element, so uniqueness is not enforceable there.
func uniquePaths(fields []model.FieldDefinition, prefix string, underArray bool) []string {
	var out []string
	for _, f := range fields {
		path := f.FieldName
		if prefix != "" {
			path = prefix + "." + f.FieldName
		}
		if f.Unique && f.Type.IsScalar() && !underArray {
			out = append(out, path)
		}
		if f.Type.IsContainer() {
			out = append(out, uniquePaths(f.SubFields, path, underArray || f.Type == model.FieldTypeArray)...)
		}
	}
	return out
}
