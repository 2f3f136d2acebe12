package schema

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/groblegark/dynrec/internal/idgen"
	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// SaveField validates a field definition tree and persists it as the next
// draft version of that field name. Published snapshots are unaffected until
// the owning group is republished.
func (m *Manager) SaveField(ctx context.Context, def *model.FieldDefinition) (*model.FieldDefinition, error) {
	if def == nil {
		return nil, model.Invalid("field definition is required")
	}
	if err := validateFieldTree(*def, def.FieldName); err != nil {
		return nil, err
	}

	def.Version = 1
	existing, err := m.store.GetFieldDefinition(ctx, def.FieldName)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load field definition: %w", err)
	}
	if existing != nil {
		def.Version = existing.Version + 1
	}

	if err := m.store.SaveFieldDefinition(ctx, def); err != nil {
		return nil, fmt.Errorf("save field definition: %w", err)
	}
	m.logger.Info("field definition saved", "field", def.FieldName, "version", def.Version)
	return def, nil
}

// GetField returns the latest draft version of a field definition.
func (m *Manager) GetField(ctx context.Context, name string) (*model.FieldDefinition, error) {
	def, err := m.store.GetFieldDefinition(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NotFound("field definition", name)
	}
	if err != nil {
		return nil, fmt.Errorf("load field definition: %w", err)
	}
	return def, nil
}

// DeleteField removes every draft version of a field name.
func (m *Manager) DeleteField(ctx context.Context, name string) error {
	err := m.store.DeleteFieldDefinition(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return model.NotFound("field definition", name)
	}
	if err != nil {
		return fmt.Errorf("delete field definition: %w", err)
	}
	return nil
}

// SaveGroup creates or updates a field group draft. A group without an id is
// created at version 1; an existing group keeps its id and bumps its version.
func (m *Manager) SaveGroup(ctx context.Context, group *model.FieldGroup) (*model.FieldGroup, error) {
	if group == nil {
		return nil, model.Invalid("field group is required")
	}
	if strings.TrimSpace(group.Name) == "" {
		return nil, model.Invalid("group name is required")
	}
	if strings.TrimSpace(group.Entity) == "" {
		return nil, model.Invalid("group entity is required")
	}
	if len(group.FieldNames) == 0 {
		return nil, model.Invalid("group must reference at least one field")
	}
	seen := make(map[string]bool, len(group.FieldNames))
	for _, name := range group.FieldNames {
		if strings.TrimSpace(name) == "" {
			return nil, model.Invalid("group field names must not be blank")
		}
		if seen[name] {
			return nil, model.Invalid("duplicate field in group: %s", name)
		}
		seen[name] = true
	}

	now := time.Now().UTC()
	if group.ID == "" {
		id, err := idgen.Group()
		if err != nil {
			return nil, err
		}
		group.ID = id
		group.Version = 1
		group.CreatedAt = now
	} else {
		existing, err := m.store.GetFieldGroup(ctx, group.ID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, model.NotFound("field group", group.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("load field group: %w", err)
		}
		group.Version = existing.Version + 1
		group.CreatedAt = existing.CreatedAt
	}
	group.UpdatedAt = now

	if err := m.store.SaveFieldGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("save field group: %w", err)
	}
	m.logger.Info("field group saved", "group", group.Name, "entity", group.Entity, "version", group.Version)
	return group, nil
}

// GetGroup resolves a field group by id or by name at its highest version.
func (m *Manager) GetGroup(ctx context.Context, idOrName string) (*model.FieldGroup, error) {
	return m.resolveGroup(ctx, idOrName)
}

// DeleteGroup removes a field group draft by id.
func (m *Manager) DeleteGroup(ctx context.Context, id string) error {
	err := m.store.DeleteFieldGroup(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.NotFound("field group", id)
	}
	if err != nil {
		return fmt.Errorf("delete field group: %w", err)
	}
	return nil
}

// validateFieldTree rejects malformed declarations before they reach the
// store, so publish never has to re-check structural rules.
func validateFieldTree(def model.FieldDefinition, path string) error {
	name := strings.TrimSpace(def.FieldName)
	if name == "" {
		return model.Invalid("field name is required at '%s'", path)
	}
	if strings.Contains(name, ".") {
		return model.Invalid("field name must not contain dots: %s", path)
	}
	if model.IsReservedKey(name) {
		return model.Invalid("field name is reserved: %s", path)
	}
	if !def.Type.IsValid() {
		return model.Invalid("unknown field type %q at '%s'", def.Type, path)
	}
	if def.Unique && !def.Type.IsScalar() {
		return model.Invalid("unique is only allowed on scalar fields: %s", path)
	}
	if def.Indexed && !def.Type.IsScalar() {
		return model.Invalid("indexed is only allowed on scalar fields: %s", path)
	}
	if len(def.SubFields) > 0 && !def.Type.IsContainer() {
		return model.Invalid("sub-fields are only allowed on OBJECT and ARRAY fields: %s", path)
	}
	if def.Min != nil && def.Max != nil && *def.Min > *def.Max {
		return model.Invalid("min exceeds max at '%s'", path)
	}
	if def.Regex != "" {
		if _, err := regexp.Compile(def.Regex); err != nil {
			return model.Invalid("invalid regex pattern at '%s': %v", path, err)
		}
	}
	if def.RequiredIf != nil {
		if strings.TrimSpace(def.RequiredIf.Field) == "" {
			return model.Invalid("requiredIf needs a field reference at '%s'", path)
		}
		switch def.RequiredIf.Operator {
		case "", "eq", "ne", "in":
		default:
			return model.Invalid("unknown requiredIf operator %q at '%s'", def.RequiredIf.Operator, path)
		}
	}

	seen := make(map[string]bool, len(def.SubFields))
	for _, sub := range def.SubFields {
		if seen[sub.FieldName] {
			return model.Invalid("duplicate sub-field %q at '%s'", sub.FieldName, path)
		}
		seen[sub.FieldName] = true
		if err := validateFieldTree(sub, path+"."+sub.FieldName); err != nil {
			return err
		}
	}
	return nil
}
