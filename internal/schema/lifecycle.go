// Package schema orchestrates the schema version lifecycle: admin drafting of
// field definitions and groups, publish/deprecate/rollback transitions with
// breaking-change detection, and index planning.
package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/groblegark/dynrec/internal/events"
	"github.com/groblegark/dynrec/internal/idgen"
	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// Manager owns schema state transitions. The acting identity is always an
// explicit parameter; the manager never reads ambient auth state.
type Manager struct {
	store     store.SchemaStore
	publisher events.Publisher
	logger    *slog.Logger
}

// NewManager returns a Manager backed by the given store and publisher.
func NewManager(s store.SchemaStore, p events.Publisher) *Manager {
	return &Manager{store: s, publisher: p, logger: slog.Default()}
}

// Publish resolves a field group, runs the compatibility check against the
// current published version (if any), deprecates it and persists a new
// snapshot at the next version. All-or-nothing: a compatibility failure
// leaves the schema state untouched.
func (m *Manager) Publish(ctx context.Context, groupIdentifier, actor string) (*model.SchemaVersion, error) {
	group, err := m.resolveGroup(ctx, groupIdentifier)
	if err != nil {
		return nil, err
	}
	fields, err := m.loadDraftFields(ctx, group)
	if err != nil {
		return nil, err
	}

	previous, err := m.currentPublished(ctx, group.Entity)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		if err := checkCompatibility(previous.Fields, fields); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if previous != nil {
		if err := m.deprecateVersion(ctx, previous, actor, now); err != nil {
			return nil, err
		}
	}

	nextVersion := 1
	if previous != nil {
		nextVersion = previous.Version + 1
	}

	snapshot, err := m.newSnapshot(group.Entity, group.Name, nextVersion, fields, actor, now)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveSchemaVersion(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save schema snapshot: %w", err)
	}

	m.publishSchemaEvent(ctx, events.TopicSchemaPublished, "SCHEMA_PUBLISHED", snapshot, actor, map[string]string{
		"group":   groupIdentifier,
		"version": strconv.Itoa(snapshot.Version),
	})
	return snapshot, nil
}

// Deprecate transitions the current published version to DEPRECATED.
func (m *Manager) Deprecate(ctx context.Context, entity, actor string) (*model.SchemaVersion, error) {
	published, err := m.currentPublished(ctx, entity)
	if err != nil {
		return nil, err
	}
	if published == nil {
		return nil, model.NotFound("published schema", entity)
	}

	if err := m.deprecateVersion(ctx, published, actor, time.Now().UTC()); err != nil {
		return nil, err
	}

	m.publishSchemaEvent(ctx, events.TopicSchemaDeprecated, "SCHEMA_DEPRECATED", published, actor, map[string]string{
		"version": strconv.Itoa(published.Version),
	})
	return published, nil
}

// Rollback republishes an older snapshot's fields as a brand-new top version.
// Rolling back to the version that is already published is an idempotent
// no-op; the exact old record is never reactivated.
func (m *Manager) Rollback(ctx context.Context, entity string, version int, actor string) (*model.SchemaVersion, error) {
	if version < 1 {
		return nil, model.Invalid("version must be >= 1")
	}

	target, err := m.store.SchemaByVersion(ctx, entity, version)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NotFound("schema version", fmt.Sprintf("%s@%d", entity, version))
	}
	if err != nil {
		return nil, fmt.Errorf("load schema version: %w", err)
	}

	current, err := m.currentPublished(ctx, entity)
	if err != nil {
		return nil, err
	}
	if current != nil && current.Version == version {
		return current, nil
	}

	now := time.Now().UTC()
	if current != nil {
		if err := m.deprecateVersion(ctx, current, actor, now); err != nil {
			return nil, err
		}
	}

	maxVersion, err := m.store.MaxSchemaVersion(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("max schema version: %w", err)
	}

	snapshot, err := m.newSnapshot(entity, target.GroupName, maxVersion+1, target.Fields, actor, now)
	if err != nil {
		return nil, err
	}
	if err := m.store.SaveSchemaVersion(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save schema snapshot: %w", err)
	}

	m.publishSchemaEvent(ctx, events.TopicSchemaRolledBack, "SCHEMA_ROLLED_BACK", snapshot, actor, map[string]string{
		"fromVersion": strconv.Itoa(version),
		"toVersion":   strconv.Itoa(snapshot.Version),
	})
	return snapshot, nil
}

// LatestPublished returns the current published snapshot for an entity.
// This is the primary read path used by validation, querying and mutation.
func (m *Manager) LatestPublished(ctx context.Context, entity string) (*model.SchemaVersion, error) {
	v, err := m.store.LatestSchemaByStatus(ctx, entity, model.SchemaPublished)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NotFound("published schema", entity)
	}
	if err != nil {
		return nil, fmt.Errorf("load published schema: %w", err)
	}
	return v, nil
}

// ListVersions returns every snapshot for an entity, newest version first.
func (m *Manager) ListVersions(ctx context.Context, entity string) ([]*model.SchemaVersion, error) {
	versions, err := m.store.ListSchemaVersions(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("list schema versions: %w", err)
	}
	return versions, nil
}

// currentPublished returns the published version or nil when there is none.
func (m *Manager) currentPublished(ctx context.Context, entity string) (*model.SchemaVersion, error) {
	v, err := m.store.LatestSchemaByStatus(ctx, entity, model.SchemaPublished)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load published schema: %w", err)
	}
	return v, nil
}

func (m *Manager) deprecateVersion(ctx context.Context, v *model.SchemaVersion, actor string, now time.Time) error {
	v.Status = model.SchemaDeprecated
	v.DeprecatedAt = &now
	v.ModifiedAt = now
	v.ModifiedBy = actor
	if err := m.store.SaveSchemaVersion(ctx, v); err != nil {
		return fmt.Errorf("deprecate schema version %d: %w", v.Version, err)
	}
	return nil
}

func (m *Manager) newSnapshot(entity, groupName string, version int, fields []model.FieldDefinition, actor string, now time.Time) (*model.SchemaVersion, error) {
	id, err := idgen.Schema()
	if err != nil {
		return nil, err
	}
	return &model.SchemaVersion{
		ID:          id,
		EntityName:  entity,
		GroupName:   groupName,
		Version:     version,
		Status:      model.SchemaPublished,
		Fields:      model.CloneFields(fields),
		PublishedAt: &now,
		CreatedAt:   now,
		CreatedBy:   actor,
		ModifiedAt:  now,
		ModifiedBy:  actor,
	}, nil
}

// resolveGroup looks the group up by id or by name at its highest version.
func (m *Manager) resolveGroup(ctx context.Context, identifier string) (*model.FieldGroup, error) {
	group, err := m.store.GetFieldGroup(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NotFound("field group", identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve field group: %w", err)
	}
	return group, nil
}

// loadDraftFields resolves the group's field references to the latest draft
// version of each definition, preserving the group's ordering.
func (m *Manager) loadDraftFields(ctx context.Context, group *model.FieldGroup) ([]model.FieldDefinition, error) {
	if len(group.FieldNames) == 0 {
		return nil, model.Invalid("field group has no fields: %s", group.Name)
	}

	defs, err := m.store.LatestFieldDefinitions(ctx, group.FieldNames)
	if err != nil {
		return nil, fmt.Errorf("load field definitions: %w", err)
	}
	byName := make(map[string]model.FieldDefinition, len(defs))
	for _, def := range defs {
		byName[def.FieldName] = def
	}

	ordered := make([]model.FieldDefinition, 0, len(group.FieldNames))
	for _, name := range group.FieldNames {
		def, ok := byName[name]
		if !ok {
			return nil, model.NotFound("field definition", name)
		}
		ordered = append(ordered, def)
	}
	return ordered, nil
}

// publishSchemaEvent emits a lifecycle event. Best-effort: failures are
// logged, never surfaced to the caller.
func (m *Manager) publishSchemaEvent(ctx context.Context, topic, eventType string, payload *model.SchemaVersion, actor string, metadata map[string]string) {
	event := events.SchemaEvent{
		EventType:  eventType,
		EntityName: payload.EntityName,
		Actor:      actor,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
		Metadata:   metadata,
	}
	if err := m.publisher.Publish(ctx, topic, event); err != nil {
		m.logger.Warn("failed to publish schema event", "topic", topic, "entity", payload.EntityName, "error", err)
	}
}
