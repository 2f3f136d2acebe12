package schema

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/groblegark/dynrec/internal/events"
	"github.com/groblegark/dynrec/internal/model"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (c *capturePublisher) Publish(_ context.Context, topic string, _ any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func (c *capturePublisher) lastTopic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.topics) == 0 {
		return ""
	}
	return c.topics[len(c.topics)-1]
}

func newTestManager(t *testing.T) (*Manager, *fakeSchemaStore, *capturePublisher) {
	t.Helper()
	fs := newFakeSchemaStore()
	pub := &capturePublisher{}
	return NewManager(fs, pub), fs, pub
}

func seedField(t *testing.T, m *Manager, def model.FieldDefinition) {
	t.Helper()
	if _, err := m.SaveField(context.Background(), &def); err != nil {
		t.Fatalf("SaveField(%s): %v", def.FieldName, err)
	}
}

func seedGroup(t *testing.T, m *Manager, name, entity string, fieldNames ...string) *model.FieldGroup {
	t.Helper()
	group, err := m.SaveGroup(context.Background(), &model.FieldGroup{
		Name:       name,
		Entity:     entity,
		FieldNames: fieldNames,
	})
	if err != nil {
		t.Fatalf("SaveGroup(%s): %v", name, err)
	}
	return group
}

func TestPublishFirstVersion(t *testing.T) {
	m, _, pub := newTestManager(t)
	ctx := context.Background()

	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString, Required: true})
	seedField(t, m, model.FieldDefinition{FieldName: "age", Type: model.FieldTypeNumber})
	seedGroup(t, m, "customer-core", "customer", "name", "age")

	v, err := m.Publish(ctx, "customer-core", "alice")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if v.Version != 1 {
		t.Errorf("version = %d, want 1", v.Version)
	}
	if v.Status != model.SchemaPublished {
		t.Errorf("status = %s, want PUBLISHED", v.Status)
	}
	if v.EntityName != "customer" {
		t.Errorf("entity = %s, want customer", v.EntityName)
	}
	if len(v.Fields) != 2 || v.Fields[0].FieldName != "name" || v.Fields[1].FieldName != "age" {
		t.Errorf("fields not in group order: %+v", v.Fields)
	}
	if v.PublishedAt == nil {
		t.Error("PublishedAt not set")
	}
	if got := pub.lastTopic(); got != events.TopicSchemaPublished {
		t.Errorf("last topic = %s, want %s", got, events.TopicSchemaPublished)
	}
}

func TestPublishRepublishDeprecatesPrevious(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString, Required: true})
	seedGroup(t, m, "customer-core", "customer", "name")
	if _, err := m.Publish(ctx, "customer-core", "alice"); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	// Adding an optional field is a compatible change.
	seedField(t, m, model.FieldDefinition{FieldName: "email", Type: model.FieldTypeString})
	seedGroup(t, m, "customer-v2", "customer", "name", "email")

	v2, err := m.Publish(ctx, "customer-v2", "alice")
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}
	if v2.Version != 2 {
		t.Errorf("version = %d, want 2", v2.Version)
	}

	versions, err := m.ListVersions(ctx, "customer")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("got %d versions, want 2", len(versions))
	}
	if versions[0].Version != 2 || versions[0].Status != model.SchemaPublished {
		t.Errorf("top version = %d/%s, want 2/PUBLISHED", versions[0].Version, versions[0].Status)
	}
	if versions[1].Status != model.SchemaDeprecated {
		t.Errorf("old version status = %s, want DEPRECATED", versions[1].Status)
	}
	if versions[1].DeprecatedAt == nil {
		t.Error("DeprecatedAt not set on old version")
	}
}

func TestPublishBreakingChangeRejected(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString, Required: true})
	seedGroup(t, m, "customer-core", "customer", "name")
	if _, err := m.Publish(ctx, "customer-core", "alice"); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	// Changing the type of a published field is breaking.
	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeNumber, Required: true})

	_, err := m.Publish(ctx, "customer-core", "alice")
	var compatErr *model.CompatibilityError
	if !errors.As(err, &compatErr) {
		t.Fatalf("err = %v, want CompatibilityError", err)
	}
	if compatErr.Path != "name" {
		t.Errorf("path = %s, want name", compatErr.Path)
	}

	// The published version must be untouched.
	current, err := m.LatestPublished(ctx, "customer")
	if err != nil {
		t.Fatalf("LatestPublished: %v", err)
	}
	if current.Version != 1 || current.Status != model.SchemaPublished {
		t.Errorf("current = %d/%s, want 1/PUBLISHED", current.Version, current.Status)
	}
}

func TestPublishMissingFieldDefinition(t *testing.T) {
	m, _, _ := newTestManager(t)
	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString})
	seedGroup(t, m, "customer-core", "customer", "name", "missing")

	_, err := m.Publish(context.Background(), "customer-core", "alice")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nf.Key != "missing" {
		t.Errorf("key = %s, want missing", nf.Key)
	}
}

func TestPublishUnknownGroup(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.Publish(context.Background(), "nope", "alice")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestDeprecate(t *testing.T) {
	m, _, pub := newTestManager(t)
	ctx := context.Background()

	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString})
	seedGroup(t, m, "customer-core", "customer", "name")
	if _, err := m.Publish(ctx, "customer-core", "alice"); err != nil {
		t.Fatalf("publish: %v", err)
	}

	v, err := m.Deprecate(ctx, "customer", "bob")
	if err != nil {
		t.Fatalf("Deprecate: %v", err)
	}
	if v.Status != model.SchemaDeprecated || v.DeprecatedAt == nil {
		t.Errorf("status = %s deprecatedAt = %v, want DEPRECATED with timestamp", v.Status, v.DeprecatedAt)
	}
	if v.ModifiedBy != "bob" {
		t.Errorf("modifiedBy = %s, want bob", v.ModifiedBy)
	}
	if got := pub.lastTopic(); got != events.TopicSchemaDeprecated {
		t.Errorf("last topic = %s, want %s", got, events.TopicSchemaDeprecated)
	}

	if _, err := m.LatestPublished(ctx, "customer"); err == nil {
		t.Error("LatestPublished succeeded after deprecation")
	}
}

func TestDeprecateWithoutPublished(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.Deprecate(context.Background(), "customer", "alice")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestRollbackIdempotentOnCurrentVersion(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString})
	seedGroup(t, m, "customer-core", "customer", "name")
	published, err := m.Publish(ctx, "customer-core", "alice")
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	v, err := m.Rollback(ctx, "customer", published.Version, "alice")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if v.ID != published.ID || v.Version != published.Version {
		t.Errorf("rollback to current returned %s@%d, want the unchanged %s@%d", v.ID, v.Version, published.ID, published.Version)
	}

	max, _ := m.store.MaxSchemaVersion(ctx, "customer")
	if max != 1 {
		t.Errorf("max version = %d after no-op rollback, want 1", max)
	}
}

func TestRollbackCreatesNewTopVersion(t *testing.T) {
	m, _, pub := newTestManager(t)
	ctx := context.Background()

	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString})
	seedGroup(t, m, "customer-core", "customer", "name")
	if _, err := m.Publish(ctx, "customer-core", "alice"); err != nil {
		t.Fatalf("publish v1: %v", err)
	}

	seedField(t, m, model.FieldDefinition{FieldName: "email", Type: model.FieldTypeString})
	seedGroup(t, m, "customer-v2", "customer", "name", "email")
	if _, err := m.Publish(ctx, "customer-v2", "alice"); err != nil {
		t.Fatalf("publish v2: %v", err)
	}

	v, err := m.Rollback(ctx, "customer", 1, "carol")
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if v.Version != 3 {
		t.Errorf("rollback version = %d, want 3", v.Version)
	}
	if v.Status != model.SchemaPublished {
		t.Errorf("status = %s, want PUBLISHED", v.Status)
	}
	if len(v.Fields) != 1 || v.Fields[0].FieldName != "name" {
		t.Errorf("rollback fields = %+v, want the v1 field set", v.Fields)
	}
	if got := pub.lastTopic(); got != events.TopicSchemaRolledBack {
		t.Errorf("last topic = %s, want %s", got, events.TopicSchemaRolledBack)
	}

	// v2 must have been deprecated by the rollback.
	old, err := m.store.SchemaByVersion(ctx, "customer", 2)
	if err != nil {
		t.Fatalf("SchemaByVersion(2): %v", err)
	}
	if old.Status != model.SchemaDeprecated {
		t.Errorf("v2 status = %s, want DEPRECATED", old.Status)
	}
}

func TestRollbackUnknownVersion(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.Rollback(context.Background(), "customer", 9, "alice")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestRollbackRejectsNonPositiveVersion(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.Rollback(context.Background(), "customer", 0, "alice")
	var inv model.InvalidError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want InvalidError", err)
	}
}

func TestLatestPublishedNotFound(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.LatestPublished(context.Background(), "ghost")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
}

func TestPublishStoreFailure(t *testing.T) {
	m, fs, pub := newTestManager(t)
	seedField(t, m, model.FieldDefinition{FieldName: "name", Type: model.FieldTypeString})
	seedGroup(t, m, "customer-core", "customer", "name")

	fs.saveVersionErr = errors.New("connection reset")
	if _, err := m.Publish(context.Background(), "customer-core", "alice"); err == nil {
		t.Fatal("expected store error")
	}
	if got := pub.lastTopic(); got != "" {
		t.Errorf("event published despite store failure: %s", got)
	}
}
