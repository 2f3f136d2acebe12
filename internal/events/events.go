package events

import (
	"context"
	"time"

	"github.com/groblegark/dynrec/internal/model"
)

// Event topic constants
const (
	TopicSchemaPublished  = "dynrec.schema.published"
	TopicSchemaDeprecated = "dynrec.schema.deprecated"
	TopicSchemaRolledBack = "dynrec.schema.rolled_back"

	TopicRecordSubmitted = "dynrec.record.submitted"
	TopicRecordPatched   = "dynrec.record.patched"
	TopicRecordReplaced  = "dynrec.record.replaced"
	TopicRecordDeleted   = "dynrec.record.deleted"
)

// SchemaEvent is emitted on schema lifecycle transitions.
type SchemaEvent struct {
	EventType  string               `json:"eventType"` // SCHEMA_PUBLISHED, SCHEMA_DEPRECATED, SCHEMA_ROLLED_BACK
	EntityName string               `json:"entityName"`
	Actor      string               `json:"actor,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
	Payload    *model.SchemaVersion `json:"payload"`
	Metadata   map[string]string    `json:"metadata,omitempty"`
}

// AuditEvent is the fire-and-forget record mutation signal. Delivery is
// at-most-once; the engine never retries or awaits acknowledgment.
type AuditEvent struct {
	Action    string         `json:"action"` // RECORD_SUBMIT, RECORD_PATCH, RECORD_REPLACE, RECORD_DELETE
	Entity    string         `json:"entity"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
