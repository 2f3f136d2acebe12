// Package store defines the persistence interfaces for schema state and
// dynamic documents, plus the predicate tree compiled queries are expressed in.
package store

import (
	"context"
	"errors"

	"github.com/groblegark/dynrec/internal/model"
)

// ErrNotFound is returned by lookups that match nothing. Implementations map
// their native miss condition (e.g. sql.ErrNoRows) onto it.
var ErrNotFound = errors.New("store: not found")

// Predicate is one node of a store query: either a Cond testing a single
// dotted data path or a Group combining child predicates.
type Predicate interface {
	predicate()
}

// Cond tests a dotted path inside the document data against a value.
// Op is one of the model filter leaf operators (eq, ne, gt, lt, gte, lte,
// in, nin, regex, exists).
type Cond struct {
	Path  string
	Op    string
	Value any
}

func (Cond) predicate() {}

// Group combines child predicates with and/or/not. A not group carries
// exactly one child.
type Group struct {
	Op    string
	Preds []Predicate
}

func (Group) predicate() {}

// And combines predicates, collapsing the trivial cases.
func And(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	}
	return Group{Op: model.OpAnd, Preds: preds}
}

// DocumentQuery is a guarded, compiled query over one entity's collection.
// Soft-deleted documents are always excluded.
type DocumentQuery struct {
	Filter   Predicate // nil matches everything
	SortBy   string
	SortDesc bool
	Page     int // zero-based
	Size     int
}

// SchemaStore persists field definition drafts, field groups and immutable
// schema version snapshots.
type SchemaStore interface {
	// Field definition drafts, versioned by field name.
	SaveFieldDefinition(ctx context.Context, def *model.FieldDefinition) error
	GetFieldDefinition(ctx context.Context, name string) (*model.FieldDefinition, error)
	LatestFieldDefinitions(ctx context.Context, names []string) ([]model.FieldDefinition, error)
	DeleteFieldDefinition(ctx context.Context, name string) error

	// Field groups, resolved by id or by name at highest version.
	SaveFieldGroup(ctx context.Context, group *model.FieldGroup) error
	GetFieldGroup(ctx context.Context, idOrName string) (*model.FieldGroup, error)
	DeleteFieldGroup(ctx context.Context, id string) error

	// Schema version snapshots. Save upserts by id; snapshots are otherwise
	// immutable apart from status/timestamp transitions.
	SaveSchemaVersion(ctx context.Context, version *model.SchemaVersion) error
	LatestSchemaByStatus(ctx context.Context, entity string, status model.SchemaStatus) (*model.SchemaVersion, error)
	SchemaByVersion(ctx context.Context, entity string, version int) (*model.SchemaVersion, error)
	MaxSchemaVersion(ctx context.Context, entity string) (int, error)
	ListSchemaVersions(ctx context.Context, entity string) ([]*model.SchemaVersion, error)
}

// DocumentStore persists dynamic documents keyed by entity + id.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *model.Document) error
	// GetDocument returns the document by id regardless of its soft-delete
	// state; callers decide whether a deleted record counts as found.
	GetDocument(ctx context.Context, entity, id string) (*model.Document, error)
	UpdateDocument(ctx context.Context, doc *model.Document) error
	// FindDocuments runs a compiled query and reports the page plus the total
	// match count across all pages.
	FindDocuments(ctx context.Context, entity string, q DocumentQuery) ([]*model.Document, int, error)
	// ExistsDocument reports whether any non-deleted document matches the
	// predicate, excluding excludeID when non-empty.
	ExistsDocument(ctx context.Context, entity string, p Predicate, excludeID string) (bool, error)
	// ListActiveDocuments streams every non-deleted document of an entity,
	// used by the export path.
	ListActiveDocuments(ctx context.Context, entity string) ([]*model.Document, error)
}

// Store is the full persistence surface of the engine.
type Store interface {
	SchemaStore
	DocumentStore
	Close() error
}
