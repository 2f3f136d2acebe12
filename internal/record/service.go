// Package record implements schema-checked mutations and queries over
// dynamic documents: submit, patch, replace, soft-delete and guarded search.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/groblegark/dynrec/internal/events"
	"github.com/groblegark/dynrec/internal/idgen"
	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/query"
	"github.com/groblegark/dynrec/internal/store"
)

// schemaSource resolves the published schema a mutation validates against.
type schemaSource interface {
	LatestPublished(ctx context.Context, entity string) (*model.SchemaVersion, error)
}

// Service is the record mutation and query engine for one store.
type Service struct {
	store     store.DocumentStore
	schemas   schemaSource
	compiler  *query.Compiler
	publisher events.Publisher
	logger    *slog.Logger
}

// NewService wires the record engine. The compiler carries the configured
// query guardrails.
func NewService(s store.DocumentStore, schemas schemaSource, compiler *query.Compiler, publisher events.Publisher) *Service {
	return &Service{
		store:     s,
		schemas:   schemas,
		compiler:  compiler,
		publisher: publisher,
		logger:    slog.Default(),
	}
}

// Submit validates a new document against the published schema and inserts
// it. Unique constraints are checked before the insert.
func (s *Service) Submit(ctx context.Context, entity string, payload map[string]any) (*model.Document, error) {
	data, err := model.SanitizeData(payload)
	if err != nil {
		return nil, err
	}
	published, err := s.schemas.LatestPublished(ctx, entity)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(data, published.Fields); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, entity, data, published.Fields, ""); err != nil {
		return nil, err
	}

	id, err := idgen.Record()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc := &model.Document{
		ID:        id,
		Entity:    entity,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	s.audit(ctx, events.TopicRecordSubmitted, "RECORD_SUBMIT", entity, doc.ID)
	return doc, nil
}

// Patch merges a partial payload into an active document, revalidates the
// merged result and persists it. Absent keys keep their old values.
func (s *Service) Patch(ctx context.Context, entity, id string, patch map[string]any) (*model.Document, error) {
	doc, err := s.loadActive(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	data, err := model.SanitizeData(patch)
	if err != nil {
		return nil, err
	}
	merged := model.DeepMerge(doc.Data, data)

	published, err := s.schemas.LatestPublished(ctx, entity)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(merged, published.Fields); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, entity, merged, published.Fields, id); err != nil {
		return nil, err
	}

	doc.Data = merged
	doc.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.audit(ctx, events.TopicRecordPatched, "RECORD_PATCH", entity, id)
	return doc, nil
}

// Replace swaps an active document's data wholesale and revalidates it.
func (s *Service) Replace(ctx context.Context, entity, id string, payload map[string]any) (*model.Document, error) {
	doc, err := s.loadActive(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	data, err := model.SanitizeData(payload)
	if err != nil {
		return nil, err
	}

	published, err := s.schemas.LatestPublished(ctx, entity)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(data, published.Fields); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, entity, data, published.Fields, id); err != nil {
		return nil, err
	}

	doc.Data = data
	doc.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	s.audit(ctx, events.TopicRecordReplaced, "RECORD_REPLACE", entity, id)
	return doc, nil
}

// Delete soft-deletes an active document. The row stays in the store and
// remains reachable through Get, but disappears from queries and uniqueness
// checks. Deleting an already-deleted record reports not-found.
func (s *Service) Delete(ctx context.Context, entity, id string) error {
	doc, err := s.loadActive(ctx, entity, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc.Deleted = true
	doc.DeletedAt = &now
	doc.UpdatedAt = now
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	s.audit(ctx, events.TopicRecordDeleted, "RECORD_DELETE", entity, id)
	return nil
}

// Get returns a document by id regardless of its soft-delete state.
func (s *Service) Get(ctx context.Context, entity, id string) (*model.Document, error) {
	doc, err := s.store.GetDocument(ctx, entity, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NotFound("record", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return doc, nil
}

// Query compiles a filter request against the published schema and runs it.
// Soft-deleted documents never appear in results.
func (s *Service) Query(ctx context.Context, entity string, req query.Request) (*query.Result, error) {
	published, err := s.schemas.LatestPublished(ctx, entity)
	if err != nil {
		return nil, err
	}

	q, err := s.compiler.Compile(req, model.FieldTypesByPath(published.Fields))
	if err != nil {
		return nil, err
	}

	docs, total, err := s.store.FindDocuments(ctx, entity, q)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	if docs == nil {
		docs = []*model.Document{}
	}

	result := &query.Result{
		Page:          q.Page,
		Size:          q.Size,
		TotalElements: total,
		SortBy:        q.SortBy,
		Content:       docs,
	}
	if q.SortBy != "" {
		result.SortDirection = "ASC"
		if q.SortDesc {
			result.SortDirection = "DESC"
		}
	}
	return result, nil
}

// loadActive fetches a document and treats soft-deleted ones as missing.
func (s *Service) loadActive(ctx context.Context, entity, id string) (*model.Document, error) {
	doc, err := s.store.GetDocument(ctx, entity, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, model.NotFound("record", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc.Deleted {
		return nil, model.NotFound("record", id)
	}
	return doc, nil
}

// audit emits a fire-and-forget mutation event.
func (s *Service) audit(ctx context.Context, topic, action, entity, recordID string) {
	event := events.AuditEvent{
		Action:    action,
		Entity:    entity,
		Details:   map[string]any{"recordId": recordID},
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish audit event", "topic", topic, "entity", entity, "record", recordID, "error", err)
	}
}
