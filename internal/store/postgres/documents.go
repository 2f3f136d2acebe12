package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// documentColumns is the column list used for SELECT statements on the
// documents table.
const documentColumns = `id, entity, data, deleted, deleted_at, created_at, updated_at`

func (s *PostgresStore) InsertDocument(ctx context.Context, doc *model.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshal document data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, entity, data, deleted, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Entity, data, doc.Deleted, nullTimePtr(doc.DeletedAt), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, entity, id string) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE entity = $1 AND id = $2`,
		entity, id)
	return scanDocument(row)
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("marshal document data: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = $3, deleted = $4, deleted_at = $5, updated_at = NOW()
		WHERE entity = $1 AND id = $2
		RETURNING updated_at`,
		doc.Entity, doc.ID, data, doc.Deleted, nullTimePtr(doc.DeletedAt),
	).Scan(&doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindDocuments(ctx context.Context, entity string, q store.DocumentQuery) ([]*model.Document, int, error) {
	args := &argList{}
	where := "entity = " + args.add(entity) + " AND NOT deleted"
	if q.Filter != nil {
		cond, err := buildPredicate(q.Filter, args)
		if err != nil {
			return nil, 0, fmt.Errorf("build predicate: %w", err)
		}
		where += " AND " + cond
	}

	// The requested page can land past the last match, so the total comes
	// from a parallel unpaged count over the same WHERE clause.
	var total int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE "+where, args.args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	// Sort paths are schema allow-listed by the compiler and bound as text[]
	// parameters here. Untouched queries order by insertion time for a
	// stable page sequence.
	order := "created_at ASC"
	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		order = "data #>> " + args.pathParam(q.SortBy) + " " + dir
	}

	query := "SELECT " + documentColumns +
		" FROM documents WHERE " + where + " ORDER BY " + order
	if q.Size > 0 {
		query += " LIMIT " + args.add(q.Size)
		if q.Page > 0 {
			query += " OFFSET " + args.add(q.Page*q.Size)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("find documents: %w", err)
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan documents: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan documents: %w", err)
	}

	return docs, total, nil
}

func (s *PostgresStore) ExistsDocument(ctx context.Context, entity string, p store.Predicate, excludeID string) (bool, error) {
	args := &argList{}
	where := "entity = " + args.add(entity) + " AND NOT deleted"
	if p != nil {
		cond, err := buildPredicate(p, args)
		if err != nil {
			return false, fmt.Errorf("build predicate: %w", err)
		}
		where += " AND " + cond
	}
	if excludeID != "" {
		where += " AND id <> " + args.add(excludeID)
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM documents WHERE "+where+")",
		args.args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists document: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListActiveDocuments(ctx context.Context, entity string) ([]*model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE entity = $1 AND NOT deleted ORDER BY created_at`,
		entity)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan documents: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return docs, nil
}
