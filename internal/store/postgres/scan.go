package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDocument scans a single row into a model.Document. The row must
// contain columns in the order defined by documentColumns.
func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	var (
		data      []byte
		deletedAt sql.NullTime
	)
	err := row.Scan(&d.ID, &d.Entity, &data, &d.Deleted, &deletedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		d.DeletedAt = &t
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &d.Data); err != nil {
			return nil, fmt.Errorf("unmarshal document data: %w", err)
		}
	}
	return &d, nil
}

// scanSchemaVersion scans a row in schemaVersionColumns order.
func scanSchemaVersion(row scannable) (*model.SchemaVersion, error) {
	var v model.SchemaVersion
	var (
		groupName    sql.NullString
		status       string
		fields       []byte
		publishedAt  sql.NullTime
		deprecatedAt sql.NullTime
		createdBy    sql.NullString
		modifiedBy   sql.NullString
	)
	err := row.Scan(
		&v.ID, &v.EntityName, &groupName, &v.Version, &status, &fields,
		&publishedAt, &deprecatedAt, &v.CreatedAt, &createdBy, &v.ModifiedAt, &modifiedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	v.GroupName = groupName.String
	v.Status = model.SchemaStatus(status)
	v.CreatedBy = createdBy.String
	v.ModifiedBy = modifiedBy.String
	if publishedAt.Valid {
		t := publishedAt.Time
		v.PublishedAt = &t
	}
	if deprecatedAt.Valid {
		t := deprecatedAt.Time
		v.DeprecatedAt = &t
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &v.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal schema fields: %w", err)
		}
	}
	return &v, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
