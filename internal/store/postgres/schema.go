package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

const schemaVersionColumns = `id, entity_name, group_name, version, status, fields,
	published_at, deprecated_at, created_at, created_by, modified_at, modified_by`

func (s *PostgresStore) SaveFieldDefinition(ctx context.Context, def *model.FieldDefinition) error {
	payload, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal field definition: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO field_definitions (name, version, definition)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, version) DO UPDATE SET definition = EXCLUDED.definition`,
		def.FieldName, def.Version, payload,
	)
	if err != nil {
		return fmt.Errorf("save field definition: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFieldDefinition(ctx context.Context, name string) (*model.FieldDefinition, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT definition FROM field_definitions
		WHERE name = $1 ORDER BY version DESC LIMIT 1`,
		name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get field definition: %w", err)
	}
	var def model.FieldDefinition
	if err := json.Unmarshal(payload, &def); err != nil {
		return nil, fmt.Errorf("unmarshal field definition %q: %w", name, err)
	}
	return &def, nil
}

// LatestFieldDefinitions returns the highest draft version of each named
// field. Missing names are simply absent from the result; the lifecycle
// manager reports them against the group's ordering.
func (s *PostgresStore) LatestFieldDefinitions(ctx context.Context, names []string) ([]model.FieldDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (name) definition FROM field_definitions
		WHERE name = ANY($1)
		ORDER BY name, version DESC`,
		pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("list field definitions: %w", err)
	}
	defer rows.Close()

	var defs []model.FieldDefinition
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan field definition: %w", err)
		}
		var def model.FieldDefinition
		if err := json.Unmarshal(payload, &def); err != nil {
			return nil, fmt.Errorf("unmarshal field definition: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan field definitions: %w", err)
	}
	return defs, nil
}

func (s *PostgresStore) DeleteFieldDefinition(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM field_definitions WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete field definition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveFieldGroup(ctx context.Context, group *model.FieldGroup) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO field_groups (id, name, entity, field_names, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			entity = EXCLUDED.entity,
			field_names = EXCLUDED.field_names,
			version = EXCLUDED.version,
			updated_at = EXCLUDED.updated_at`,
		group.ID, group.Name, group.Entity, pq.Array(group.FieldNames),
		group.Version, group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save field group: %w", err)
	}
	return nil
}

// GetFieldGroup resolves by id first, then by name at its highest version.
func (s *PostgresStore) GetFieldGroup(ctx context.Context, idOrName string) (*model.FieldGroup, error) {
	group, err := s.scanFieldGroupRow(s.db.QueryRowContext(ctx, `
		SELECT id, name, entity, field_names, version, created_at, updated_at
		FROM field_groups WHERE id = $1`, idOrName))
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return s.scanFieldGroupRow(s.db.QueryRowContext(ctx, `
		SELECT id, name, entity, field_names, version, created_at, updated_at
		FROM field_groups WHERE name = $1 ORDER BY version DESC LIMIT 1`, idOrName))
}

func (s *PostgresStore) scanFieldGroupRow(row *sql.Row) (*model.FieldGroup, error) {
	var g model.FieldGroup
	var names pq.StringArray
	err := row.Scan(&g.ID, &g.Name, &g.Entity, &names, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan field group: %w", err)
	}
	g.FieldNames = []string(names)
	return &g, nil
}

func (s *PostgresStore) DeleteFieldGroup(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM field_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete field group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveSchemaVersion(ctx context.Context, v *model.SchemaVersion) error {
	fields, err := json.Marshal(v.Fields)
	if err != nil {
		return fmt.Errorf("marshal schema fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schema_versions (
			id, entity_name, group_name, version, status, fields,
			published_at, deprecated_at, created_at, created_by, modified_at, modified_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			deprecated_at = EXCLUDED.deprecated_at,
			modified_at = EXCLUDED.modified_at,
			modified_by = EXCLUDED.modified_by`,
		v.ID, v.EntityName, nullString(v.GroupName), v.Version, string(v.Status), fields,
		nullTimePtr(v.PublishedAt), nullTimePtr(v.DeprecatedAt),
		v.CreatedAt, v.CreatedBy, v.ModifiedAt, v.ModifiedBy,
	)
	if err != nil {
		return fmt.Errorf("save schema version: %w", err)
	}
	return nil
}

func (s *PostgresStore) LatestSchemaByStatus(ctx context.Context, entity string, status model.SchemaStatus) (*model.SchemaVersion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+schemaVersionColumns+` FROM schema_versions
		WHERE entity_name = $1 AND status = $2
		ORDER BY version DESC LIMIT 1`,
		entity, string(status))
	return scanSchemaVersion(row)
}

func (s *PostgresStore) SchemaByVersion(ctx context.Context, entity string, version int) (*model.SchemaVersion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+schemaVersionColumns+` FROM schema_versions
		WHERE entity_name = $1 AND version = $2`,
		entity, version)
	return scanSchemaVersion(row)
}

func (s *PostgresStore) MaxSchemaVersion(ctx context.Context, entity string) (int, error) {
	var max int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_versions WHERE entity_name = $1`,
		entity).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max schema version: %w", err)
	}
	return max, nil
}

func (s *PostgresStore) ListSchemaVersions(ctx context.Context, entity string) ([]*model.SchemaVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+schemaVersionColumns+` FROM schema_versions
		WHERE entity_name = $1 ORDER BY version DESC`,
		entity)
	if err != nil {
		return nil, fmt.Errorf("list schema versions: %w", err)
	}
	defer rows.Close()

	var versions []*model.SchemaVersion
	for rows.Next() {
		v, err := scanSchemaVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schema versions: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan schema versions: %w", err)
	}
	return versions, nil
}
