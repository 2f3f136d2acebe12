package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// newMockStore creates a sqlmock-backed store with automatic cleanup and
// expectation checking.
func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return NewWithDB(db), mock
}

var documentRowColumns = []string{"id", "entity", "data", "deleted", "deleted_at", "created_at", "updated_at"}

func TestBuildPredicate_Cond(t *testing.T) {
	for _, tc := range []struct {
		name    string
		pred    store.Predicate
		wantSQL string
		argc    int
	}{
		{"eq string", store.Cond{Path: "name", Op: model.OpEq, Value: "bob"}, `((data #>> $1) = $2)`, 2},
		{"eq number casts", store.Cond{Path: "age", Op: model.OpEq, Value: 21.0}, `((data #>> $1)::numeric = $2)`, 2},
		{"eq bool casts", store.Cond{Path: "active", Op: model.OpEq, Value: true}, `((data #>> $1)::boolean = $2)`, 2},
		{"ne", store.Cond{Path: "name", Op: model.OpNe, Value: "bob"}, `((data #>> $1) IS DISTINCT FROM $2)`, 2},
		{"gte nested path", store.Cond{Path: "a.b", Op: model.OpGte, Value: 2.0}, `((data #>> $1)::numeric >= $2)`, 2},
		{"regex", store.Cond{Path: "code", Op: model.OpRegex, Value: "^A"}, `(data #>> $1) ~ $2`, 2},
		{"exists true", store.Cond{Path: "tag", Op: model.OpExists, Value: true}, `(data #> $1) IS NOT NULL`, 1},
		{"exists false", store.Cond{Path: "tag", Op: model.OpExists, Value: false}, `(data #> $1) IS NULL`, 1},
		{"in strings", store.Cond{Path: "s", Op: model.OpIn, Value: []any{"a", "b"}}, `((data #>> $1) = ANY($2))`, 2},
		{"in numbers", store.Cond{Path: "n", Op: model.OpIn, Value: []any{1.0, 2.0}}, `((data #>> $1)::numeric = ANY($2))`, 2},
		{"nin", store.Cond{Path: "s", Op: model.OpNin, Value: []any{"a"}}, `NOT COALESCE((data #>> $1) = ANY($2), FALSE)`, 2},
		{"eq object as jsonb", store.Cond{Path: "meta", Op: model.OpEq, Value: map[string]any{"a": 1.0}}, `((data #> $1) = $2::jsonb)`, 2},
		{"eq array as jsonb", store.Cond{Path: "tags", Op: model.OpEq, Value: []any{"a", "b"}}, `((data #> $1) = $2::jsonb)`, 2},
		{"ne object as jsonb", store.Cond{Path: "meta", Op: model.OpNe, Value: map[string]any{"a": 1.0}}, `((data #> $1) IS DISTINCT FROM $2::jsonb)`, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			args := &argList{}
			got, err := buildPredicate(tc.pred, args)
			if err != nil {
				t.Fatalf("buildPredicate: %v", err)
			}
			if got != tc.wantSQL {
				t.Errorf("sql mismatch:\n got %s\nwant %s", got, tc.wantSQL)
			}
			if len(args.args) != tc.argc {
				t.Errorf("expected %d args, got %d", tc.argc, len(args.args))
			}
		})
	}
}

func TestBuildPredicate_ObjectValueBindsJSON(t *testing.T) {
	args := &argList{}
	_, err := buildPredicate(store.Cond{Path: "meta", Op: model.OpEq, Value: map[string]any{"a": 1.0}}, args)
	if err != nil {
		t.Fatalf("buildPredicate: %v", err)
	}
	if got := args.args[1]; got != `{"a":1}` {
		t.Errorf("bound value = %v, want JSON text", got)
	}
}

func TestBuildPredicate_RejectsUnencodableValue(t *testing.T) {
	args := &argList{}
	_, err := buildPredicate(store.Cond{Path: "x", Op: model.OpEq, Value: struct{}{}}, args)
	if err == nil {
		t.Fatal("expected error for unsupported value type")
	}
}

func TestBuildPredicate_Groups(t *testing.T) {
	pred := store.Group{Op: model.OpOr, Preds: []store.Predicate{
		store.Cond{Path: "a", Op: model.OpEq, Value: "x"},
		store.Group{Op: model.OpNot, Preds: []store.Predicate{
			store.Cond{Path: "b", Op: model.OpEq, Value: 1.0},
		}},
	}}
	args := &argList{}
	got, err := buildPredicate(pred, args)
	if err != nil {
		t.Fatalf("buildPredicate: %v", err)
	}
	want := `(((data #>> $1) = $2) OR NOT COALESCE(((data #>> $3)::numeric = $4), FALSE))`
	if got != want {
		t.Errorf("sql mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestBuildPredicate_NotRequiresOneChild(t *testing.T) {
	args := &argList{}
	_, err := buildPredicate(store.Group{Op: model.OpNot, Preds: nil}, args)
	if err == nil {
		t.Fatal("expected error for empty not group")
	}
}

func TestBuildPredicate_EmptyInList(t *testing.T) {
	args := &argList{}
	got, err := buildPredicate(store.Cond{Path: "s", Op: model.OpIn, Value: []any{}}, args)
	if err != nil {
		t.Fatalf("buildPredicate: %v", err)
	}
	if got != "FALSE" {
		t.Errorf("empty in list should match nothing, got %s", got)
	}
}

func TestGetDocument(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	data, _ := json.Marshal(map[string]any{"name": "bob"})

	mock.ExpectQuery(`SELECT .+ FROM documents WHERE entity = \$1 AND id = \$2`).
		WithArgs("customer", "rec-1").
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("rec-1", "customer", data, false, nil, now, now))

	doc, err := s.GetDocument(context.Background(), "customer", "rec-1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.ID != "rec-1" || doc.Data["name"] != "bob" {
		t.Errorf("document mismatch: %+v", doc)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .+ FROM documents WHERE entity = \$1 AND id = \$2`).
		WithArgs("customer", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetDocument(context.Background(), "customer", "missing")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
}

func TestUpdateDocument_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`UPDATE documents`).
		WillReturnError(sql.ErrNoRows)

	err := s.UpdateDocument(context.Background(), &model.Document{ID: "x", Entity: "customer", Data: map[string]any{}})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected store.ErrNotFound, got %v", err)
	}
}

func TestFindDocuments_PagesAndTotal(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	data, _ := json.Marshal(map[string]any{"age": 30.0})

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents WHERE entity = \$1 AND NOT deleted AND \(\(data #>> \$2\)::numeric >= \$3\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT .+ FROM documents WHERE entity = \$1 AND NOT deleted AND \(\(data #>> \$2\)::numeric >= \$3\) ORDER BY data #>> \$4 DESC LIMIT \$5 OFFSET \$6`).
		WillReturnRows(sqlmock.NewRows(documentRowColumns).
			AddRow("rec-1", "customer", data, false, nil, now, now))

	docs, total, err := s.FindDocuments(context.Background(), "customer", store.DocumentQuery{
		Filter:   store.Cond{Path: "age", Op: model.OpGte, Value: 18.0},
		SortBy:   "age",
		SortDesc: true,
		Page:     2,
		Size:     5,
	})
	if err != nil {
		t.Fatalf("FindDocuments: %v", err)
	}
	if total != 7 || len(docs) != 1 {
		t.Errorf("expected total 7 and 1 row, got total %d, %d rows", total, len(docs))
	}
}

func TestFindDocuments_PageBeyondLastRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM documents WHERE entity = \$1 AND NOT deleted`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(20))
	mock.ExpectQuery(`SELECT .+ FROM documents WHERE entity = \$1 AND NOT deleted ORDER BY created_at ASC LIMIT \$2 OFFSET \$3`).
		WillReturnRows(sqlmock.NewRows(documentRowColumns))

	docs, total, err := s.FindDocuments(context.Background(), "customer", store.DocumentQuery{
		Page: 5,
		Size: 10,
	})
	if err != nil {
		t.Fatalf("FindDocuments: %v", err)
	}
	if total != 20 {
		t.Errorf("total = %d, want 20 even with an empty page", total)
	}
	if len(docs) != 0 {
		t.Errorf("expected no rows, got %d", len(docs))
	}
}

func TestExistsDocument_ExcludesID(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM documents WHERE entity = \$1 AND NOT deleted AND \(\(data #>> \$2\) = \$3\) AND id <> \$4\)`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := s.ExistsDocument(context.Background(), "customer",
		store.Cond{Path: "email", Op: model.OpEq, Value: "a@b.c"}, "rec-9")
	if err != nil {
		t.Fatalf("ExistsDocument: %v", err)
	}
	if !exists {
		t.Error("expected exists = true")
	}
}

func TestLatestSchemaByStatus(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	fields, _ := json.Marshal([]model.FieldDefinition{{FieldName: "name", Type: model.FieldTypeString}})

	mock.ExpectQuery(`SELECT .+ FROM schema_versions\s+WHERE entity_name = \$1 AND status = \$2\s+ORDER BY version DESC LIMIT 1`).
		WithArgs("customer", "PUBLISHED").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "entity_name", "group_name", "version", "status", "fields",
			"published_at", "deprecated_at", "created_at", "created_by", "modified_at", "modified_by",
		}).AddRow("sv-1", "customer", "customer-core", 3, "PUBLISHED", fields, now, nil, now, "ops", now, "ops"))

	v, err := s.LatestSchemaByStatus(context.Background(), "customer", model.SchemaPublished)
	if err != nil {
		t.Fatalf("LatestSchemaByStatus: %v", err)
	}
	if v.Version != 3 || v.Status != model.SchemaPublished || len(v.Fields) != 1 {
		t.Errorf("schema version mismatch: %+v", v)
	}
	if v.PublishedAt == nil || v.DeprecatedAt != nil {
		t.Errorf("timestamp mismatch: %+v", v)
	}
}

func TestGetFieldGroup_FallsBackToName(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	cols := []string{"id", "name", "entity", "field_names", "version", "created_at", "updated_at"}

	mock.ExpectQuery(`SELECT .+ FROM field_groups WHERE id = \$1`).
		WithArgs("customer-core").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM field_groups WHERE name = \$1 ORDER BY version DESC LIMIT 1`).
		WithArgs("customer-core").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("fg-1", "customer-core", "customer", "{name,email}", 2, now, now))

	g, err := s.GetFieldGroup(context.Background(), "customer-core")
	if err != nil {
		t.Fatalf("GetFieldGroup: %v", err)
	}
	if g.ID != "fg-1" || g.Version != 2 || len(g.FieldNames) != 2 {
		t.Errorf("field group mismatch: %+v", g)
	}
}

func TestMaxSchemaVersion_Empty(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM schema_versions WHERE entity_name = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	max, err := s.MaxSchemaVersion(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("MaxSchemaVersion: %v", err)
	}
	if max != 0 {
		t.Errorf("expected 0, got %d", max)
	}
}
