package schema

import (
	"context"
	"sync"

	"github.com/groblegark/dynrec/internal/model"
	"github.com/groblegark/dynrec/internal/store"
)

// fakeSchemaStore is an in-memory store.SchemaStore for manager tests.
type fakeSchemaStore struct {
	mu       sync.Mutex
	fields   map[string][]model.FieldDefinition // name -> versions ascending
	groups   map[string]*model.FieldGroup       // id -> group
	versions map[string][]*model.SchemaVersion  // entity -> snapshots

	saveVersionErr error
}

func newFakeSchemaStore() *fakeSchemaStore {
	return &fakeSchemaStore{
		fields:   make(map[string][]model.FieldDefinition),
		groups:   make(map[string]*model.FieldGroup),
		versions: make(map[string][]*model.SchemaVersion),
	}
}

func (f *fakeSchemaStore) SaveFieldDefinition(_ context.Context, def *model.FieldDefinition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields[def.FieldName] = append(f.fields[def.FieldName], def.Clone())
	return nil
}

func (f *fakeSchemaStore) GetFieldDefinition(_ context.Context, name string) (*model.FieldDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	versions := f.fields[name]
	if len(versions) == 0 {
		return nil, store.ErrNotFound
	}
	latest := versions[len(versions)-1].Clone()
	return &latest, nil
}

func (f *fakeSchemaStore) LatestFieldDefinitions(_ context.Context, names []string) ([]model.FieldDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FieldDefinition
	for _, name := range names {
		versions := f.fields[name]
		if len(versions) == 0 {
			continue
		}
		out = append(out, versions[len(versions)-1].Clone())
	}
	return out, nil
}

func (f *fakeSchemaStore) DeleteFieldDefinition(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fields[name]) == 0 {
		return store.ErrNotFound
	}
	delete(f.fields, name)
	return nil
}

func (f *fakeSchemaStore) SaveFieldGroup(_ context.Context, group *model.FieldGroup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *group
	copied.FieldNames = append([]string(nil), group.FieldNames...)
	f.groups[group.ID] = &copied
	return nil
}

func (f *fakeSchemaStore) GetFieldGroup(_ context.Context, idOrName string) (*model.FieldGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g, ok := f.groups[idOrName]; ok {
		copied := *g
		return &copied, nil
	}
	var best *model.FieldGroup
	for _, g := range f.groups {
		if g.Name == idOrName && (best == nil || g.Version > best.Version) {
			best = g
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	copied := *best
	return &copied, nil
}

func (f *fakeSchemaStore) DeleteFieldGroup(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.groups, id)
	return nil
}

func (f *fakeSchemaStore) SaveSchemaVersion(_ context.Context, version *model.SchemaVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveVersionErr != nil {
		return f.saveVersionErr
	}
	copied := *version
	copied.Fields = model.CloneFields(version.Fields)
	for i, existing := range f.versions[version.EntityName] {
		if existing.ID == version.ID {
			f.versions[version.EntityName][i] = &copied
			return nil
		}
	}
	f.versions[version.EntityName] = append(f.versions[version.EntityName], &copied)
	return nil
}

func (f *fakeSchemaStore) LatestSchemaByStatus(_ context.Context, entity string, status model.SchemaStatus) (*model.SchemaVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.SchemaVersion
	for _, v := range f.versions[entity] {
		if v.Status == status && (best == nil || v.Version > best.Version) {
			best = v
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	copied := *best
	copied.Fields = model.CloneFields(best.Fields)
	return &copied, nil
}

func (f *fakeSchemaStore) SchemaByVersion(_ context.Context, entity string, version int) (*model.SchemaVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions[entity] {
		if v.Version == version {
			copied := *v
			copied.Fields = model.CloneFields(v.Fields)
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeSchemaStore) MaxSchemaVersion(_ context.Context, entity string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, v := range f.versions[entity] {
		if v.Version > max {
			max = v.Version
		}
	}
	return max, nil
}

func (f *fakeSchemaStore) ListSchemaVersions(_ context.Context, entity string) ([]*model.SchemaVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.SchemaVersion, len(f.versions[entity]))
	for i, v := range f.versions[entity] {
		copied := *v
		copied.Fields = model.CloneFields(v.Fields)
		out[i] = &copied
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
