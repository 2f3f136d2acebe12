package schema

import (
	"context"
	"sort"

	"github.com/groblegark/dynrec/internal/model"
)

// IndexSpec names one dotted data path that should be indexed in the
// document store. Unique specs double as uniqueness constraints.
type IndexSpec struct {
	Path   string `json:"path"`
	Unique bool   `json:"unique"`
}

// IndexPlan is the derived index set for an entity's published schema.
type IndexPlan struct {
	Entity        string      `json:"entity"`
	SchemaVersion int         `json:"schemaVersion"`
	Specs         []IndexSpec `json:"specs"`
}

// IndexPlan derives the index set from the latest published schema. A unique
// declaration wins over a plain indexed one for the same path. Only scalar
// fields produce specs; container declarations are rejected at admin time.
func (m *Manager) IndexPlan(ctx context.Context, entity string) (*IndexPlan, error) {
	published, err := m.LatestPublished(ctx, entity)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]bool)
	collectIndexPaths(published.Fields, "", merged)

	specs := make([]IndexSpec, 0, len(merged))
	for path, unique := range merged {
		specs = append(specs, IndexSpec{Path: path, Unique: unique})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Path < specs[j].Path })

	return &IndexPlan{
		Entity:        entity,
		SchemaVersion: published.Version,
		Specs:         specs,
	}, nil
}

func collectIndexPaths(fields []model.FieldDefinition, prefix string, out map[string]bool) {
	for _, f := range fields {
		path := f.FieldName
		if prefix != "" {
			path = prefix + "." + f.FieldName
		}
		if f.Type.IsScalar() && (f.Indexed || f.Unique) {
			out[path] = out[path] || f.Unique
		}
		if f.Type.IsContainer() {
			collectIndexPaths(f.SubFields, path, out)
		}
	}
}
