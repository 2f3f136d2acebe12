package model

import "testing"

func TestFlattenFields_NestedPaths(t *testing.T) {
	fields := []FieldDefinition{
		{FieldName: "name", Type: FieldTypeString, Required: true, Max: fptr(64)},
		{FieldName: "address", Type: FieldTypeObject, SubFields: []FieldDefinition{
			{FieldName: "city", Type: FieldTypeString},
			{FieldName: "geo", Type: FieldTypeObject, SubFields: []FieldDefinition{
				{FieldName: "lat", Type: FieldTypeNumber},
			}},
		}},
		{FieldName: "tags", Type: FieldTypeArray, SubFields: []FieldDefinition{
			{FieldName: "label", Type: FieldTypeString},
		}},
	}

	flat := FlattenFields(fields)
	for _, want := range []string{"name", "address", "address.city", "address.geo", "address.geo.lat", "tags", "tags.label"} {
		if _, ok := flat[want]; !ok {
			t.Errorf("missing path %q", want)
		}
	}
	if len(flat) != 7 {
		t.Errorf("expected 7 paths, got %d", len(flat))
	}
	if d := flat["name"]; d.Type != FieldTypeString || !d.Required || d.Max == nil || *d.Max != 64 {
		t.Errorf("name descriptor mismatch: %+v", d)
	}
}

func TestFlattenFields_ScalarSubFieldsIgnored(t *testing.T) {
	// Scalar types never carry semantics through sub-fields.
	fields := []FieldDefinition{
		{FieldName: "s", Type: FieldTypeString, SubFields: []FieldDefinition{
			{FieldName: "bogus", Type: FieldTypeString},
		}},
	}
	flat := FlattenFields(fields)
	if _, ok := flat["s.bogus"]; ok {
		t.Error("sub-fields of a scalar must not be flattened")
	}
}

func TestFlattenFields_BlankNameSkipped(t *testing.T) {
	flat := FlattenFields([]FieldDefinition{{FieldName: "", Type: FieldTypeString}})
	if len(flat) != 0 {
		t.Errorf("expected empty map, got %v", flat)
	}
}

func TestFieldTypesByPath(t *testing.T) {
	types := FieldTypesByPath([]FieldDefinition{
		{FieldName: "a", Type: FieldTypeObject, SubFields: []FieldDefinition{
			{FieldName: "b", Type: FieldTypeNumber},
		}},
	})
	if types["a"] != FieldTypeObject || types["a.b"] != FieldTypeNumber {
		t.Errorf("type map mismatch: %v", types)
	}
}
