package schema

import (
	"testing"

	"github.com/groblegark/dynrec/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestCheckCompatibility(t *testing.T) {
	base := []model.FieldDefinition{
		{FieldName: "name", Type: model.FieldTypeString, Required: true},
		{FieldName: "tier", Type: model.FieldTypeString, EnumValues: []any{"gold", "silver"}},
		{FieldName: "age", Type: model.FieldTypeNumber, Min: fptr(0), Max: fptr(150)},
		{FieldName: "code", Type: model.FieldTypeString, Regex: "^[A-Z]+$"},
		{FieldName: "address", Type: model.FieldTypeObject, SubFields: []model.FieldDefinition{
			{FieldName: "city", Type: model.FieldTypeString},
		}},
	}

	tests := []struct {
		name      string
		candidate []model.FieldDefinition
		wantPath  string
		wantRule  string
	}{
		{
			name:      "identical fields pass",
			candidate: model.CloneFields(base),
		},
		{
			name: "adding an optional field passes",
			candidate: append(model.CloneFields(base),
				model.FieldDefinition{FieldName: "nickname", Type: model.FieldTypeString}),
		},
		{
			name:      "widening an enum passes",
			candidate: withEnum(base, "tier", []any{"gold", "silver", "bronze"}),
		},
		{
			name:      "dropping an enum passes",
			candidate: withEnum(base, "tier", nil),
		},
		{
			name:      "removing a field fails",
			candidate: without(base, "code"),
			wantPath:  "code",
			wantRule:  "field removed",
		},
		{
			name:      "removing a nested field fails",
			candidate: withSubFields(base, "address", nil),
			wantPath:  "address.city",
			wantRule:  "field removed",
		},
		{
			name: "new required field fails",
			candidate: append(model.CloneFields(base),
				model.FieldDefinition{FieldName: "ssn", Type: model.FieldTypeString, Required: true}),
			wantPath: "ssn",
			wantRule: "new required field",
		},
		{
			name:      "type change fails",
			candidate: withType(base, "age", model.FieldTypeString),
			wantPath:  "age",
			wantRule:  "type changed",
		},
		{
			name:      "required flip fails",
			candidate: withRequired(base, "tier", true),
			wantPath:  "tier",
			wantRule:  "field became required",
		},
		{
			name:      "narrowing an enum fails",
			candidate: withEnum(base, "tier", []any{"gold"}),
			wantPath:  "tier",
			wantRule:  "enum values narrowed",
		},
		{
			name:      "raising min fails",
			candidate: withRange(base, "age", fptr(18), fptr(150)),
			wantPath:  "age",
			wantRule:  "min constraint tightened",
		},
		{
			name:      "lowering max fails",
			candidate: withRange(base, "age", fptr(0), fptr(99)),
			wantPath:  "age",
			wantRule:  "max constraint tightened",
		},
		{
			name:      "introducing min fails",
			candidate: withRange(base, "name", fptr(1), nil),
			wantPath:  "name",
			wantRule:  "min constraint tightened",
		},
		{
			name:      "relaxing min passes",
			candidate: withRange(base, "age", nil, fptr(150)),
		},
		{
			name:      "changing regex fails",
			candidate: withRegex(base, "code", "^[a-z]+$"),
			wantPath:  "code",
			wantRule:  "regex pattern changed",
		},
		{
			name:      "removing regex fails",
			candidate: withRegex(base, "code", ""),
			wantPath:  "code",
			wantRule:  "regex pattern changed",
		},
		{
			name:      "adding regex fails",
			candidate: withRegex(base, "name", "^.+$"),
			wantPath:  "name",
			wantRule:  "regex pattern changed",
		},
		{
			name:      "whitespace-only regex change passes",
			candidate: withRegex(base, "code", " ^[A-Z]+$ "),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkCompatibility(base, tt.candidate)
			if tt.wantRule == "" {
				if err != nil {
					t.Fatalf("checkCompatibility: %v", err)
				}
				return
			}
			compatErr, ok := err.(*model.CompatibilityError)
			if !ok {
				t.Fatalf("err = %v, want CompatibilityError", err)
			}
			if compatErr.Path != tt.wantPath || compatErr.Rule != tt.wantRule {
				t.Errorf("got %s/%s, want %s/%s", compatErr.Path, compatErr.Rule, tt.wantPath, tt.wantRule)
			}
		})
	}
}

func withEnum(fields []model.FieldDefinition, name string, values []any) []model.FieldDefinition {
	return mutate(fields, name, func(f *model.FieldDefinition) { f.EnumValues = values })
}

func withType(fields []model.FieldDefinition, name string, t model.FieldType) []model.FieldDefinition {
	return mutate(fields, name, func(f *model.FieldDefinition) { f.Type = t })
}

func withRequired(fields []model.FieldDefinition, name string, required bool) []model.FieldDefinition {
	return mutate(fields, name, func(f *model.FieldDefinition) { f.Required = required })
}

func withRange(fields []model.FieldDefinition, name string, min, max *float64) []model.FieldDefinition {
	return mutate(fields, name, func(f *model.FieldDefinition) { f.Min, f.Max = min, max })
}

func withRegex(fields []model.FieldDefinition, name, regex string) []model.FieldDefinition {
	return mutate(fields, name, func(f *model.FieldDefinition) { f.Regex = regex })
}

func withSubFields(fields []model.FieldDefinition, name string, subs []model.FieldDefinition) []model.FieldDefinition {
	return mutate(fields, name, func(f *model.FieldDefinition) { f.SubFields = subs })
}

func mutate(fields []model.FieldDefinition, name string, fn func(*model.FieldDefinition)) []model.FieldDefinition {
	out := model.CloneFields(fields)
	for i := range out {
		if out[i].FieldName == name {
			fn(&out[i])
		}
	}
	return out
}

func without(fields []model.FieldDefinition, name string) []model.FieldDefinition {
	var out []model.FieldDefinition
	for _, f := range model.CloneFields(fields) {
		if f.FieldName != name {
			out = append(out, f)
		}
	}
	return out
}
