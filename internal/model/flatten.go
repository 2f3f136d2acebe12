package model

// Descriptor is the flattened view of a single field path: everything the
// compatibility check and the query compiler need to know about it.
type Descriptor struct {
	Type       FieldType
	Required   bool
	EnumValues []any
	Min        *float64
	Max        *float64
	Regex      string
}

// FlattenFields walks a field tree and maps every dotted path (parent.child,
// no array-index segments) to its descriptor. It recurses into SubFields for
// OBJECT and ARRAY fields only. The same flattening feeds compatibility
// checking, query field allow-listing and index planning.
func FlattenFields(fields []FieldDefinition) map[string]Descriptor {
	out := make(map[string]Descriptor)
	flattenInto(fields, "", out)
	return out
}

func flattenInto(fields []FieldDefinition, parent string, out map[string]Descriptor) {
	for _, f := range fields {
		if f.FieldName == "" {
			continue
		}
		path := f.FieldName
		if parent != "" {
			path = parent + "." + f.FieldName
		}
		out[path] = Descriptor{
			Type:       f.Type,
			Required:   f.Required,
			EnumValues: append([]any(nil), f.EnumValues...),
			Min:        f.Min,
			Max:        f.Max,
			Regex:      f.Regex,
		}
		if f.Type.IsContainer() && len(f.SubFields) > 0 {
			flattenInto(f.SubFields, path, out)
		}
	}
}

// FieldTypesByPath reduces a field tree to a path → type map, the shape the
// query compiler allow-lists against.
func FieldTypesByPath(fields []FieldDefinition) map[string]FieldType {
	flat := FlattenFields(fields)
	types := make(map[string]FieldType, len(flat))
	for path, d := range flat {
		types[path] = d.Type
	}
	return types
}
