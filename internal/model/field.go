package model

import "time"

// FieldType identifies the declared type of a schema field.
type FieldType string

const (
	FieldTypeString  FieldType = "STRING"
	FieldTypeNumber  FieldType = "NUMBER"
	FieldTypeBoolean FieldType = "BOOLEAN"
	FieldTypeDate    FieldType = "DATE"
	FieldTypeObject  FieldType = "OBJECT"
	FieldTypeArray   FieldType = "ARRAY"
)

// String returns the string representation of the field type.
func (t FieldType) String() string {
	return string(t)
}

// IsValid checks whether the field type is a known value.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate, FieldTypeObject, FieldTypeArray:
		return true
	}
	return false
}

// IsContainer reports whether the type carries nested sub-fields.
func (t FieldType) IsContainer() bool {
	return t == FieldTypeObject || t == FieldTypeArray
}

// IsScalar reports whether the type may carry unique/indexed declarations.
func (t FieldType) IsScalar() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeDate:
		return true
	}
	return false
}

// RequiredIf makes a field conditionally required based on the value of
// another field in the same document, resolved by dotted path from the root.
type RequiredIf struct {
	Field    string `json:"field"`
	Value    any    `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"` // eq, ne, in; empty means eq
}

// FieldDefinition is one node in a schema tree. OBJECT and ARRAY fields carry
// their semantics through SubFields; scalar fields never have sub-fields.
type FieldDefinition struct {
	FieldName  string            `json:"fieldName"`
	Type       FieldType         `json:"type"`
	Required   bool              `json:"required,omitempty"`
	Unique     bool              `json:"unique,omitempty"`
	Indexed    bool              `json:"indexed,omitempty"`
	Min        *float64          `json:"min,omitempty"` // value for NUMBER, length for STRING/ARRAY
	Max        *float64          `json:"max,omitempty"`
	Regex      string            `json:"regex,omitempty"`
	EnumValues []any             `json:"enumValues,omitempty"`
	RequiredIf *RequiredIf       `json:"requiredIf,omitempty"`
	SubFields  []FieldDefinition `json:"subFields,omitempty"`
	Version    int               `json:"version,omitempty"`
}

// Clone returns a deep copy of the field definition.
func (f FieldDefinition) Clone() FieldDefinition {
	c := f
	if f.Min != nil {
		v := *f.Min
		c.Min = &v
	}
	if f.Max != nil {
		v := *f.Max
		c.Max = &v
	}
	if f.EnumValues != nil {
		c.EnumValues = append([]any(nil), f.EnumValues...)
	}
	if f.RequiredIf != nil {
		r := *f.RequiredIf
		c.RequiredIf = &r
	}
	c.SubFields = CloneFields(f.SubFields)
	return c
}

// CloneFields deep-copies a list of field definitions.
func CloneFields(fields []FieldDefinition) []FieldDefinition {
	if fields == nil {
		return nil
	}
	out := make([]FieldDefinition, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// FieldGroup is a named, versioned bundle of field references that, together
// with an entity name, forms a publishable schema.
type FieldGroup struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Entity     string    `json:"entity"`
	FieldNames []string  `json:"fieldNames"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SchemaStatus is the lifecycle status of a schema version.
type SchemaStatus string

const (
	SchemaDraft      SchemaStatus = "DRAFT"
	SchemaPublished  SchemaStatus = "PUBLISHED"
	SchemaDeprecated SchemaStatus = "DEPRECATED"
)

// String returns the string representation of the status.
func (s SchemaStatus) String() string {
	return string(s)
}

// IsValid checks whether the status is a known value.
func (s SchemaStatus) IsValid() bool {
	switch s {
	case SchemaDraft, SchemaPublished, SchemaDeprecated:
		return true
	}
	return false
}

// SchemaVersion is an immutable snapshot of an entity's field tree at publish
// time. At most one version per entity holds status PUBLISHED at any time.
type SchemaVersion struct {
	ID           string            `json:"id"`
	EntityName   string            `json:"entityName"`
	GroupName    string            `json:"groupName,omitempty"`
	Version      int               `json:"version"`
	Status       SchemaStatus      `json:"status"`
	Fields       []FieldDefinition `json:"fields"`
	PublishedAt  *time.Time        `json:"publishedAt,omitempty"`
	DeprecatedAt *time.Time        `json:"deprecatedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	CreatedBy    string            `json:"createdBy,omitempty"`
	ModifiedAt   time.Time         `json:"modifiedAt"`
	ModifiedBy   string            `json:"modifiedBy,omitempty"`
}
