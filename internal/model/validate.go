package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Validate checks a document against a field-definition list, recursively.
// It fails fast: the first violation is returned as a *ValidationError with a
// dotted path (array elements use bracket indices, e.g. "items[2].qty").
func Validate(data map[string]any, schema []FieldDefinition) error {
	return validateObject(data, schema, data, "")
}

// root is the original top-level document; requiredIf rules always resolve
// against it, not against the nested object being validated.
func validateObject(data map[string]any, schema []FieldDefinition, root map[string]any, parent string) error {
	for _, field := range schema {
		path := field.FieldName
		if parent != "" {
			path = parent + "." + field.FieldName
		}

		value := data[field.FieldName]
		required := field.Required || conditionallyRequired(field.RequiredIf, root)
		if required && isEmpty(value) {
			return &ValidationError{Path: path, Message: "field is required"}
		}
		if value == nil {
			continue
		}

		if err := validateType(field, value, path); err != nil {
			return err
		}
		if err := validateRange(field, value, path); err != nil {
			return err
		}
		if err := validateRegex(field, value, path); err != nil {
			return err
		}
		if err := validateEnum(field, value, path); err != nil {
			return err
		}

		if field.Type == FieldTypeObject && len(field.SubFields) > 0 {
			nested := value.(map[string]any)
			if err := validateObject(nested, field.SubFields, root, path); err != nil {
				return err
			}
		}

		if field.Type == FieldTypeArray && len(field.SubFields) > 0 {
			items := value.([]any)
			for i, item := range items {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				nested, ok := item.(map[string]any)
				if !ok {
					return &ValidationError{Path: itemPath, Message: "must be an object"}
				}
				if err := validateObject(nested, field.SubFields, root, itemPath); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateType(field FieldDefinition, value any, path string) error {
	switch field.Type {
	case FieldTypeString:
		if _, ok := value.(string); !ok {
			return &ValidationError{Path: path, Message: "must be a string"}
		}
	case FieldTypeNumber:
		if _, ok := asFloat(value); !ok {
			return &ValidationError{Path: path, Message: "must be a number"}
		}
	case FieldTypeBoolean:
		if _, ok := value.(bool); !ok {
			return &ValidationError{Path: path, Message: "must be a boolean"}
		}
	case FieldTypeDate:
		// Stored as a string; format validation is out of scope.
		if _, ok := value.(string); !ok {
			return &ValidationError{Path: path, Message: "must be a date string"}
		}
	case FieldTypeObject:
		if _, ok := value.(map[string]any); !ok {
			return &ValidationError{Path: path, Message: "must be an object"}
		}
	case FieldTypeArray:
		if _, ok := value.([]any); !ok {
			return &ValidationError{Path: path, Message: "must be an array"}
		}
	default:
		return &ValidationError{Path: path, Message: "unsupported field type"}
	}
	return nil
}

func validateRange(field FieldDefinition, value any, path string) error {
	if field.Min == nil && field.Max == nil {
		return nil
	}

	switch field.Type {
	case FieldTypeNumber:
		n, _ := asFloat(value)
		if field.Min != nil && n < *field.Min {
			return &ValidationError{Path: path, Message: fmt.Sprintf("must be >= %v", *field.Min)}
		}
		if field.Max != nil && n > *field.Max {
			return &ValidationError{Path: path, Message: fmt.Sprintf("must be <= %v", *field.Max)}
		}
	case FieldTypeString:
		length := float64(len([]rune(value.(string))))
		if field.Min != nil && length < *field.Min {
			return &ValidationError{Path: path, Message: fmt.Sprintf("length must be >= %d", int(*field.Min))}
		}
		if field.Max != nil && length > *field.Max {
			return &ValidationError{Path: path, Message: fmt.Sprintf("length must be <= %d", int(*field.Max))}
		}
	case FieldTypeArray:
		size := float64(len(value.([]any)))
		if field.Min != nil && size < *field.Min {
			return &ValidationError{Path: path, Message: fmt.Sprintf("array size must be >= %d", int(*field.Min))}
		}
		if field.Max != nil && size > *field.Max {
			return &ValidationError{Path: path, Message: fmt.Sprintf("array size must be <= %d", int(*field.Max))}
		}
	}
	return nil
}

func validateRegex(field FieldDefinition, value any, path string) error {
	if strings.TrimSpace(field.Regex) == "" {
		return nil
	}
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Path: path, Message: "regex rule can only be applied to string fields"}
	}
	re, err := regexp.Compile(field.Regex)
	if err != nil {
		// A broken pattern is a schema authoring error, not bad user input.
		return &ValidationError{Path: path, Message: "invalid regex pattern in schema"}
	}
	if !re.MatchString(str) {
		return &ValidationError{Path: path, Message: "value does not match required pattern"}
	}
	return nil
}

func validateEnum(field FieldDefinition, value any, path string) error {
	if len(field.EnumValues) == 0 {
		return nil
	}
	for _, allowed := range field.EnumValues {
		if ValuesEqual(allowed, value) {
			return nil
		}
	}
	return &ValidationError{Path: path, Message: "must be one of allowed enum values"}
}

func conditionallyRequired(rule *RequiredIf, root map[string]any) bool {
	if rule == nil || strings.TrimSpace(rule.Field) == "" {
		return false
	}
	left := ResolvePath(root, rule.Field)
	op := strings.ToLower(strings.TrimSpace(rule.Operator))
	switch op {
	case "", "eq":
		return ValuesEqual(left, rule.Value)
	case "ne":
		return !ValuesEqual(left, rule.Value)
	case "in":
		expected, ok := rule.Value.([]any)
		if !ok {
			return false
		}
		for _, candidate := range expected {
			if ValuesEqual(left, candidate) {
				return true
			}
		}
		return false
	default:
		return ValuesEqual(left, rule.Value)
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}
