package model

import "fmt"

// NotFoundError reports a missing entity, group, field, schema version or
// record. Surfaced to HTTP callers as a 404.
type NotFoundError struct {
	Resource string // "entity", "group", "field", "schema version", "record"
	Key      string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found: " + e.Key
}

// NotFound constructs a NotFoundError.
func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}

// InvalidError is a malformed or disallowed request: guardrail violations,
// unknown fields, disallowed operators, uniqueness violations. Surfaced as 400.
type InvalidError string

func (e InvalidError) Error() string {
	return string(e)
}

// Invalid constructs an InvalidError with Sprintf formatting.
func Invalid(format string, args ...any) error {
	return InvalidError(fmt.Sprintf(format, args...))
}

// ValidationError is a schema-validation failure on a single document path.
// Validation is fail-fast: the first violation encountered is the only one
// reported.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Path + ": " + e.Message
}

// CompatibilityError reports a breaking schema change detected during publish.
type CompatibilityError struct {
	Path string
	Rule string
}

func (e *CompatibilityError) Error() string {
	return "breaking change: " + e.Rule + " at '" + e.Path + "'"
}
