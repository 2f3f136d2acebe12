// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the different ID families.
const (
	RecordPrefix = "rec-"
	GroupPrefix  = "fg-"
	SchemaPrefix = "sv-"
)

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Record returns a new document ID.
func Record() (string, error) { return generate(RecordPrefix) }

// Group returns a new field group ID.
func Group() (string, error) { return generate(GroupPrefix) }

// Schema returns a new schema version snapshot ID.
func Schema() (string, error) { return generate(SchemaPrefix) }

func generate(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
