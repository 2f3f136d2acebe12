package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

// readJSONArg decodes a JSON document supplied as an inline string, "@file",
// or "-" for stdin.
func readJSONArg(arg string, v any) error {
	var data []byte
	switch {
	case arg == "-":
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		data = b
	case strings.HasPrefix(arg, "@"):
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return err
		}
		data = b
	default:
		data = []byte(arg)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

// splitField splits "key=value" into (key, value, true).
// Returns ("", "", false) if there is no '=' or key is empty.
func splitField(s string) (string, string, bool) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

// rawOrString returns a json.RawMessage if v looks like a JSON literal
// (object, array, quoted string, boolean, null, or number). Otherwise it
// returns v as a plain Go string so json.Marshal will quote it.
func rawOrString(v string) any {
	if len(v) == 0 {
		return v
	}
	switch v[0] {
	case '{', '[', '"':
		if json.Valid([]byte(v)) {
			return json.RawMessage(v)
		}
	default:
		// true, false, null, or a number
		if v == "true" || v == "false" || v == "null" {
			return json.RawMessage(v)
		}
		if v[0] == '-' || unicode.IsDigit(rune(v[0])) {
			if json.Valid([]byte(v)) {
				return json.RawMessage(v)
			}
		}
	}
	return v // will be JSON-quoted as a string
}

// buildPayload turns "key=value" args into a record payload. Dotted keys
// create nested objects, matching the engine's path addressing.
func buildPayload(args []string) (map[string]any, error) {
	payload := map[string]any{}
	for _, arg := range args {
		key, value, ok := splitField(arg)
		if !ok {
			return nil, fmt.Errorf("invalid field %q (want key=value)", arg)
		}
		if err := setPath(payload, key, rawOrString(value)); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func setPath(m map[string]any, dotted string, value any) error {
	parts := strings.Split(dotted, ".")
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid field path %q", dotted)
		}
		if i == len(parts)-1 {
			m[part] = value
			return nil
		}
		next, ok := m[part].(map[string]any)
		if !ok {
			if _, exists := m[part]; exists {
				return fmt.Errorf("field path %q conflicts with an earlier value", dotted)
			}
			next = map[string]any{}
			m[part] = next
		}
		m = next
	}
	return nil
}
