package model

import (
	"fmt"
	"strings"
	"time"
)

// Reserved document keys that clients may never set directly.
var reservedKeys = map[string]bool{
	"_id":       true,
	"_class":    true,
	"deleted":   true,
	"deletedAt": true,
	"deletedBy": true,
}

// IsReservedKey reports whether a top-level document key is reserved.
func IsReservedKey(key string) bool {
	return reservedKeys[key]
}

// Document is an arbitrary string-keyed record stored under an entity's
// collection. Data never contains reserved keys; soft-delete markers live on
// the envelope, not inside the data map.
type Document struct {
	ID        string         `json:"id"`
	Entity    string         `json:"entity"`
	Data      map[string]any `json:"data"`
	Deleted   bool           `json:"deleted,omitempty"`
	DeletedAt *time.Time     `json:"deletedAt,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SanitizeData rejects reserved top-level keys, blank keys at any depth and
// non-string nested map keys, returning a cleaned copy of the payload.
func SanitizeData(data map[string]any) (map[string]any, error) {
	if data == nil {
		return nil, Invalid("record data must not be null")
	}
	out := make(map[string]any, len(data))
	for key, value := range data {
		if strings.TrimSpace(key) == "" {
			return nil, Invalid("record field name must not be blank")
		}
		if IsReservedKey(key) {
			return nil, Invalid("reserved field is not allowed in payload: %s", key)
		}
		v, err := sanitizeValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func sanitizeValue(value any) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, nested := range v {
			if strings.TrimSpace(key) == "" {
				return nil, Invalid("record field name must not be blank")
			}
			sv, err := sanitizeValue(nested)
			if err != nil {
				return nil, err
			}
			out[key] = sv
		}
		return out, nil
	case map[any]any:
		return nil, Invalid("nested object keys must be strings")
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			sv, err := sanitizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = sv
		}
		return out, nil
	default:
		return value, nil
	}
}

// DeepMerge overlays patch onto base: nested maps merge recursively, any
// other value overwrites. Neither input is modified.
func DeepMerge(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, pv := range patch {
		if bm, ok := merged[k].(map[string]any); ok {
			if pm, ok := pv.(map[string]any); ok {
				merged[k] = DeepMerge(bm, pm)
				continue
			}
		}
		merged[k] = pv
	}
	return merged
}

// ResolvePath walks a dotted path through nested maps, returning nil when any
// segment is missing or not an object.
func ResolvePath(data map[string]any, path string) any {
	if path == "" {
		return nil
	}
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[segment]
		if current == nil {
			return nil
		}
	}
	return current
}

// ValuesEqual compares two values with numeric awareness: numbers compare by
// value regardless of representation, everything else falls back to string
// comparison after a direct equality check.
func ValuesEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	ln, lok := asFloat(left)
	rn, rok := asFloat(right)
	if lok && rok {
		return ln == rn
	}
	if left == right {
		return true
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
