package plan

import "encoding/json"

// MergeMetadata overlays a plan-specific override onto a feature's default
// metadata. The override wins key-by-key, not wholesale: keys it does not
// define keep their default value. The result is a deep copy — callers can
// never mutate resolver-internal state through it.
func MergeMetadata(defaults, override Metadata) Metadata {
	merged := make(Metadata, len(defaults)+len(override))
	for k, v := range defaults {
		merged[k] = deepCopy(v)
	}
	for k, v := range override {
		merged[k] = deepCopy(v)
	}
	return merged
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = deepCopy(inner)
		}
		return out
	case Metadata:
		out := make(Metadata, len(val))
		for k, inner := range val {
			out[k] = deepCopy(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = deepCopy(inner)
		}
		return out
	default:
		return val
	}
}

// LimitValue extracts a numeric limit from metadata. Returns nil when the key
// is absent or non-numeric — nil means the limit is not defined (unlimited).
func LimitValue(m Metadata, key string) *int64 {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	var n int64
	switch v := raw.(type) {
	case float64: // JSON numbers decode as float64
		n = int64(v)
	case int64:
		n = v
	case int:
		n = int64(v)
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}

// BoolValue extracts a feature flag from metadata; absent keys are false.
func BoolValue(m Metadata, key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}
