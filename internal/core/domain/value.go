package domain

import "strings"

// IsEmptyValue reports whether v counts as "no value": nil, a blank string,
// or an empty list.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []map[string]any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	default:
		return false
	}
}

// AsList returns v as a list of elements when it is list-shaped.
func AsList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	case []string:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// AsRecord returns v as a map when it is object-shaped.
func AsRecord(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// CloneValue deep-copies JSON-shaped values. Lists of records come back as
// []any so clones share no backing storage with the original.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = CloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = CloneValue(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = CloneValue(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	default:
		return v
	}
}

// PlaceholderMap is the flattened field name -> value structure handed to
// the document renderer.
type PlaceholderMap map[string]any

// Clone deep-copies the map.
func (m PlaceholderMap) Clone() PlaceholderMap {
	if m == nil {
		return nil
	}
	out := make(PlaceholderMap, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// PlaceholderMapFrom flattens a normalization output into a placeholder map.
// Later fields with the same name overwrite earlier ones.
func PlaceholderMapFrom(n *NormalizationOutput) PlaceholderMap {
	out := make(PlaceholderMap)
	if n == nil {
		return out
	}
	for _, s := range n.Sections {
		for _, f := range s.Fields {
			out[f.FieldName] = CloneValue(f.Value)
		}
	}
	return out
}
