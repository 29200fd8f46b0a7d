// Package merge provides the recursive structural merge used for partial
// item updates.
//
// Nested maps merge key-wise. Slices and scalars from the source replace the
// destination value wholesale. Neither input is modified.
package merge

import "strings"

// Deep returns a new map holding dst with src merged on top of it.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func Deep(dst, src map[string]any) map[string]any {
	out := Clone(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	mergeInto(out, src)
	return out
}

func mergeInto(dst, src map[string]any) {
	for key, srcVal := range src {
		dstVal, exists := dst[key]
		if !exists {
			dst[key] = cloneValue(srcVal)
			continue
		}

		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dstVal.(map[string]any)
		if srcIsMap && dstIsMap {
			// dstMap is already a private clone.
			mergeInto(dstMap, srcMap)
		} else {
			dst[key] = cloneValue(srcVal)
		}
	}
}

// Clone returns a deep copy of m. A nil map clones to nil.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(val any) any {
	switch v := val.(type) {
	case map[string]any:
		return Clone(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, e := range v {
			out[i] = Clone(e)
		}
		return out
	default:
		return val
	}
}

// Path retrieves a value from a nested map using a dot-separated path.
func Path(data map[string]any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}
	if v, ok := data[path]; ok {
		return v, true
	}

	current := any(data)
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}
	return current, true
}
