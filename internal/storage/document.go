package storage

import (
	"fmt"
	"strings"
)

// validateRef rejects collection and key values that cannot double as
// filesystem path segments. Drivers share one rule so documents stay
// portable between them.
func validateRef(collection, key string) error {
	for _, part := range []string{collection, key} {
		if part == "" {
			return fmt.Errorf("empty document reference")
		}
		if part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
			return fmt.Errorf("invalid document reference %q", part)
		}
	}
	return nil
}

func deepCopyValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(tv)
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, item := range tv {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

// deepMerge folds src into dst recursively. Maps merge key by key, any
// other value type is replaced. dst is mutated and returned.
func deepMerge(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := dst[k].(map[string]interface{}); ok {
				dst[k] = deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
	return dst
}

// setPath writes value at a dot-separated path, creating intermediate maps
// and replacing non-map intermediates it runs into.
func setPath(doc map[string]interface{}, path string, value interface{}) error {
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("invalid field path %q", path)
		}
	}
	current := doc
	for _, s := range segments[:len(segments)-1] {
		next, ok := current[s].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[s] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
	return nil
}

// appendValues appends to an array field, coercing a missing or non-array
// field into a fresh array first.
func appendValues(doc map[string]interface{}, field string, values []interface{}) {
	arr, _ := doc[field].([]interface{})
	doc[field] = append(arr, values...)
}
