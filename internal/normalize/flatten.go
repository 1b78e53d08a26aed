package normalize

import "strconv"

// Flatten collapses a nested JSON payload into underscore-joined key paths.
// Maps recurse by key, arrays by element index; scalars land as-is.
func Flatten(payload map[string]any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", payload)
	return out
}

func flattenInto(out map[string]any, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			flattenInto(out, joinKey(prefix, key), child)
		}
	case []any:
		for i, child := range v {
			flattenInto(out, joinKey(prefix, strconv.Itoa(i)), child)
		}
	default:
		if prefix != "" {
			out[prefix] = value
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "_" + key
}
