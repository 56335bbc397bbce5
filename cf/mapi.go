package cf

import (
	"fmt"
)

// MapIToMapS converts a map with arbitrary keys (as produced by YAML documents with non-string keys) into a map
// keyed by the keys' string forms, recursively.
func MapIToMapS(in map[interface{}]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range in {
		result[fmt.Sprintf("%v", k)] = CleanUpMapValue(v)
	}
	return result
}

func CleanUpInterfaceArray(in []interface{}) []interface{} {
	result := make([]interface{}, len(in))
	for i, v := range in {
		result[i] = CleanUpMapValue(v)
	}
	return result
}

func CleanUpMapValue(v interface{}) interface{} {
	switch v := v.(type) {
	case []interface{}:
		return CleanUpInterfaceArray(v)

	case map[interface{}]interface{}:
		return MapIToMapS(v)

	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, mv := range v {
			result[k] = CleanUpMapValue(mv)
		}
		return result

	default:
		return v
	}
}
