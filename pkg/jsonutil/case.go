// Package jsonutil handles the field-naming boundary between the remote API
// (snake_case) and the local cache (camelCase), plus loosely-typed remote
// values.
package jsonutil

import "strings"

// SnakeToCamel converts a snake_case key to camelCase.
func SnakeToCamel(key string) string {
	parts := strings.Split(key, "_")
	if len(parts) == 1 {
		return key
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// CamelToSnake converts a camelCase key to snake_case.
func CamelToSnake(key string) string {
	var b strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// KeysToCamel rewrites every map key in v from snake_case to camelCase,
// recursing through nested objects and ordered lists. Non-container values
// are returned unchanged.
func KeysToCamel(v interface{}) interface{} {
	return convertKeys(v, SnakeToCamel)
}

// KeysToSnake rewrites every map key in v from camelCase to snake_case,
// recursing through nested objects and ordered lists.
func KeysToSnake(v interface{}) interface{} {
	return convertKeys(v, CamelToSnake)
}

func convertKeys(v interface{}, convert func(string) string) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			out[convert(k)] = convertKeys(inner, convert)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = convertKeys(inner, convert)
		}
		return out
	default:
		return v
	}
}
