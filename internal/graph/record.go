package graph

// Bolt decodes integers as int64 and property maps as map[string]any;
// these accessors return zero values for anything else.

func GetString(r Record, key string) string {
	s, _ := r[key].(string)
	return s
}

// GetInt also accepts float64 (truncated), for JSON-decoded fixtures.
func GetInt(r Record, key string) int {
	switch v := r[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetMap returns the map produced by properties(n).
func GetMap(r Record, key string) map[string]any {
	m, _ := r[key].(map[string]any)
	return m
}
