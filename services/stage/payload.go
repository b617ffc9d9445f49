package stage

// Helpers for reading opaque stage payloads. Upstream payloads may have
// been rebuilt from JSON (redis-backed store, queue worker), so numbers
// can arrive as float64 even when written as int.

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return nil
}

func getSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	}
	return nil
}

func firstMap(s []any) map[string]any {
	if len(s) == 0 {
		return nil
	}
	if m, ok := s[0].(map[string]any); ok {
		return m
	}
	return nil
}
