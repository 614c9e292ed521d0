package service

import (
	"strings"
	"time"
)

// Shape-probing helpers for the gateway's loosely structured payloads.
// Every helper tolerates missing keys and wrong types; none of them panic.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func childMap(m map[string]any, keys ...string) map[string]any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		if c := asMap(m[k]); c != nil {
			return c
		}
	}
	return nil
}

// firstString returns the first non-blank string value among keys, in order.
func firstString(m map[string]any, keys ...string) string {
	if m == nil {
		return ""
	}
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys ...string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	for _, k := range keys {
		switch n := m[k].(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case int64:
			return float64(n), true
		}
	}
	return 0, false
}

func boolAt(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	b, _ := m[key].(bool)
	return b
}

// itemsOf returns the first items-like array inside data, looking at data
// itself and then at the collection keys the gateway is known to use.
func itemsOf(data any) ([]any, bool) {
	if s := asSlice(data); s != nil {
		return s, true
	}
	m := asMap(data)
	if m == nil {
		return nil, false
	}
	for _, k := range []string{"items", "blogs", "services", "posts", "results"} {
		if s := asSlice(m[k]); s != nil {
			return s, true
		}
	}
	return nil, false
}

// timeAt parses a timestamp that may arrive as RFC3339 text or epoch
// milliseconds. Zero time when absent or unparsable.
func timeAt(m map[string]any, keys ...string) time.Time {
	if m == nil {
		return time.Time{}
	}
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t
			}
		case float64:
			if v > 0 {
				return time.Unix(0, int64(v)*int64(time.Millisecond))
			}
		}
	}
	return time.Time{}
}
