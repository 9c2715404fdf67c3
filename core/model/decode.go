package model

import "time"

// Snapshot field helpers. Document snapshots arrive as untyped maps and may
// carry fields of the wrong type after client-side writes; decoding coerces
// instead of failing so a malformed document degrades to a skipped condition
// rather than a handler error.

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
