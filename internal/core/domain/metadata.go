package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Metadata is a flat map of chunk attributes. Values are strings,
// booleans or numbers; nested values are rejected by Validate.
type Metadata map[string]any

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Validate checks that every value is a scalar.
func (m Metadata) Validate() error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "" {
			return fmt.Errorf("%w: empty metadata key", ErrInvalidInput)
		}
		switch m[k].(type) {
		case string, bool:
		default:
			if _, ok := toFloat(m[k]); !ok {
				return fmt.Errorf("%w: metadata %q has unsupported type %T", ErrInvalidInput, k, m[k])
			}
		}
	}
	return nil
}

// Matches reports whether m contains every key of filter with an equal value.
// An empty filter matches everything.
func (m Metadata) Matches(filter Metadata) bool {
	for k, want := range filter {
		got, ok := m[k]
		if !ok || !ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

// String returns the value at key if it is a string.
func (m Metadata) String(key string) string {
	s, _ := m[key].(string)
	return s
}

// Int returns the value at key as an int, accepting any numeric representation.
func (m Metadata) Int(key string) (int, bool) {
	f, ok := toFloat(m[key])
	if !ok {
		return 0, false
	}
	return int(f), true
}

// ValuesEqual compares two metadata values. Numbers compare by value
// regardless of their Go type, so 3, int64(3) and 3.0 are equal.
func ValuesEqual(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
