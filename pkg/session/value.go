package session

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Map is the decoded session mapping.
type Map map[string]any

// Value returns the value stored under key.
func (m Map) Value(key string) Value {
	v, ok := m[key]
	return Value{raw: v, ok: ok}
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Path walks a dotted path such as "user.profile.name". Missing or non-map
// intermediate segments yield an absent Value.
func (m Map) Path(path string) Value {
	parts, err := splitPath(path)
	if err != nil {
		return Value{}
	}
	v := Value{raw: m, ok: true}
	for _, p := range parts {
		v = v.Value(p)
		if !v.ok {
			return Value{}
		}
	}
	return v
}

// Clone returns a deep copy of nested maps and slices.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	return cloneValue(map[string]any(m)).(map[string]any)
}

// setPath stores v under the dotted path, creating intermediate maps.
// An intermediate segment holding a non-map value is an error.
func (m Map) setPath(parts []string, v any) error {
	cur := map[string]any(m)
	for i, p := range parts[:len(parts)-1] {
		next, ok := cur[p]
		if !ok || next == nil {
			child := map[string]any{}
			cur[p] = child
			cur = child
			continue
		}
		child, ok := asMap(next)
		if !ok {
			return fmt.Errorf("%w: %q is not a map", ErrInvalidPath, strings.Join(parts[:i+1], "."))
		}
		cur[p] = child
		cur = child
	}
	cur[parts[len(parts)-1]] = v
	return nil
}

func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Map:
		return map[string]any(t), true
	default:
		return nil, false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, inner := range t {
			cp[k] = cloneValue(inner)
		}
		return cp
	case Map:
		return Map(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		cp := make([]any, len(t))
		for i, inner := range t {
			cp[i] = cloneValue(inner)
		}
		return cp
	default:
		return v
	}
}

// Value is an optional session value.
type Value struct {
	raw any
	ok  bool
}

// Exists reports whether the key was present.
func (v Value) Exists() bool { return v.ok }

// Raw returns the underlying value, nil when absent.
func (v Value) Raw() any { return v.raw }

// Or returns the value, or def when absent.
func (v Value) Or(def any) any {
	if !v.ok {
		return def
	}
	return v.raw
}

func (v Value) String() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// Int accepts any integer type and integral floats.
func (v Value) Int() (int64, bool) {
	switch n := v.raw.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		if float32(int64(n)) == n {
			return int64(n), true
		}
	case float64:
		if float64(int64(n)) == n {
			return int64(n), true
		}
	}
	return 0, false
}

func (v Value) Float() (float64, bool) {
	switch n := v.raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	if i, ok := v.Int(); ok {
		return float64(i), true
	}
	return 0, false
}

func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

// Time accepts time.Time and RFC 3339 strings (how JSON stores times).
func (v Value) Time() (time.Time, bool) {
	switch t := v.raw.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}

// Map returns the nested mapping. Absent or non-map values yield an empty
// Map, so chained lookups never fail.
func (v Value) Map() Map {
	if m, ok := asMap(v.raw); ok {
		return Map(m)
	}
	return Map{}
}

// Value looks up key inside a nested mapping.
func (v Value) Value(key string) Value {
	return v.Map().Value(key)
}

// Decode copies the value into out (a pointer) using json field tags.
// Absent values leave out untouched.
func (v Value) Decode(out any) error {
	if !v.ok {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return dec.Decode(v.raw)
}
