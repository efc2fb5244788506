package capability

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Args are the decoded JSON arguments of one invocation. Numbers arrive as
// float64 from encoding/json; the accessors normalize them.
type Args map[string]interface{}

// String returns a string argument; absent or blank yields ok=false.
func (a Args) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// StringOr returns the string argument or def.
func (a Args) StringOr(name, def string) string {
	if s, ok := a.String(name); ok {
		return s
	}
	return def
}

// Int64 returns an integer argument. ok=false when absent.
func (a Args) Int64(name string) (int64, bool, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, true, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, name, err)
	}
	return n, true, nil
}

// RequireInt64 returns an integer argument or an error when absent.
func (a Args) RequireInt64(name string) (int64, error) {
	n, ok, err := a.Int64(name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	return n, nil
}

// Int64s returns an integer list argument.
func (a Args) Int64s(name string) ([]int64, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s: expected array", ErrInvalidParameter, name)
	}
	out := make([]int64, 0, len(items))
	for _, item := range items {
		n, err := toInt64(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, name, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// Strings returns a string list argument.
func (a Args) Strings(name string) []string {
	items, ok := a[name].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Bool returns a boolean argument.
func (a Args) Bool(name string) (bool, bool) {
	b, ok := a[name].(bool)
	return b, ok
}

// Object returns an object argument.
func (a Args) Object(name string) map[string]interface{} {
	m, _ := a[name].(map[string]interface{})
	return m
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
