package action

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/avharness/cutline/internal/edit"
	"github.com/avharness/cutline/internal/timeline"
)

// Params is the named-parameter bag every action takes. Values are
// JSON-compatible: strings, numbers, booleans, string lists, and nested
// bags.
type Params map[string]any

// Str returns an optional string parameter.
func (p Params) Str(key string) (string, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected string, got %T", key, v)
	}

	return s, nil
}

// RequiredStr returns a mandatory string parameter.
func (p Params) RequiredStr(key string) (string, *edit.Error) {
	s, err := p.Str(key)
	if err != nil {
		return "", err
	}

	if s == "" {
		return "", edit.Errorf(edit.CodeInvalidInput, "parameter %q is required", key)
	}

	return s, nil
}

// Int64 returns an optional integer parameter with a default. JSON numbers
// arrive as float64; integral values are accepted, fractions are not.
func (p Params) Int64(key string, fallback int64) (int64, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback, nil
	}

	return coerceInt64(key, v)
}

// RequiredInt64 returns a mandatory integer parameter.
func (p Params) RequiredInt64(key string) (int64, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, edit.Errorf(edit.CodeInvalidInput, "parameter %q is required", key)
	}

	return coerceInt64(key, v)
}

// OptInt64 returns a pointer for parameters where absence is meaningful.
func (p Params) OptInt64(key string) (*int64, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}

	n, err := coerceInt64(key, v)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// Float64 returns an optional float parameter with a default.
func (p Params) Float64(key string, fallback float64) (float64, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback, nil
	}

	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, edit.Errorf(edit.CodeInvalidInput, "parameter %q: %v", key, err)
		}

		return f, nil
	default:
		return 0, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected number, got %T", key, v)
	}
}

// Bool returns an optional boolean parameter.
func (p Params) Bool(key string) (bool, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, nil
	}

	b, ok := v.(bool)
	if !ok {
		return false, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected boolean, got %T", key, v)
	}

	return b, nil
}

// StrSlice returns an optional list-of-strings parameter.
func (p Params) StrSlice(key string) ([]string, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))

		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected string list, got %T element", key, item)
			}

			out = append(out, s)
		}

		return out, nil
	default:
		return nil, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected string list, got %T", key, v)
	}
}

// StrMap returns an optional string-to-string map parameter.
func (p Params) StrMap(key string) (map[string]string, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch m := v.(type) {
	case map[string]string:
		return m, nil
	case map[string]any:
		out := make(map[string]string, len(m))

		for k, item := range m {
			s, ok := item.(string)
			if !ok {
				out[k] = fmt.Sprint(item)
				continue
			}

			out[k] = s
		}

		return out, nil
	default:
		return nil, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected property map, got %T", key, v)
	}
}

// Bag returns an optional nested parameter bag.
func (p Params) Bag(key string) (Params, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}

	switch m := v.(type) {
	case Params:
		return m, nil
	case map[string]any:
		return Params(m), nil
	default:
		return nil, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected parameter bag, got %T", key, v)
	}
}

// Keyframes returns an optional parameter-to-curve map, accepting the JSON
// shape {"param": [{"frame": n, "value": x}, ...]}.
func (p Params) Keyframes(key string) (map[string][]timeline.Keyframe, *edit.Error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}

	if typed, ok := v.(map[string][]timeline.Keyframe); ok {
		return typed, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, edit.Errorf(edit.CodeInvalidInput, "parameter %q: %v", key, err)
	}

	var out map[string][]timeline.Keyframe

	err = json.Unmarshal(raw, &out)
	if err != nil {
		return nil, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected keyframe curves: %v", key, err)
	}

	return out, nil
}

func coerceInt64(key string, v any) (int64, *edit.Error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected integer, got %v", key, n)
		}

		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, edit.Errorf(edit.CodeInvalidInput, "parameter %q: %v", key, err)
		}

		return i, nil
	default:
		return 0, edit.Errorf(edit.CodeInvalidInput, "parameter %q: expected integer, got %T", key, v)
	}
}
