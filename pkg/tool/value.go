// Package tool defines the canonical tool model: values, calls, results,
// connector tool descriptors, and the JSON Schema subset used to describe
// tool parameters. Every transport and provider boundary converts to and
// from these types.
package tool

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Value is a closed variant over the JSON data types. It is the canonical
// representation for tool arguments and results so they can cross transport
// and schema boundaries without depending on `any`.
//
// The implementation set is fixed: String, Number, Bool, Null, Array, Object.
type Value interface {
	isValue()
}

// String is a JSON string value.
type String string

// Number is a JSON number value.
type Number float64

// Bool is a JSON boolean value.
type Bool bool

// Null is the JSON null value.
type Null struct{}

// Array is an ordered sequence of values.
type Array []Value

// Object is a keyed map of values.
type Object map[string]Value

func (String) isValue() {}
func (Number) isValue() {}
func (Bool) isValue()   {}
func (Null) isValue()   {}
func (Array) isValue()  {}
func (Object) isValue() {}

// MarshalJSON renders Null as the JSON literal null.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// FromJSON decodes raw JSON into a Value.
func FromJSON(raw []byte) (Value, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("tool: decoding value: %w", err)
	}
	return FromAny(v)
}

// FromAny converts a decoded JSON value (string, float64, bool, nil,
// []any, map[string]any) into a Value.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("tool: invalid number %q: %w", t, err)
		}
		return Number(f), nil
	case []any:
		arr := make(Array, len(t))
		for i, el := range t {
			val, err := FromAny(el)
			if err != nil {
				return nil, err
			}
			arr[i] = val
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(t))
		for k, el := range t {
			val, err := FromAny(el)
			if err != nil {
				return nil, err
			}
			obj[k] = val
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("tool: unsupported value type %T", v)
	}
}

// ToAny converts a Value back into plain decoded-JSON form, suitable for
// embedding in provider wire payloads.
func ToAny(v Value) any {
	switch t := v.(type) {
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Bool:
		return bool(t)
	case Null:
		return nil
	case Array:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = ToAny(el)
		}
		return out
	case Object:
		out := make(map[string]any, len(t))
		for k, el := range t {
			out[k] = ToAny(el)
		}
		return out
	default:
		return nil
	}
}

// ArgumentsFromJSON decodes a JSON object into a canonical argument map.
func ArgumentsFromJSON(raw []byte) (map[string]Value, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("tool: decoding arguments: %w", err)
	}
	return ArgumentsFromAny(m)
}

// ArgumentsFromAny converts a decoded JSON object into a canonical
// argument map.
func ArgumentsFromAny(m map[string]any) (map[string]Value, error) {
	args := make(map[string]Value, len(m))
	for k, v := range m {
		val, err := FromAny(v)
		if err != nil {
			return nil, err
		}
		args[k] = val
	}
	return args, nil
}

// ArgumentsToAny converts a canonical argument map into plain decoded-JSON
// form with deterministic key handling left to the encoder.
func ArgumentsToAny(args map[string]Value) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = ToAny(v)
	}
	return out
}

// SortedKeys returns the object's keys in lexical order. Useful for
// deterministic serialization in logs and tests.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
