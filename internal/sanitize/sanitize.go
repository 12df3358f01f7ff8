// Package sanitize rebuilds arbitrary values as plain structured data so
// they survive a JSON round trip. Functions, channels and unrepresentable
// numerics are stripped before a payload is transmitted or archived.
package sanitize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sanitize returns a copy of v made of maps, slices and JSON-safe scalars.
// It is a fixed point: sanitizing its own output changes nothing.
func Sanitize(v any) any {
	out, ok := sanitizeValue(reflect.ValueOf(v))
	if !ok {
		return nil
	}
	return out
}

// sanitizeValue reports ok=false when the value has no serializable
// representation; containers drop such members instead of failing.
func sanitizeValue(rv reflect.Value) (any, bool) {
	if !rv.IsValid() {
		return nil, true
	}

	for rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, true
		}
		if m, ok := marshalerValue(rv); ok {
			return m, true
		}
		rv = rv.Elem()
	}

	if m, ok := marshalerValue(rv); ok {
		return m, true
	}

	switch rv.Kind() {
	case reflect.String:
		if n, isNumber := rv.Interface().(json.Number); isNumber {
			return n, true
		}
		return norm.NFC.String(rv.String()), true
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, true
		}
		return f, true
	case reflect.Map:
		return sanitizeMap(rv)
	case reflect.Slice, reflect.Array:
		return sanitizeSlice(rv)
	case reflect.Struct:
		return sanitizeStruct(rv)
	default:
		// func, chan, complex, unsafe pointer
		return nil, false
	}
}

func sanitizeMap(rv reflect.Value) (any, bool) {
	if rv.IsNil() {
		return nil, true
	}
	out := make(map[string]any, rv.Len())
	for _, key := range rv.MapKeys() {
		var keyStr string
		if key.Kind() == reflect.String {
			keyStr = norm.NFC.String(key.String())
		} else {
			keyStr = fmt.Sprint(key.Interface())
		}
		val, ok := sanitizeValue(rv.MapIndex(key))
		if !ok {
			continue
		}
		out[keyStr] = val
	}
	return out, true
}

func sanitizeSlice(rv reflect.Value) (any, bool) {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, true
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return norm.NFC.String(string(rv.Bytes())), true
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		val, ok := sanitizeValue(rv.Index(i))
		if !ok {
			val = nil
		}
		out = append(out, val)
	}
	return out, true
}

func sanitizeStruct(rv reflect.Value) (any, bool) {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		val, ok := sanitizeValue(rv.Field(i))
		if !ok {
			continue
		}
		if omitEmpty && isEmpty(val) {
			continue
		}
		out[name] = val
	}
	return out, true
}

func marshalerValue(rv reflect.Value) (any, bool) {
	m, ok := rv.Interface().(json.Marshaler)
	if !ok {
		return nil, false
	}
	raw, err := m.MarshalJSON()
	if err != nil {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, false
	}
	out, _ := sanitizeValue(reflect.ValueOf(decoded))
	return out, true
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func isEmpty(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case bool:
		return !value
	case int64:
		return value == 0
	case uint64:
		return value == 0
	case float64:
		return value == 0
	case map[string]any:
		return len(value) == 0
	case []any:
		return len(value) == 0
	default:
		return false
	}
}
