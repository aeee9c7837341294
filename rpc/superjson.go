package rpc

import (
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	timeType      = reflect.TypeOf(time.Time{})
	marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
)

// superjsonEncode wraps v the way superjson.serialize does: the JSON value under
// "json" and, when v contains timestamps, "meta.values" annotations marking each
// of them as a Date so the client revives them.
func superjsonEncode(v any) map[string]any {
	env := map[string]any{"json": v}
	if values := dateAnnotations(v); values != nil {
		env["meta"] = map[string]any{"values": values}
	}
	return env
}

// superjsonDecode returns the "json" member of a superjson envelope. Anything
// that is not an envelope is returned unchanged.
func superjsonDecode(raw json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return raw
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	inner, ok := env["json"]
	if !ok {
		return raw
	}
	return inner
}

// dateAnnotations returns ["Date"] for a bare timestamp, a map of dotted paths to
// ["Date"] for timestamps nested in objects and arrays, or nil when there are none.
func dateAnnotations(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	if rv.Type() == timeType {
		return []string{"Date"}
	}
	out := make(map[string][]string)
	walkDates(rv, nil, out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func escapeKey(k string) string {
	return strings.ReplaceAll(k, ".", `\.`)
}

func walkDates(rv reflect.Value, path []string, out map[string][]string) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Type() == timeType {
		if len(path) > 0 {
			out[strings.Join(path, ".")] = []string{"Date"}
		}
		return
	}
	if rv.Type().Implements(marshalerType) {
		return
	}

	switch rv.Kind() {
	case reflect.Struct:
		walkStruct(rv, path, out)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return
		}
		for i := 0; i < rv.Len(); i++ {
			walkDates(rv.Index(i), append(path[:len(path):len(path)], strconv.Itoa(i)), out)
		}
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return
		}
		iter := rv.MapRange()
		for iter.Next() {
			walkDates(iter.Value(), append(path[:len(path):len(path)], escapeKey(iter.Key().String())), out)
		}
	}
}

func walkStruct(rv reflect.Value, path []string, out map[string][]string) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() && !f.Anonymous {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)
		if f.Anonymous && name == "" {
			walkDates(fv, path, out)
			continue
		}
		if strings.Contains(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		if name == "" {
			name = f.Name
		}
		walkDates(fv, append(path[:len(path):len(path)], escapeKey(name)), out)
	}
}

// isEmptyValue mirrors encoding/json's omitempty rule.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}
