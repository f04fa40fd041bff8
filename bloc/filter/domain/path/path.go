// Package path resolves dotted field paths against records.
//
// A path such as "email.address" is split on "." and walked one segment at a
// time. Maps keyed by string and structs (by json tag, then by exported field
// name, with fields of embedded structs promoted) can be walked; any other
// intermediate value, or a missing key, makes the whole path absent. Arrays
// are never indexed: they resolve as whole values.
package path

import (
	"cmp"
	"reflect"
	"slices"
	"strings"
)

const separator = "."

// Value is the outcome of resolving a path. Present is false when nothing
// exists at the location, which is distinct from a present nil.
type Value struct {
	Raw     any
	Present bool
}

// Absent is the resolution outcome for a missing location.
var Absent = Value{}

// Of wraps a present value.
func Of(raw any) Value {
	return Value{Raw: raw, Present: true}
}

// Resolve walks path through record.
func Resolve(record any, path string) Value {
	current := record
	for _, segment := range Split(path) {
		next, found := getFieldValue(current, segment)
		if !found {
			return Absent
		}
		current = next
	}
	return Of(current)
}

// Split returns the segments of a dotted path. Literal dots cannot be escaped.
func Split(path string) []string {
	return strings.Split(path, separator)
}

func getFieldValue(state any, field string) (any, bool) {
	switch m := state.(type) {
	case map[string]any:
		v, found := m[field]
		return v, found
	case nil:
		return nil, false
	}
	v := reflect.ValueOf(state)
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := v.MapIndex(reflect.ValueOf(field).Convert(v.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Struct:
		return structField(v, field)
	}
	return nil, false
}

func structField(v reflect.Value, field string) (any, bool) {
	fields := visibleFields(v.Type())
	for _, sf := range fields {
		if name := jsonName(sf); name != "" && name == field {
			return fieldValue(v, sf)
		}
	}
	for _, sf := range fields {
		if sf.Name == field {
			return fieldValue(v, sf)
		}
	}
	return nil, false
}

// StructDocument exposes a struct, or a pointer to one, as a document keyed
// by json name (falling back to the field name), with fields of embedded
// structs promoted.
func StructDocument(record any) (map[string]any, bool) {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	fields := visibleFields(v.Type())
	doc := make(map[string]any, len(fields))
	for _, sf := range fields {
		name := jsonName(sf)
		if name == "-" || (name == "" && promotes(sf)) {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if _, taken := doc[name]; taken {
			continue
		}
		if fv, ok := fieldValue(v, sf); ok {
			doc[name] = fv
		}
	}
	return doc, true
}

func promotes(sf reflect.StructField) bool {
	if !sf.Anonymous {
		return false
	}
	t := sf.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

// visibleFields lists the exported fields of t, shallowest first. Fields of
// embedded structs are promoted unless the embedding itself has a json name.
func visibleFields(t reflect.Type) []reflect.StructField {
	var fields []reflect.StructField
	for _, sf := range reflect.VisibleFields(t) {
		if sf.IsExported() && !behindNamedEmbedding(t, sf.Index) {
			fields = append(fields, sf)
		}
	}
	slices.SortStableFunc(fields, func(a, b reflect.StructField) int {
		return cmp.Compare(len(a.Index), len(b.Index))
	})
	return fields
}

func behindNamedEmbedding(t reflect.Type, index []int) bool {
	for depth := 1; depth < len(index); depth++ {
		if jsonName(t.FieldByIndex(index[:depth])) != "" {
			return true
		}
	}
	return false
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	return name
}

// fieldValue reads sf; a nil embedded pointer on the way makes it absent.
func fieldValue(v reflect.Value, sf reflect.StructField) (any, bool) {
	fv, err := v.FieldByIndexErr(sf.Index)
	if err != nil || !fv.CanInterface() {
		return nil, false
	}
	return fv.Interface(), true
}
