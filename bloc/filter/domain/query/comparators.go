package query

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/path"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
)

// Equal reports deep structural equality. Numbers compare by value whatever
// their Go kind (two integers exactly, without float rounding), timestamps by instant, and structs compare by their
// exported data, so a struct equals a map holding the same fields.
func Equal(a, b any) bool {
	if c, ok := operators.CompareIntegers(a, b); ok {
		return c == 0
	}
	if fa, ok := operators.ToFloat(a); ok {
		fb, ok := operators.ToFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if isList(a) || isList(b) {
		la, okA := validation.AsList(a)
		lb, okB := validation.AsList(b)
		if !okA || !okB || len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	}
	if da, ok := asObject(a); ok {
		db, ok := asObject(b)
		if !ok || len(da) != len(db) {
			return false
		}
		for k, va := range da {
			vb, found := db[k]
			if !found || !Equal(va, vb) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// asObject exposes maps keyed by string and structs (or pointers to them)
// as documents.
func asObject(v any) (map[string]any, bool) {
	if doc, ok := validation.AsDocument(v); ok {
		return doc, true
	}
	return path.StructDocument(v)
}

func containsEqual(values []any, v any) bool {
	for _, candidate := range values {
		if Equal(v, candidate) {
			return true
		}
	}
	return false
}

// TypeOf returns the $type tag of a resolved value.
func TypeOf(v path.Value) string {
	if !v.Present {
		return validation.TypeUndefined
	}
	if v.Raw == nil {
		return validation.TypeNull
	}
	if _, ok := operators.ToFloat(v.Raw); ok {
		return validation.TypeNumber
	}
	switch reflect.TypeOf(v.Raw).Kind() {
	case reflect.String:
		return validation.TypeString
	case reflect.Bool:
		return validation.TypeBoolean
	case reflect.Func:
		if reflect.ValueOf(v.Raw).IsNil() {
			return validation.TypeNull
		}
		return validation.TypeFunction
	case reflect.Slice, reflect.Array:
		return validation.TypeArray
	case reflect.Ptr, reflect.Map:
		if reflect.ValueOf(v.Raw).IsNil() {
			return validation.TypeNull
		}
	}
	return validation.TypeObject
}

// scalarString coerces strings, numbers and booleans for $regex; every
// other value has no string form.
func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case bool:
		return strconv.FormatBool(s), true
	}
	if _, ok := operators.CompareIntegers(v, 0); ok {
		return fmt.Sprint(v), true
	}
	if f, ok := operators.ToFloat(v); ok {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return fmt.Sprint(f), true
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
