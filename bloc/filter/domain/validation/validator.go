// Package validation checks the shape of filter, query and stage documents
// before anything is evaluated.
package validation

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
)

const operatorPrefix = "$"

// Validator validates filter documents against one profile.
type Validator struct {
	profile Profile
}

func New(profile Profile) *Validator {
	return &Validator{profile: profile}
}

func (v *Validator) Profile() Profile {
	return v.profile
}

// ValidateFilter returns a *ValidationError for the first violation in doc,
// visiting keys in lexicographic order.
func (v *Validator) ValidateFilter(doc map[string]any) error {
	if err := v.validateFilter(doc, 0); err != nil {
		return err
	}
	return nil
}

func (v *Validator) validateFilter(doc map[string]any, depth int) *ValidationError {
	for _, key := range SortedKeys(doc) {
		value := doc[key]
		if !strings.HasPrefix(key, operatorPrefix) {
			if err := v.validateFieldPredicate(key, value); err != nil {
				return err.child(key)
			}
			continue
		}
		if !slices.Contains(LogicalOperators, key) {
			return notAllowed(key)
		}
		if depth > 0 && !v.profile.nestedLogical {
			return notAllowed(key)
		}
		if err := v.validateLogical(key, value, depth); err != nil {
			return err.child(key)
		}
	}
	return nil
}

func (v *Validator) validateLogical(key string, value any, depth int) *ValidationError {
	arms, ok := AsList(value)
	if !ok {
		return mustBe(key, "an array")
	}
	if len(arms) == 0 {
		return newError(fmt.Sprintf("%q must contain at least 1 items", key))
	}
	for i, arm := range arms {
		doc, ok := AsDocument(arm)
		if !ok {
			return mustBe(fmt.Sprint(i), "an object").at(key, i)
		}
		if err := v.validateFilter(doc, depth+1); err != nil {
			return err.at(key, i)
		}
	}
	return nil
}

func (v *Validator) validateFieldPredicate(label string, value any) *ValidationError {
	predicate, ok := AsDocument(value)
	if !ok {
		return mustBe(label, "an object")
	}
	recognized := 0
	for _, op := range SortedKeys(predicate) {
		if !v.profile.Allows(op) {
			return notAllowedOf(op, v.profile.Operators())
		}
		if err := v.validateOperand(op, predicate[op]); err != nil {
			return err.child(op)
		}
		recognized++
	}
	if recognized == 0 {
		return atLeastOneOf(v.profile.Operators())
	}
	return nil
}

func (v *Validator) validateOperand(op string, operand any) *ValidationError {
	switch op {
	case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
		return nil
	case OpIn, OpNin, OpAll, OpElemMatch:
		if _, ok := AsList(operand); !ok {
			return mustBe(op, "an array")
		}
	case OpNot:
		return v.validateFieldPredicate(op, operand)
	case OpExists:
		if _, ok := operand.(bool); !ok {
			return mustBe(op, "a boolean")
		}
	case OpType:
		tag, ok := operand.(string)
		if !ok {
			return mustBe(op, "a string")
		}
		if !slices.Contains(TypeTags, tag) {
			return mustBe(op, fmt.Sprintf("one of [%s]", strings.Join(TypeTags, ", ")))
		}
	case OpMod:
		return validateMod(operand)
	case OpRegex:
		return validateRegex(operand)
	case OpWhere:
		if !isPredicateFunc(operand) {
			return mustBe(op, "a Function")
		}
	case OpSize:
		return validateCount(op, operand)
	}
	return nil
}

func validateMod(operand any) *ValidationError {
	pair, ok := AsList(operand)
	if !ok {
		return mustBe(OpMod, "an array")
	}
	if len(pair) != 2 {
		return newError(fmt.Sprintf("%q must contain 2 items", OpMod))
	}
	for i, item := range pair {
		f, ok := operators.ToFloat(item)
		if !ok {
			return mustBe(fmt.Sprint(i), "a number").at(OpMod, i)
		}
		if f != math.Trunc(f) {
			return mustBe(fmt.Sprint(i), "an integer").at(OpMod, i)
		}
		if i == 0 && f == 0 {
			return newError(fmt.Sprintf("%q contains an invalid value", "0")).at(OpMod, i)
		}
	}
	return nil
}

func validateRegex(operand any) *ValidationError {
	switch p := operand.(type) {
	case *regexp.Regexp:
		if p == nil {
			return mustBe(OpRegex, "a valid regular expression")
		}
	case string:
		if _, err := regexp.Compile(p); err != nil {
			return mustBe(OpRegex, "a valid regular expression")
		}
	default:
		return mustBe(OpRegex, "a string")
	}
	return nil
}

func validateCount(label string, operand any) *ValidationError {
	f, ok := operators.ToFloat(operand)
	if !ok {
		return mustBe(label, "a number")
	}
	if f != math.Trunc(f) {
		return mustBe(label, "an integer")
	}
	if f < 0 {
		return mustBe(label, "larger than or equal to 0")
	}
	return nil
}

func isPredicateFunc(operand any) bool {
	switch operand.(type) {
	case func(any) bool, func(any) (bool, error):
		return true
	}
	return false
}

// SortedKeys returns the keys of doc in lexicographic order.
func SortedKeys[V any](doc map[string]V) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsDocument reports whether v is a document: a map keyed by string.
func AsDocument(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

// AsList reports whether v is a sequence: a slice or array of any element
// type. Byte slices are treated as sequences too.
func AsList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	l := make([]any, rv.Len())
	for i := range l {
		l[i] = rv.Index(i).Interface()
	}
	return l, true
}

// AsCount reports the value of a non-negative integer operand. Counts past
// math.MaxInt are clamped to it.
func AsCount(v any) (int, bool) {
	if validateCount("", v) != nil {
		return 0, false
	}
	f, _ := operators.ToFloat(v)
	if f >= math.MaxInt {
		return math.MaxInt, true
	}
	return int(f), true
}
