package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid matches every *ValidationError through errors.Is.
var ErrInvalid = errors.New("invalid document")

type pathElem struct {
	key      string
	label    string
	position int
	indexed  bool
}

// ValidationError reports the first structural violation found in a
// filter, query or stage document.
//
// The message nests the way the rejection happened, for example
//
//	child "age" fails because ["value" must contain at least one of [$eq, $gt]]
type ValidationError struct {
	path    []pathElem
	reason  string
	allowed []string
}

func newError(reason string) *ValidationError {
	return &ValidationError{reason: reason}
}

func notAllowed(key string) *ValidationError {
	return newError(fmt.Sprintf("%q is not allowed", key))
}

func notAllowedOf(key string, allowed []string) *ValidationError {
	e := notAllowed(key)
	e.allowed = allowed
	return e
}

func mustBe(label, what string) *ValidationError {
	return newError(fmt.Sprintf("%q must be %s", label, what))
}

func atLeastOneOf(allowed []string) *ValidationError {
	e := newError(fmt.Sprintf("\"value\" must contain at least one of [%s]", strings.Join(allowed, ", ")))
	e.allowed = allowed
	return e
}

func (e *ValidationError) child(key string) *ValidationError {
	e.path = append([]pathElem{{key: key}}, e.path...)
	return e
}

func (e *ValidationError) at(label string, position int) *ValidationError {
	e.path = append([]pathElem{{label: label, position: position, indexed: true}}, e.path...)
	return e
}

func (e *ValidationError) Error() string {
	return render(e.path, e.reason)
}

func render(path []pathElem, reason string) string {
	if len(path) == 0 {
		return reason
	}
	head := path[0]
	inner := render(path[1:], reason)
	if head.indexed {
		return fmt.Sprintf("%q at position %d fails because [%s]", head.label, head.position, inner)
	}
	return fmt.Sprintf("child %q fails because [%s]", head.key, inner)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Path returns the chain of document keys leading to the violation,
// outermost first. Array positions are rendered as decimal strings.
func (e *ValidationError) Path() []string {
	result := make([]string, 0, len(e.path))
	for _, p := range e.path {
		if p.indexed {
			result = append(result, fmt.Sprint(p.position))
		} else {
			result = append(result, p.key)
		}
	}
	return result
}

// Key returns the innermost document key named by Path, or "" for
// violations at the document root.
func (e *ValidationError) Key() string {
	for i := len(e.path) - 1; i >= 0; i-- {
		if !e.path[i].indexed {
			return e.path[i].key
		}
	}
	return ""
}

// Allowed lists the permitted operators when the violation is an
// operator-set violation, nil otherwise.
func (e *ValidationError) Allowed() []string {
	return e.allowed
}
