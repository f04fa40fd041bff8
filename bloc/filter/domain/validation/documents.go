package validation

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateQuery accepts only an optional $match key holding a filter
// document valid under the Basic profile.
func ValidateQuery(doc map[string]any) error {
	for _, key := range SortedKeys(doc) {
		if key != StageMatch {
			return notAllowed(key)
		}
		if err := validateMatch(New(Basic), doc[key]); err != nil {
			return err.child(key)
		}
	}
	return nil
}

// ValidateStages accepts a document holding any of $match, $skip and $limit.
func ValidateStages(doc map[string]any, profile Profile) error {
	if err := validateStages(doc, New(profile)); err != nil {
		return err
	}
	return nil
}

// ValidatePipeline accepts an ordered list of single-stage documents.
func ValidatePipeline(stages []map[string]any, profile Profile) error {
	v := New(profile)
	for i, stage := range stages {
		if len(stage) != 1 {
			return newError(fmt.Sprintf("\"value\" must contain exactly one of [%s]", strings.Join(Stages, ", "))).
				at("stages", i)
		}
		if err := validateStages(stage, v); err != nil {
			return err.at("stages", i)
		}
	}
	return nil
}

func validateStages(doc map[string]any, v *Validator) *ValidationError {
	for _, key := range SortedKeys(doc) {
		if !slices.Contains(Stages, key) {
			return notAllowed(key)
		}
		var err *ValidationError
		switch key {
		case StageMatch:
			err = validateMatch(v, doc[key])
		case StageSkip, StageLimit:
			err = validateCount(key, doc[key])
		}
		if err != nil {
			return err.child(key)
		}
	}
	return nil
}

func validateMatch(v *Validator, value any) *ValidationError {
	if value == nil {
		return nil
	}
	doc, ok := AsDocument(value)
	if !ok {
		return mustBe(StageMatch, "an object")
	}
	return v.validateFilter(doc, 0)
}
