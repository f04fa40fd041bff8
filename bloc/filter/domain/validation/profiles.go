package validation

import "fmt"

// Field operators, in declared order.
const (
	OpEq        = "$eq"
	OpGt        = "$gt"
	OpGte       = "$gte"
	OpLt        = "$lt"
	OpLte       = "$lte"
	OpNe        = "$ne"
	OpIn        = "$in"
	OpNin       = "$nin"
	OpNot       = "$not"
	OpExists    = "$exists"
	OpType      = "$type"
	OpMod       = "$mod"
	OpRegex     = "$regex"
	OpWhere     = "$where"
	OpAll       = "$all"
	OpElemMatch = "$elemMatch"
	OpSize      = "$size"
)

// Logical operators.
const (
	OpAnd = "$and"
	OpOr  = "$or"
	OpNor = "$nor"
)

// Stages.
const (
	StageMatch = "$match"
	StageSkip  = "$skip"
	StageLimit = "$limit"
)

// Type tags recognized by $type.
const (
	TypeNumber    = "number"
	TypeString    = "string"
	TypeBoolean   = "boolean"
	TypeObject    = "object"
	TypeArray     = "array"
	TypeNull      = "null"
	TypeUndefined = "undefined"
	TypeFunction  = "function"
)

var TypeTags = []string{
	TypeNumber, TypeString, TypeBoolean, TypeObject, TypeArray, TypeNull, TypeUndefined, TypeFunction,
}

var LogicalOperators = []string{OpAnd, OpOr, OpNor}

var Stages = []string{StageMatch, StageSkip, StageLimit}

var basicOperators = []string{OpEq, OpGt, OpGte, OpLt, OpLte, OpNe, OpIn, OpNin, OpNot}

// Profile is a permitted field-operator set.
type Profile struct {
	name          string
	operators     []string
	nestedLogical bool
}

var (
	// Basic is the comparison-only profile used for query documents.
	Basic = Profile{
		name:      "basic",
		operators: basicOperators,
	}
	// Full adds element, evaluation and array operators and allows logical
	// operators inside logical arms.
	Full = Profile{
		name: "full",
		operators: append(append([]string{}, basicOperators...),
			OpExists, OpType, OpMod, OpRegex, OpWhere, OpAll, OpElemMatch, OpSize),
		nestedLogical: true,
	}
)

// ParseProfile resolves a profile by name.
func ParseProfile(name string) (Profile, error) {
	switch name {
	case Basic.name:
		return Basic, nil
	case Full.name, "":
		return Full, nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q", name)
}

// Operators returns the permitted operators in declared order.
func (p Profile) Operators() []string {
	return append([]string(nil), p.operators...)
}

func (p Profile) Allows(op string) bool {
	for _, o := range p.operators {
		if o == op {
			return true
		}
	}
	return false
}

func (p Profile) NestedLogical() bool {
	return p.nestedLogical
}

func (p Profile) String() string {
	return p.name
}
