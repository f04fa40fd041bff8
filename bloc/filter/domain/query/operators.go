package query

import (
	"regexp"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
)

// IFieldOperatorVisitor has one method per field operator kind. Adding an
// operator kind breaks every visitor until it handles the new kind.
type IFieldOperatorVisitor interface {
	VisitEq(op EqOperator) (any, error)
	VisitNe(op NeOperator) (any, error)
	VisitComparison(op ComparisonOperator) (any, error)
	VisitIn(op InOperator) (any, error)
	VisitNin(op NinOperator) (any, error)
	VisitExists(op ExistsOperator) (any, error)
	VisitType(op TypeOperator) (any, error)
	VisitMod(op ModOperator) (any, error)
	VisitRegex(op RegexOperator) (any, error)
	VisitWhere(op WhereOperator) (any, error)
	VisitAll(op AllOperator) (any, error)
	VisitElemMatch(op ElemMatchOperator) (any, error)
	VisitSize(op SizeOperator) (any, error)
	VisitNot(op NotOperator) (any, error)
}

type IFieldOperator interface {
	Accept(visitor IFieldOperatorVisitor) (any, error)
	Name() string
}

// EqOperator represents deep equality: {'$eq': value}
type EqOperator struct {
	Value any
}

func (o EqOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitEq(o)
}

func (o EqOperator) Name() string { return validation.OpEq }

// NeOperator is the negation of EqOperator: {'$ne': value}
type NeOperator struct {
	Value any
}

func (o NeOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitNe(o)
}

func (o NeOperator) Name() string { return validation.OpNe }

// ComparisonOperator represents ordering: {'$gt': value}, {'$lte': value}, etc.
type ComparisonOperator struct {
	Op    operators.Operator
	Value any
}

func (o ComparisonOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitComparison(o)
}

func (o ComparisonOperator) Name() string { return string(o.Op) }

// InOperator represents membership: {'$in': [value1, value2, ...]}
type InOperator struct {
	Values []any
}

func (o InOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitIn(o)
}

func (o InOperator) Name() string { return validation.OpIn }

// NinOperator is the negation of InOperator: {'$nin': [...]}
type NinOperator struct {
	Values []any
}

func (o NinOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitNin(o)
}

func (o NinOperator) Name() string { return validation.OpNin }

// ExistsOperator tests presence: {'$exists': true/false}
type ExistsOperator struct {
	Value bool
}

func (o ExistsOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitExists(o)
}

func (o ExistsOperator) Name() string { return validation.OpExists }

// TypeOperator tests the dynamic type tag: {'$type': 'array'}
type TypeOperator struct {
	Tag string
}

func (o TypeOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitType(o)
}

func (o TypeOperator) Name() string { return validation.OpType }

// ModOperator tests value % Divisor == Remainder: {'$mod': [divisor, remainder]}
type ModOperator struct {
	Divisor   float64
	Remainder float64
}

func (o ModOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitMod(o)
}

func (o ModOperator) Name() string { return validation.OpMod }

// RegexOperator matches the string form of a scalar: {'$regex': '^to'}
type RegexOperator struct {
	Pattern *regexp.Regexp
}

func (o RegexOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitRegex(o)
}

func (o RegexOperator) Name() string { return validation.OpRegex }

// Predicate is a caller-supplied $where function.
type Predicate func(value any) (bool, error)

// WhereOperator delegates to a caller-supplied predicate: {'$where': fn}
type WhereOperator struct {
	Predicate Predicate
}

func (o WhereOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitWhere(o)
}

func (o WhereOperator) Name() string { return validation.OpWhere }

// AllOperator requires a sequence holding every value, with equal length:
// {'$all': [...]}. Unlike MongoDB, ['a','b','c'] does not match ['a','b'].
type AllOperator struct {
	Values []any
}

func (o AllOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitAll(o)
}

func (o AllOperator) Name() string { return validation.OpAll }

// ElemMatchOperator requires a sequence containing every value, in any
// order: {'$elemMatch': [...]}. This is a containment check, not MongoDB's
// per-element sub-query.
type ElemMatchOperator struct {
	Values []any
}

func (o ElemMatchOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitElemMatch(o)
}

func (o ElemMatchOperator) Name() string { return validation.OpElemMatch }

// SizeOperator tests sequence length: {'$size': n}
type SizeOperator struct {
	Size int
}

func (o SizeOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitSize(o)
}

func (o SizeOperator) Name() string { return validation.OpSize }

// NotOperator negates each operand independently; the operands are then
// conjuncted: {'$not': {'$gt': 1, '$lt': 5}} means not $gt 1 and not $lt 5.
type NotOperator struct {
	Operands []IFieldOperator
}

func (o NotOperator) Accept(visitor IFieldOperatorVisitor) (any, error) {
	return visitor.VisitNot(o)
}

func (o NotOperator) Name() string { return validation.OpNot }

// FieldPredicate applies every operator to the value resolved at Path.
type FieldPredicate struct {
	Path      string
	Operators []IFieldOperator
}

// LogicalOperator combines nested filters: $and, $or or $nor.
type LogicalOperator struct {
	Op   string
	Arms []Filter
}

// Filter is a parsed filter document. Field predicates and logical
// operators are implicitly conjuncted.
type Filter struct {
	Fields  []FieldPredicate
	Logical []LogicalOperator
}

func (f Filter) IsEmpty() bool {
	return len(f.Fields) == 0 && len(f.Logical) == 0
}
