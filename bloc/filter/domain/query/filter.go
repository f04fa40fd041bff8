package query

import (
	"iter"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/path"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
	"github.com/krew-solutions/bloc-go/bloc/stream"
)

// Evaluator applies parsed filters to records.
//
// Match answers for a single record. Apply transforms a whole sequence and
// keeps the set semantics of $or: each arm filters the same input and
// the arm results are concatenated, so a record matched by two arms is
// emitted twice.
type Evaluator struct {
	registry *operators.OperatorRegistry
}

func NewEvaluator() *Evaluator {
	return &Evaluator{registry: operators.NewDefaultRegistry()}
}

func NewEvaluatorWithRegistry(registry *operators.OperatorRegistry) *Evaluator {
	return &Evaluator{registry: registry}
}

// MatchField reports whether the value at predicate.Path satisfies all of
// its operators.
func (e *Evaluator) MatchField(predicate FieldPredicate, record any) bool {
	v := NewEvaluateVisitor(path.Resolve(record, predicate.Path), e.registry)
	return v.Evaluate(predicate.Operators)
}

// Match reports whether record satisfies f.
func (e *Evaluator) Match(f Filter, record any) bool {
	if !e.matchFields(f.Fields, record) {
		return false
	}
	for _, logical := range f.Logical {
		if !e.matchLogical(logical, record) {
			return false
		}
	}
	return true
}

func (e *Evaluator) matchFields(fields []FieldPredicate, record any) bool {
	for _, predicate := range fields {
		if !e.MatchField(predicate, record) {
			return false
		}
	}
	return true
}

func (e *Evaluator) matchLogical(logical LogicalOperator, record any) bool {
	switch logical.Op {
	case validation.OpAnd:
		for _, arm := range logical.Arms {
			if !e.Match(arm, record) {
				return false
			}
		}
		return true
	case validation.OpOr:
		for _, arm := range logical.Arms {
			if e.Match(arm, record) {
				return true
			}
		}
		return false
	case validation.OpNor:
		for _, arm := range logical.Arms {
			if e.Match(arm, record) {
				return false
			}
		}
		return true
	}
	return false
}

// Apply filters records through f. The result is lazy; $or arms force
// their input to be buffered once.
func (e *Evaluator) Apply(f Filter, records iter.Seq[any]) iter.Seq[any] {
	out := records
	if len(f.Fields) > 0 {
		fields := f.Fields
		out = stream.Filter(out, func(r any) bool {
			return e.matchFields(fields, r)
		})
	}
	for _, logical := range f.Logical {
		out = e.applyLogical(logical, out)
	}
	return out
}

func (e *Evaluator) applyLogical(logical LogicalOperator, records iter.Seq[any]) iter.Seq[any] {
	switch logical.Op {
	case validation.OpAnd:
		out := records
		for _, arm := range logical.Arms {
			out = e.Apply(arm, out)
		}
		return out
	case validation.OpOr:
		arms := logical.Arms
		return stream.Buffered(records, func(buffered iter.Seq[any]) []iter.Seq[any] {
			passes := make([]iter.Seq[any], 0, len(arms))
			for _, arm := range arms {
				passes = append(passes, e.Apply(arm, buffered))
			}
			return passes
		})
	case validation.OpNor:
		return stream.Filter(records, func(r any) bool {
			return e.matchLogical(logical, r)
		})
	}
	return func(func(any) bool) {}
}
