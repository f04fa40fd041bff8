package query

import (
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/path"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
)

// EvaluateVisitor evaluates field operators against one resolved value.
// Type mismatches evaluate to false; visits never fail.
type EvaluateVisitor struct {
	state    path.Value
	registry *operators.OperatorRegistry
}

func NewEvaluateVisitor(state path.Value, registry *operators.OperatorRegistry) *EvaluateVisitor {
	return &EvaluateVisitor{state: state, registry: registry}
}

// Evaluate reports whether the value satisfies every operator.
func (v *EvaluateVisitor) Evaluate(ops []IFieldOperator) bool {
	for _, op := range ops {
		if !v.evaluate(op) {
			return false
		}
	}
	return true
}

func (v *EvaluateVisitor) evaluate(op IFieldOperator) bool {
	result, err := op.Accept(v)
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

func (v *EvaluateVisitor) VisitEq(op EqOperator) (any, error) {
	return v.state.Present && Equal(v.state.Raw, op.Value), nil
}

func (v *EvaluateVisitor) VisitNe(op NeOperator) (any, error) {
	return !(v.state.Present && Equal(v.state.Raw, op.Value)), nil
}

func (v *EvaluateVisitor) VisitComparison(op ComparisonOperator) (any, error) {
	if !v.state.Present {
		return false, nil
	}
	return v.registry.Compare(v.state.Raw, op.Op, op.Value), nil
}

func (v *EvaluateVisitor) VisitIn(op InOperator) (any, error) {
	return v.state.Present && containsEqual(op.Values, v.state.Raw), nil
}

func (v *EvaluateVisitor) VisitNin(op NinOperator) (any, error) {
	return !(v.state.Present && containsEqual(op.Values, v.state.Raw)), nil
}

func (v *EvaluateVisitor) VisitExists(op ExistsOperator) (any, error) {
	return v.state.Present == op.Value, nil
}

func (v *EvaluateVisitor) VisitType(op TypeOperator) (any, error) {
	return TypeOf(v.state) == op.Tag, nil
}

func (v *EvaluateVisitor) VisitMod(op ModOperator) (any, error) {
	if !v.state.Present {
		return false, nil
	}
	if _, ok := operators.ToFloat(v.state.Raw); !ok {
		return false, nil
	}
	result, err := v.registry.ExecBinary(v.state.Raw, operators.OperatorMod, op.Divisor)
	if err != nil {
		return false, nil
	}
	remainder, ok := result.(float64)
	return ok && remainder == op.Remainder, nil
}

func (v *EvaluateVisitor) VisitRegex(op RegexOperator) (any, error) {
	if !v.state.Present {
		return false, nil
	}
	s, ok := scalarString(v.state.Raw)
	if !ok {
		return false, nil
	}
	return op.Pattern.MatchString(s), nil
}

func (v *EvaluateVisitor) VisitWhere(op WhereOperator) (any, error) {
	var raw any
	if v.state.Present {
		raw = v.state.Raw
	}
	matched, err := op.Predicate(raw)
	if err != nil {
		return false, nil
	}
	return matched, nil
}

func (v *EvaluateVisitor) VisitAll(op AllOperator) (any, error) {
	values, ok := v.sequence()
	if !ok || len(values) != len(op.Values) {
		return false, nil
	}
	for _, expected := range op.Values {
		if !containsEqual(values, expected) {
			return false, nil
		}
	}
	return true, nil
}

func (v *EvaluateVisitor) VisitElemMatch(op ElemMatchOperator) (any, error) {
	values, ok := v.sequence()
	if !ok {
		return false, nil
	}
	for _, expected := range op.Values {
		if !containsEqual(values, expected) {
			return false, nil
		}
	}
	return true, nil
}

func (v *EvaluateVisitor) VisitSize(op SizeOperator) (any, error) {
	values, ok := v.sequence()
	return ok && len(values) == op.Size, nil
}

func (v *EvaluateVisitor) VisitNot(op NotOperator) (any, error) {
	for _, operand := range op.Operands {
		if v.evaluate(operand) {
			return false, nil
		}
	}
	return true, nil
}

func (v *EvaluateVisitor) sequence() ([]any, bool) {
	if !v.state.Present || TypeOf(v.state) != validation.TypeArray {
		return nil, false
	}
	return validation.AsList(v.state.Raw)
}
