package operators

import (
	"fmt"
	"reflect"
)

type BinaryOp func(left, right any) (any, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

type OperatorRegistry struct {
	binary map[binaryKey]BinaryOp
}

func NewOperatorRegistry() *OperatorRegistry {
	return &OperatorRegistry{
		binary: make(map[binaryKey]BinaryOp),
	}
}

func RegisterBinary[L, R any](reg *OperatorRegistry, op Operator, fn func(L, R) (any, error)) {
	var zeroL L
	var zeroR R
	key := binaryKey{
		left:  reflect.TypeOf(zeroL),
		op:    op,
		right: reflect.TypeOf(zeroR),
	}
	reg.binary[key] = func(left, right any) (any, error) {
		return fn(left.(L), right.(R))
	}
}

// ExecBinary executes a binary operator. Two integers are ordered exactly;
// any other numeric operands are widened to float64 before lookup so that
// int and float64 compare by value. A nil operand yields a nil result (no
// defined ordering).
func (r *OperatorRegistry) ExecBinary(left any, op Operator, right any) (any, error) {
	if left == nil || right == nil {
		return nil, nil
	}
	if accept := acceptOrdering(op); accept != nil {
		if c, ok := CompareIntegers(left, right); ok {
			return accept(c), nil
		}
	}
	left, right = Normalize(left), Normalize(right)

	fn, err := r.lookupBinary(left, op, right)
	if err != nil {
		return nil, err
	}
	return fn(left, right)
}

// Compare executes an ordering operator and reports false for every
// operand pair the registry cannot order.
func (r *OperatorRegistry) Compare(left any, op Operator, right any) bool {
	result, err := r.ExecBinary(left, op, right)
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

func (r *OperatorRegistry) lookupBinary(left any, op Operator, right any) (BinaryOp, error) {
	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	fn, ok := r.binary[key]
	if ok {
		return fn, nil
	}

	if fallback := interfaceFallback(left, op); fallback != nil {
		return fallback, nil
	}

	return nil, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
}

func interfaceFallback(left any, op Operator) BinaryOp {
	if _, ok := left.(Ordered); !ok {
		return nil
	}
	accept := acceptOrdering(op)
	if accept == nil {
		return nil
	}
	return func(left, right any) (any, error) {
		c, ok := left.(Ordered).CompareTo(right)
		if !ok {
			return nil, fmt.Errorf("operator \"%s\" is not supported for %T and %T", op, left, right)
		}
		return accept(c), nil
	}
}

// Normalize widens any Go numeric kind to float64 and returns every other
// value unchanged.
func Normalize(v any) any {
	if f, ok := ToFloat(v); ok {
		return f
	}
	return v
}

// ToFloat reports the float64 value of a numeric operand.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
