package operators

import "cmp"

type integer struct {
	signed   int64
	unsigned uint64
	isSigned bool
}

func toInteger(v any) (integer, bool) {
	switch n := v.(type) {
	case int:
		return integer{signed: int64(n), isSigned: true}, true
	case int8:
		return integer{signed: int64(n), isSigned: true}, true
	case int16:
		return integer{signed: int64(n), isSigned: true}, true
	case int32:
		return integer{signed: int64(n), isSigned: true}, true
	case int64:
		return integer{signed: n, isSigned: true}, true
	case uint:
		return integer{unsigned: uint64(n)}, true
	case uint8:
		return integer{unsigned: uint64(n)}, true
	case uint16:
		return integer{unsigned: uint64(n)}, true
	case uint32:
		return integer{unsigned: uint64(n)}, true
	case uint64:
		return integer{unsigned: n}, true
	}
	return integer{}, false
}

// CompareIntegers orders two Go integers of any kind without widening them
// to float64. ok is false unless both operands are integers.
func CompareIntegers(a, b any) (result int, ok bool) {
	x, okA := toInteger(a)
	y, okB := toInteger(b)
	if !okA || !okB {
		return 0, false
	}
	switch {
	case x.isSigned && y.isSigned:
		return cmp.Compare(x.signed, y.signed), true
	case !x.isSigned && !y.isSigned:
		return cmp.Compare(x.unsigned, y.unsigned), true
	case x.isSigned:
		if x.signed < 0 {
			return -1, true
		}
		return cmp.Compare(uint64(x.signed), y.unsigned), true
	default:
		if y.signed < 0 {
			return 1, true
		}
		return cmp.Compare(x.unsigned, uint64(y.signed)), true
	}
}

func acceptOrdering(op Operator) func(int) bool {
	switch op {
	case OperatorGt:
		return func(c int) bool { return c > 0 }
	case OperatorGte:
		return func(c int) bool { return c >= 0 }
	case OperatorLt:
		return func(c int) bool { return c < 0 }
	case OperatorLte:
		return func(c int) bool { return c <= 0 }
	}
	return nil
}
