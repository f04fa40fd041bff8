package operators

import (
	"cmp"
	"errors"
	"math"
	"time"
)

func registerOrdering[T cmp.Ordered](reg *OperatorRegistry) {
	RegisterBinary[T, T](reg, OperatorGt, func(a, b T) (any, error) { return a > b, nil })
	RegisterBinary[T, T](reg, OperatorGte, func(a, b T) (any, error) { return a >= b, nil })
	RegisterBinary[T, T](reg, OperatorLt, func(a, b T) (any, error) { return a < b, nil })
	RegisterBinary[T, T](reg, OperatorLte, func(a, b T) (any, error) { return a <= b, nil })
}

// NewDefaultRegistry creates a registry ordering numbers, strings, durations
// and timestamps. Numbers that are not both integers arrive widened to
// float64 (see Normalize).
func NewDefaultRegistry() *OperatorRegistry {
	reg := NewOperatorRegistry()

	registerOrdering[float64](reg)
	registerOrdering[string](reg)
	registerOrdering[time.Duration](reg)

	RegisterBinary[float64, float64](reg, OperatorMod, func(a, b float64) (any, error) {
		if b == 0 {
			return nil, errors.New("modulo by zero")
		}
		return math.Mod(a, b), nil
	})

	// time.Time (timestamp)
	RegisterBinary[time.Time, time.Time](reg, OperatorGt, func(a, b time.Time) (any, error) { return a.After(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorGte, func(a, b time.Time) (any, error) { return !a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorLt, func(a, b time.Time) (any, error) { return a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OperatorLte, func(a, b time.Time) (any, error) { return !a.After(b), nil })

	return reg
}
