package operators

type Operator string

const (
	// Ordering

	OperatorGt  Operator = "$gt"
	OperatorGte Operator = "$gte"
	OperatorLt  Operator = "$lt"
	OperatorLte Operator = "$lte"

	// Arithmetic

	OperatorMod Operator = "$mod"
)

// Ordered lets value objects take part in ordering comparisons.
// CompareTo returns a negative number, zero or a positive number when the
// receiver sorts before, equal to or after other. ok is false when the two
// values have no defined ordering.
type Ordered interface {
	CompareTo(other any) (result int, ok bool)
}
