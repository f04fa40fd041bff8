package query

// ToDocumentVisitor renders field operators back into their document form.
type ToDocumentVisitor struct{}

func (v ToDocumentVisitor) VisitEq(op EqOperator) (any, error) { return op.Value, nil }

func (v ToDocumentVisitor) VisitNe(op NeOperator) (any, error) { return op.Value, nil }

func (v ToDocumentVisitor) VisitComparison(op ComparisonOperator) (any, error) {
	return op.Value, nil
}

func (v ToDocumentVisitor) VisitIn(op InOperator) (any, error) { return listOf(op.Values), nil }

func (v ToDocumentVisitor) VisitNin(op NinOperator) (any, error) { return listOf(op.Values), nil }

func (v ToDocumentVisitor) VisitExists(op ExistsOperator) (any, error) { return op.Value, nil }

func (v ToDocumentVisitor) VisitType(op TypeOperator) (any, error) { return op.Tag, nil }

func (v ToDocumentVisitor) VisitMod(op ModOperator) (any, error) {
	return []any{op.Divisor, op.Remainder}, nil
}

func (v ToDocumentVisitor) VisitRegex(op RegexOperator) (any, error) {
	return op.Pattern.String(), nil
}

func (v ToDocumentVisitor) VisitWhere(op WhereOperator) (any, error) {
	return (func(any) (bool, error))(op.Predicate), nil
}

func (v ToDocumentVisitor) VisitAll(op AllOperator) (any, error) { return listOf(op.Values), nil }

func (v ToDocumentVisitor) VisitElemMatch(op ElemMatchOperator) (any, error) {
	return listOf(op.Values), nil
}

func (v ToDocumentVisitor) VisitSize(op SizeOperator) (any, error) { return op.Size, nil }

func (v ToDocumentVisitor) VisitNot(op NotOperator) (any, error) {
	return v.operators(op.Operands)
}

func (v ToDocumentVisitor) operators(ops []IFieldOperator) (map[string]any, error) {
	doc := make(map[string]any, len(ops))
	for _, op := range ops {
		value, err := op.Accept(v)
		if err != nil {
			return nil, err
		}
		doc[op.Name()] = value
	}
	return doc, nil
}

func listOf(values []any) []any {
	out := make([]any, len(values))
	copy(out, values)
	return out
}

// ToDocument renders a parsed filter as an equivalent filter document.
// Parsing the result yields an equivalent Filter.
func ToDocument(f Filter) (map[string]any, error) {
	v := ToDocumentVisitor{}
	doc := make(map[string]any, len(f.Fields)+len(f.Logical))
	for _, predicate := range f.Fields {
		ops, err := v.operators(predicate.Operators)
		if err != nil {
			return nil, err
		}
		doc[predicate.Path] = ops
	}
	for _, logical := range f.Logical {
		arms := make([]any, 0, len(logical.Arms))
		for _, arm := range logical.Arms {
			armDoc, err := ToDocument(arm)
			if err != nil {
				return nil, err
			}
			arms = append(arms, armDoc)
		}
		doc[logical.Op] = arms
	}
	return doc, nil
}

var _ IFieldOperatorVisitor = ToDocumentVisitor{}
var _ IFieldOperatorVisitor = (*EvaluateVisitor)(nil)
