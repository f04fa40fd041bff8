package query

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/bloc-go/bloc/filter/domain/operators"
	"github.com/krew-solutions/bloc-go/bloc/filter/domain/validation"
)

const operatorPrefix = "$"

// FilterParser validates a filter document against a profile and parses it
// into a Filter tree.
type FilterParser struct {
	validator *validation.Validator
}

func NewFilterParser(profile validation.Profile) FilterParser {
	return FilterParser{validator: validation.New(profile)}
}

// Parse returns a *validation.ValidationError when doc is malformed.
func (p FilterParser) Parse(doc map[string]any) (Filter, error) {
	if err := p.validator.ValidateFilter(doc); err != nil {
		return Filter{}, err
	}
	return p.parseFilter(doc)
}

func (p FilterParser) parseFilter(doc map[string]any) (Filter, error) {
	var f Filter
	for _, key := range validation.SortedKeys(doc) {
		if strings.HasPrefix(key, operatorPrefix) {
			continue
		}
		predicate, err := p.parseFieldPredicate(key, doc[key])
		if err != nil {
			return Filter{}, err
		}
		f.Fields = append(f.Fields, predicate)
	}
	for _, op := range validation.LogicalOperators {
		value, ok := doc[op]
		if !ok {
			continue
		}
		logical, err := p.parseLogical(op, value)
		if err != nil {
			return Filter{}, err
		}
		f.Logical = append(f.Logical, logical)
	}
	return f, nil
}

func (p FilterParser) parseLogical(op string, value any) (LogicalOperator, error) {
	list, ok := validation.AsList(value)
	if !ok {
		return LogicalOperator{}, errors.Errorf("%s value must be list, got: %T", op, value)
	}
	arms := make([]Filter, len(list))
	for i, item := range list {
		doc, ok := validation.AsDocument(item)
		if !ok {
			return LogicalOperator{}, errors.Errorf("%s arm %d must be dict, got: %T", op, i, item)
		}
		arm, err := p.parseFilter(doc)
		if err != nil {
			return LogicalOperator{}, err
		}
		arms[i] = arm
	}
	return LogicalOperator{Op: op, Arms: arms}, nil
}

func (p FilterParser) parseFieldPredicate(field string, value any) (FieldPredicate, error) {
	ops, err := p.parseOperators(value)
	if err != nil {
		return FieldPredicate{}, errors.Wrapf(err, "field %q", field)
	}
	return FieldPredicate{Path: field, Operators: ops}, nil
}

func (p FilterParser) parseOperators(value any) ([]IFieldOperator, error) {
	doc, ok := validation.AsDocument(value)
	if !ok {
		return nil, errors.Errorf("field predicate must be dict, got: %T", value)
	}
	parsed := make([]IFieldOperator, 0, len(doc))
	for _, name := range validation.SortedKeys(doc) {
		op, err := p.parseSingleOperator(name, doc[name])
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, op)
	}
	return parsed, nil
}

func (p FilterParser) parseSingleOperator(name string, operand any) (IFieldOperator, error) {
	switch name {
	case validation.OpEq:
		return EqOperator{Value: operand}, nil
	case validation.OpNe:
		return NeOperator{Value: operand}, nil
	case validation.OpGt, validation.OpGte, validation.OpLt, validation.OpLte:
		return ComparisonOperator{Op: operators.Operator(name), Value: operand}, nil
	case validation.OpIn:
		values, err := parseList(name, operand)
		return InOperator{Values: values}, err
	case validation.OpNin:
		values, err := parseList(name, operand)
		return NinOperator{Values: values}, err
	case validation.OpAll:
		values, err := parseList(name, operand)
		return AllOperator{Values: values}, err
	case validation.OpElemMatch:
		values, err := parseList(name, operand)
		return ElemMatchOperator{Values: values}, err
	case validation.OpExists:
		b, ok := operand.(bool)
		if !ok {
			return nil, errors.Errorf("$exists value must be bool, got: %T", operand)
		}
		return ExistsOperator{Value: b}, nil
	case validation.OpType:
		tag, ok := operand.(string)
		if !ok {
			return nil, errors.Errorf("$type value must be string, got: %T", operand)
		}
		return TypeOperator{Tag: tag}, nil
	case validation.OpMod:
		return parseMod(operand)
	case validation.OpRegex:
		return parseRegex(operand)
	case validation.OpWhere:
		return parseWhere(operand)
	case validation.OpSize:
		n, ok := validation.AsCount(operand)
		if !ok {
			return nil, errors.Errorf("$size value must be a non-negative integer, got: %v", operand)
		}
		return SizeOperator{Size: n}, nil
	case validation.OpNot:
		inner, err := p.parseOperators(operand)
		if err != nil {
			return nil, errors.Wrap(err, "$not")
		}
		return NotOperator{Operands: inner}, nil
	}
	return nil, errors.Errorf("unknown operator: %s", name)
}

func parseList(name string, operand any) ([]any, error) {
	values, ok := validation.AsList(operand)
	if !ok {
		return nil, errors.Errorf("%s value must be list, got: %T", name, operand)
	}
	return values, nil
}

func parseMod(operand any) (IFieldOperator, error) {
	pair, ok := validation.AsList(operand)
	if !ok || len(pair) != 2 {
		return nil, errors.Errorf("$mod value must be [divisor, remainder], got: %v", operand)
	}
	divisor, ok1 := operators.ToFloat(pair[0])
	remainder, ok2 := operators.ToFloat(pair[1])
	if !ok1 || !ok2 {
		return nil, errors.Errorf("$mod value must hold numbers, got: %v", operand)
	}
	return ModOperator{Divisor: divisor, Remainder: remainder}, nil
}

func parseRegex(operand any) (IFieldOperator, error) {
	switch pattern := operand.(type) {
	case *regexp.Regexp:
		return RegexOperator{Pattern: pattern}, nil
	case string:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, "$regex")
		}
		return RegexOperator{Pattern: re}, nil
	}
	return nil, errors.Errorf("$regex value must be string, got: %T", operand)
}

func parseWhere(operand any) (IFieldOperator, error) {
	switch fn := operand.(type) {
	case func(any) bool:
		return WhereOperator{Predicate: func(v any) (bool, error) { return fn(v), nil }}, nil
	case func(any) (bool, error):
		return WhereOperator{Predicate: fn}, nil
	}
	return nil, errors.Errorf("$where value must be func, got: %T", operand)
}

// ParseFilter validates and parses doc under profile.
func ParseFilter(doc map[string]any, profile validation.Profile) (Filter, error) {
	return NewFilterParser(profile).Parse(doc)
}
