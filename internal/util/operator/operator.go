// Package operator defines the comparison operators shared by condition evaluation
// and stat query filters.
package operator

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/hera-erp/tilestats/internal/util/scalar"
)

type Op string

const (
	Eq         Op = "eq"
	Neq        Op = "neq"
	Gt         Op = "gt"
	Gte        Op = "gte"
	Lt         Op = "lt"
	Lte        Op = "lte"
	In         Op = "in"
	NotIn      Op = "not_in"
	Contains   Op = "contains"
	Exists     Op = "exists"
	DateAfter  Op = "date_after"
	DateBefore Op = "date_before"
	// Expr evaluates an expression against the request context. Conditions only.
	Expr Op = "expr"
)

var ErrUnknownOperator = errors.New("unknown operator")

var aliases = map[string]Op{
	"=":                Eq,
	"==":               Eq,
	"equals":           Eq,
	"!=":               Neq,
	"<>":               Neq,
	"not_equals":       Neq,
	">":                Gt,
	"greater_than":     Gt,
	">=":               Gte,
	"greater_or_equal": Gte,
	"<":                Lt,
	"less_than":        Lt,
	"<=":               Lte,
	"less_or_equal":    Lte,
	"not in":           NotIn,
	"after":            DateAfter,
	"before":           DateBefore,
}

var known = map[Op]struct{}{
	Eq: {}, Neq: {}, Gt: {}, Gte: {}, Lt: {}, Lte: {},
	In: {}, NotIn: {}, Contains: {}, Exists: {},
	DateAfter: {}, DateBefore: {}, Expr: {},
}

// Parse normalizes an operator name, accepting common aliases.
func Parse(s string) (Op, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if op, ok := aliases[name]; ok {
		return op, nil
	}
	if _, ok := known[Op(name)]; ok {
		return Op(name), nil
	}
	return "", errors.Wrapf(ErrUnknownOperator, "%q", s)
}

// Compare applies op to actual and expected. Numbers compare numerically and timestamps
// chronologically when both sides coerce, otherwise values compare as strings.
func Compare(op Op, actual, expected any) (bool, error) {
	switch op {
	case Eq:
		return equal(actual, expected), nil
	case Neq:
		return !equal(actual, expected), nil
	case Gt, Gte, Lt, Lte:
		c, ok := order(actual, expected)
		if !ok {
			return false, nil
		}
		switch op {
		case Gt:
			return c > 0, nil
		case Gte:
			return c >= 0, nil
		case Lt:
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case In, NotIn:
		list, ok := scalar.ToSlice(expected)
		if !ok {
			return false, errors.Errorf("operator %s expects a list, got %T", op, expected)
		}
		found := false
		for _, candidate := range list {
			if equal(actual, candidate) {
				found = true
				break
			}
		}
		return found == (op == In), nil
	case Contains:
		if actual == nil {
			return false, nil
		}
		return strings.Contains(strings.ToLower(scalar.String(actual)), strings.ToLower(scalar.String(expected))), nil
	case Exists:
		present := actual != nil && scalar.String(actual) != ""
		if want, ok := expected.(bool); ok && !want {
			return !present, nil
		}
		return present, nil
	case DateAfter, DateBefore:
		a, ok := scalar.ToTime(actual)
		if !ok {
			return false, nil
		}
		e, ok := scalar.ToTime(expected)
		if !ok {
			return false, errors.Errorf("operator %s expects a timestamp, got %v", op, expected)
		}
		if op == DateAfter {
			return a.After(e), nil
		}
		return a.Before(e), nil
	default:
		return false, errors.Wrapf(ErrUnknownOperator, "%q cannot be compared", op)
	}
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := order(a, b); ok {
		return c == 0
	}
	return scalar.String(a) == scalar.String(b)
}

// order returns the sign of a-b for two numbers or two timestamps.
func order(a, b any) (int, bool) {
	if fa, ok := scalar.ToFloat(a); ok {
		if fb, ok := scalar.ToFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	if ta, ok := scalar.ToTime(a); ok {
		if tb, ok := scalar.ToTime(b); ok {
			return ta.Compare(tb), true
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb), true
		}
	}
	return 0, false
}
