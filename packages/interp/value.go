package interp

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/abdul-hamid-achik/introspec/packages/approx"
)

// Runtime values are plain Go natives: int64, float64, complex128,
// string, bool, nil, []any, map[string]any, plus *approx.Approx.

// truthy follows the usual scripting-language rule: false, nil, zero
// numbers, empty strings and empty containers are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int64:
		return val != 0
	case float64:
		return val != 0
	case complex128:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

// equal implements the == operator. Approx wrappers compare by their
// tolerance rule from either side, numbers compare across int/float/
// complex representations, containers compare elementwise, and
// anything left falls through to go-cmp.
func equal(a, b any) bool {
	if w, ok := a.(*approx.Approx); ok {
		return w.Equal(b)
	}
	if w, ok := b.(*approx.Approx); ok {
		return w.Equal(a)
	}

	if ac, aok := toComplex(a); aok {
		bc, bok := toComplex(b)
		return bok && ac == bc
	}

	switch av := a.(type) {
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bval, present := bv[k]
			if !present || !equal(v, bval) {
				return false
			}
		}
		return true
	}

	return cmp.Equal(a, b)
}

// compare implements the ordering operators. Only real numbers and
// strings are ordered.
func compare(a, b any, op string, line int) (bool, error) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return false, orderErr(a, b, op, line)
		}
		switch op {
		case "<":
			return as < bs, nil
		case "<=":
			return as <= bs, nil
		case ">":
			return as > bs, nil
		case ">=":
			return as >= bs, nil
		}
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false, orderErr(a, b, op, line)
	}
	switch op {
	case "<":
		return af < bf, nil
	case "<=":
		return af <= bf, nil
	case ">":
		return af > bf, nil
	case ">=":
		return af >= bf, nil
	}
	return false, &RuntimeError{Message: "unknown comparison operator " + op, Line: line}
}

func orderErr(a, b any, op string, line int) error {
	return &RuntimeError{
		Message: fmt.Sprintf("unorderable operands: %s %s %s", typeName(a), op, typeName(b)),
		Line:    line,
	}
}

// arith implements the binary arithmetic operators with numeric
// widening: int op int stays integral, any float widens to float, any
// complex widens to complex. "+" additionally concatenates strings and
// lists.
func arith(a, b any, op string, line int) (any, error) {
	if op == "+" {
		if as, ok := a.(string); ok {
			if bs, ok := b.(string); ok {
				return as + bs, nil
			}
		}
		if al, ok := a.([]any); ok {
			if bl, ok := b.([]any); ok {
				out := make([]any, 0, len(al)+len(bl))
				out = append(out, al...)
				return append(out, bl...), nil
			}
		}
	}

	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		switch op {
		case "+":
			return ai + bi, nil
		case "-":
			return ai - bi, nil
		case "*":
			return ai * bi, nil
		case "/":
			if bi == 0 {
				return nil, &RuntimeError{Message: "division by zero", Line: line}
			}
			return ai / bi, nil
		case "%":
			if bi == 0 {
				return nil, &RuntimeError{Message: "division by zero", Line: line}
			}
			return ai % bi, nil
		}
	}

	if ac, aok := toComplex(a); aok {
		if bc, bok := toComplex(b); bok {
			if isComplex(a) || isComplex(b) {
				switch op {
				case "+":
					return ac + bc, nil
				case "-":
					return ac - bc, nil
				case "*":
					return ac * bc, nil
				case "/":
					if bc == 0 {
						return nil, &RuntimeError{Message: "division by zero", Line: line}
					}
					return ac / bc, nil
				}
			}
			af, _ := toFloat(a)
			bf, _ := toFloat(b)
			switch op {
			case "+":
				return af + bf, nil
			case "-":
				return af - bf, nil
			case "*":
				return af * bf, nil
			case "/":
				if bf == 0 {
					return nil, &RuntimeError{Message: "division by zero", Line: line}
				}
				return af / bf, nil
			}
		}
	}

	return nil, &RuntimeError{
		Message: fmt.Sprintf("unsupported operands: %s %s %s", typeName(a), op, typeName(b)),
		Line:    line,
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toComplex(v any) (complex128, bool) {
	switch n := v.(type) {
	case int64:
		return complex(float64(n), 0), true
	case float64:
		return complex(n, 0), true
	case complex128:
		return n, true
	}
	return 0, false
}

func isComplex(v any) bool {
	_, ok := v.(complex128)
	return ok
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case complex128:
		return "complex"
	case string:
		return "string"
	case []any:
		return "list"
	case map[string]any:
		return "map"
	case *approx.Approx:
		return "approx"
	default:
		return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
	}
}
