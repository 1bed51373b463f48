package vm

import (
	"math"
	"strings"
	"unicode/utf8"

	"xdtrace/internal/ast"
	"xdtrace/internal/token"
)

func truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *List:
		return len(x.elems) > 0
	case *Tuple:
		return len(x.elems) > 0
	case *Dict:
		return x.Len() > 0
	case *Range:
		return x.Len() > 0
	}
	return true
}

// number classifies v as an int (bools included) or a float.
func number(v Value) (i int64, f float64, isFloat, ok bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, 1, false, true
		}
		return 0, 0, false, true
	case int64:
		return x, float64(x), false, true
	case float64:
		return 0, x, true, true
	}
	return 0, 0, false, false
}

func unsupported(op token.Kind, l, r Value) error {
	return throw(TypeError, "unsupported operand type(s) for %s: '%s' and '%s'", op, typeOf(l).Name, typeOf(r).Name)
}

func overflow() error { return throw(OverflowError, "integer overflow") }

func binaryOp(op token.Kind, l, r Value) (Value, error) {
	li, lf, lFloat, lNum := number(l)
	ri, rf, rFloat, rNum := number(r)
	if lNum && rNum {
		if lFloat || rFloat || op == token.Slash {
			return floatOp(op, lf, rf)
		}
		return intOp(op, li, ri)
	}
	switch op {
	case token.Plus:
		switch x := l.(type) {
		case string:
			if y, ok := r.(string); ok {
				return x + y, nil
			}
		case *List:
			if y, ok := r.(*List); ok {
				out := make([]Value, 0, len(x.elems)+len(y.elems))
				return NewList(append(append(out, x.elems...), y.elems...)...), nil
			}
		case *Tuple:
			if y, ok := r.(*Tuple); ok {
				out := make([]Value, 0, len(x.elems)+len(y.elems))
				return NewTuple(append(append(out, x.elems...), y.elems...)...), nil
			}
		}
	case token.Star:
		if rNum && !rFloat {
			if v, ok := repeat(l, ri); ok {
				return v, nil
			}
		}
		if lNum && !lFloat {
			if v, ok := repeat(r, li); ok {
				return v, nil
			}
		}
	case token.Percent:
		if format, ok := l.(string); ok {
			return formatPercent(format, r)
		}
	}
	return nil, unsupported(op, l, r)
}

func repeat(seq Value, n int64) (Value, bool) {
	if n < 0 {
		n = 0
	}
	switch x := seq.(type) {
	case string:
		return strings.Repeat(x, int(n)), true
	case *List:
		out := make([]Value, 0, len(x.elems)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, x.elems...)
		}
		return NewList(out...), true
	case *Tuple:
		out := make([]Value, 0, len(x.elems)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, x.elems...)
		}
		return NewTuple(out...), true
	}
	return nil, false
}

func intOp(op token.Kind, a, b int64) (Value, error) {
	var (
		v  int64
		ok = true
	)
	switch op {
	case token.Plus:
		v, ok = addInt(a, b)
	case token.Minus:
		v, ok = subInt(a, b)
	case token.Star:
		v, ok = mulInt(a, b)
	case token.SlashSlash:
		if b == 0 {
			return nil, throw(ZeroDivisionError, "integer division or modulo by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow()
		}
		v = floorDiv(a, b)
	case token.Percent:
		if b == 0 {
			return nil, throw(ZeroDivisionError, "integer division or modulo by zero")
		}
		if b == -1 {
			return int64(0), nil
		}
		v = floorMod(a, b)
	case token.StarStar:
		if b < 0 {
			return floatOp(op, float64(a), float64(b))
		}
		v, ok = powInt(a, b)
	default:
		return nil, unsupported(op, a, b)
	}
	if !ok {
		return nil, overflow()
	}
	return v, nil
}

func floatOp(op token.Kind, a, b float64) (Value, error) {
	switch op {
	case token.Plus:
		return a + b, nil
	case token.Minus:
		return a - b, nil
	case token.Star:
		return a * b, nil
	case token.Slash:
		if b == 0 {
			return nil, throw(ZeroDivisionError, "division by zero")
		}
		return a / b, nil
	case token.SlashSlash:
		if b == 0 {
			return nil, throw(ZeroDivisionError, "float floor division by zero")
		}
		return math.Floor(a / b), nil
	case token.Percent:
		if b == 0 {
			return nil, throw(ZeroDivisionError, "float modulo")
		}
		return floatMod(a, b), nil
	case token.StarStar:
		if a == 0 && b < 0 {
			return nil, throw(ZeroDivisionError, "0.0 cannot be raised to a negative power")
		}
		return math.Pow(a, b), nil
	}
	return nil, unsupported(op, a, b)
}

// inplaceOp is binaryOp except that list += extends the list itself.
func inplaceOp(op token.Kind, l, r Value) (Value, error) {
	if lst, ok := l.(*List); ok && op == token.Plus {
		items, err := iterate(r)
		if err != nil {
			return nil, err
		}
		lst.elems = append(lst.elems, items...)
		return lst, nil
	}
	return binaryOp(op, l, r)
}

func unaryOp(op token.Kind, v Value) (Value, error) {
	if op == token.KwNot {
		return !truthy(v), nil
	}
	i, f, isFloat, ok := number(v)
	if !ok {
		return nil, throw(TypeError, "bad operand type for unary %s: '%s'", op, typeOf(v).Name)
	}
	switch {
	case op == token.Plus && isFloat:
		return f, nil
	case op == token.Plus:
		return i, nil
	case isFloat:
		return -f, nil
	case i == math.MinInt64:
		return nil, overflow()
	default:
		return -i, nil
	}
}

func compare(op ast.CmpOp, l, r Value) (bool, error) {
	switch op {
	case ast.CmpEq:
		return equal(l, r), nil
	case ast.CmpNotEq:
		return !equal(l, r), nil
	case ast.CmpIs:
		return identical(l, r), nil
	case ast.CmpIsNot:
		return !identical(l, r), nil
	case ast.CmpIn:
		return contains(r, l)
	case ast.CmpNotIn:
		ok, err := contains(r, l)
		return !ok, err
	}
	c, err := order(l, r, op)
	if err != nil {
		return false, err
	}
	switch op {
	case ast.CmpLt:
		return c < 0, nil
	case ast.CmpLtE:
		return c <= 0, nil
	case ast.CmpGt:
		return c > 0, nil
	default:
		return c >= 0, nil
	}
}

func equal(a, b Value) bool {
	ai, af, aFloat, aNum := number(a)
	bi, bf, bFloat, bNum := number(b)
	if aNum && bNum {
		if aFloat || bFloat {
			return af == bf
		}
		return ai == bi
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		return ok && equalSeq(x.elems, y.elems)
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && equalSeq(x.elems, y.elems)
	case *Range:
		y, ok := b.(*Range)
		return ok && equalSeq(x.Elems(), y.Elems())
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			v, found, err := y.Get(k)
			if err != nil || !found || !equal(x.vals[i], v) {
				return false
			}
		}
		return true
	}
	return a == b
}

func equalSeq(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func identical(a, b Value) bool {
	if typeOf(a) != typeOf(b) {
		return false
	}
	return a == b
}

// order compares l and r; the result is negative, zero or positive.
func order(l, r Value, op ast.CmpOp) (int, error) {
	li, lf, lFloat, lNum := number(l)
	ri, rf, rFloat, rNum := number(r)
	if lNum && rNum {
		if lFloat || rFloat {
			return cmp3(lf, rf), nil
		}
		return cmp3(li, ri), nil
	}
	switch x := l.(type) {
	case string:
		if y, ok := r.(string); ok {
			return strings.Compare(x, y), nil
		}
	case *List:
		if y, ok := r.(*List); ok {
			return orderSeq(x.elems, y.elems, op)
		}
	case *Tuple:
		if y, ok := r.(*Tuple); ok {
			return orderSeq(x.elems, y.elems, op)
		}
	}
	return 0, throw(TypeError, "'%s' not supported between instances of '%s' and '%s'", op, typeOf(l).Name, typeOf(r).Name)
}

func orderSeq(a, b []Value, op ast.CmpOp) (int, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if equal(a[i], b[i]) {
			continue
		}
		return order(a[i], b[i], op)
	}
	return cmp3(len(a), len(b)), nil
}

func cmp3[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case *List:
		return containsSeq(c.elems, item), nil
	case *Tuple:
		return containsSeq(c.elems, item), nil
	case *Dict:
		_, ok, err := c.Get(item)
		return ok, err
	case string:
		s, ok := item.(string)
		if !ok {
			return false, throw(TypeError, "'in <string>' requires string as left operand, not %s", typeOf(item).Name)
		}
		return strings.Contains(c, s), nil
	case *Range:
		i, _, isFloat, ok := number(item)
		if !ok || isFloat {
			return containsSeq(c.Elems(), item), nil
		}
		n := c.Len()
		if n == 0 || (i-c.start)%c.step != 0 {
			return false, nil
		}
		k := (i - c.start) / c.step
		return k >= 0 && k < int64(n), nil
	}
	return false, throw(TypeError, "argument of type '%s' is not iterable", typeOf(container).Name)
}

func containsSeq(elems []Value, item Value) bool {
	for _, e := range elems {
		if equal(e, item) {
			return true
		}
	}
	return false
}

// iterate materializes the items a for loop visits.
func iterate(v Value) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		return append([]Value(nil), x.elems...), nil
	case *Tuple:
		return x.elems, nil
	case *Dict:
		keys, _ := x.Entries()
		return keys, nil
	case *Range:
		return x.Elems(), nil
	case string:
		out := make([]Value, 0, utf8.RuneCountInString(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, throw(TypeError, "'%s' object is not iterable", typeOf(v).Name)
}
