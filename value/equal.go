package value

import "github.com/pkg/errors"

var ErrMisuse = errors.New("misuse")

// Equal reports structural equality: same kind, same primitive payload, or
// arrays/objects whose elements are recursively equal. Object key order is
// irrelevant. A nil Value equals Null.
//
// Equal does not detect cycles. Values decoded from json cannot be cyclic;
// a hand built cyclic value makes Equal recurse without bound.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for key, xv := range x {
			yv, found := y[key]
			if !found || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func NotEqual(a, b Value) bool {
	return !Equal(a, b)
}

// EqualPair compares exactly two values, anything else is a misuse.
func EqualPair(values ...Value) (bool, error) {
	if len(values) != 2 {
		return false, errors.WithMessagef(ErrMisuse, "can only compare two values at a time, got %d", len(values))
	}
	return Equal(values[0], values[1]), nil
}
