package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dict is an insertion-ordered hash map.
type Dict struct {
	keys  []Value
	vals  []Value
	index map[any]int
}

// NewDict returns an empty dict.
func NewDict() *Dict { return &Dict{index: make(map[any]int)} }

// hashKey maps v to a comparable Go value; equal script values share a key.
func hashKey(v Value) (any, error) {
	switch x := v.(type) {
	case nil, string, int64:
		return x, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<62 {
			return int64(x), nil
		}
		return x, nil
	case *Tuple:
		var sb strings.Builder
		sb.WriteString("(")
		for _, e := range x.elems {
			k, err := hashKey(e)
			if err != nil {
				return nil, err
			}
			sb.WriteString(reprKey(k))
			sb.WriteString(",")
		}
		return tupleKey(sb.String()), nil
	case *List, *Dict:
		return nil, throw(TypeError, "unhashable type: '%s'", typeOf(v).Name)
	default:
		return v, nil
	}
}

type tupleKey string

func reprKey(k any) string {
	switch x := k.(type) {
	case tupleKey:
		return string(x) + ")"
	case nil:
		return "n"
	case string:
		return "s" + strconv.Quote(x)
	case int64:
		return "i" + strconv.FormatInt(x, 10)
	case float64:
		return "f" + strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%T%p", x, x)
	}
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// Get returns the value stored under k.
func (d *Dict) Get(k Value) (Value, bool, error) {
	hk, err := hashKey(k)
	if err != nil {
		return nil, false, err
	}
	i, ok := d.index[hk]
	if !ok {
		return nil, false, nil
	}
	return d.vals[i], true, nil
}

// Set stores v under k, keeping the position of an existing key.
func (d *Dict) Set(k, v Value) error {
	hk, err := hashKey(k)
	if err != nil {
		return err
	}
	if i, ok := d.index[hk]; ok {
		d.vals[i] = v
		return nil
	}
	d.index[hk] = len(d.keys)
	d.keys = append(d.keys, k)
	d.vals = append(d.vals, v)
	return nil
}

// Delete removes k and reports whether it was present.
func (d *Dict) Delete(k Value) (bool, error) {
	hk, err := hashKey(k)
	if err != nil {
		return false, err
	}
	i, ok := d.index[hk]
	if !ok {
		return false, nil
	}
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.vals = append(d.vals[:i], d.vals[i+1:]...)
	delete(d.index, hk)
	for j := i; j < len(d.keys); j++ {
		hk, _ := hashKey(d.keys[j])
		d.index[hk] = j
	}
	return true, nil
}

// Entries returns the keys and values in insertion order.
func (d *Dict) Entries() (keys, vals []Value) {
	return append([]Value(nil), d.keys...), append([]Value(nil), d.vals...)
}

// Keys implements host.Keywords: the string keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		if s, ok := k.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Lookup implements host.Keywords.
func (d *Dict) Lookup(key string) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.vals[i], true
}

// Repr implements host.Repr.
func (d *Dict) Repr() string { return reprValue(d) }
