package record

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"xdtrace/internal/host"
)

// Text is a value whose rendering is already known. Archives store values
// as Text so a replayed report matches the original byte for byte.
type Text string

// Repr implements host.Repr.
func (t Text) Repr() string { return string(t) }

// spewConfig prints foreign Go values structurally: no capacities and
// sorted map keys, so equal values print equally. The formatter only
// prints pointer addresses for the '+' flag, so values go through "%#v".
var spewConfig = spew.ConfigState{
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

// FormatValue is the structural pretty-printer used for parameters, return
// values and assignments. The same value always yields the same text.
func FormatValue(v host.Value) string {
	var f formatter
	return f.format(v)
}

// formatter remembers the Go slices and maps it is inside of; one reached
// again prints as "[...]" or "{...}".
type formatter struct {
	active map[uintptr]struct{}
}

func (f *formatter) enter(v any) (uintptr, bool) {
	p := reflect.ValueOf(v).Pointer()
	if p == 0 {
		return 0, true
	}
	if _, ok := f.active[p]; ok {
		return p, false
	}
	if f.active == nil {
		f.active = make(map[uintptr]struct{})
	}
	f.active[p] = struct{}{}
	return p, true
}

func (f *formatter) leave(p uintptr) {
	if p != 0 {
		delete(f.active, p)
	}
}

func (f *formatter) format(v host.Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case host.Repr:
		return x.Repr()
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		return host.QuoteString(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(x).Int(), 10)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return strconv.FormatUint(reflect.ValueOf(x).Uint(), 10)
	case float32:
		return host.FormatFloat(float64(x))
	case float64:
		return host.FormatFloat(x)
	case []host.Value:
		p, ok := f.enter(x)
		if !ok {
			return "[...]"
		}
		defer f.leave(p)
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = f.format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]host.Value:
		p, ok := f.enter(x)
		if !ok {
			return "{...}"
		}
		defer f.leave(p)
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = host.QuoteString(k) + ": " + f.format(x[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case error:
		return host.QuoteString(x.Error())
	default:
		return strings.TrimSpace(spewConfig.Sprintf("%#v", x))
	}
}

// Snapshot returns v in a form that later changes to v cannot affect.
// Immutable scalars are returned as they are; everything else is rendered
// now and kept as Text.
func Snapshot(v host.Value) host.Value {
	switch v.(type) {
	case nil, bool, string, Text,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return v
	}
	return Text(FormatValue(v))
}

// Freeze returns r with every value it carries replaced by its Snapshot.
func Freeze(r Record) Record {
	switch x := r.(type) {
	case Call:
		if len(x.Params) > 0 {
			params := make([]Param, len(x.Params))
			for i, p := range x.Params {
				params[i] = Param{Name: p.Name, Value: Snapshot(p.Value)}
			}
			x.Params = params
		}
		return x
	case Import:
		if len(x.FromList) > 0 {
			x.FromList = append([]string(nil), x.FromList...)
		}
		return x
	case Return:
		x.Value = Snapshot(x.Value)
		return x
	case Assignment:
		x.Value = Snapshot(x.Value)
		return x
	}
	return r
}
