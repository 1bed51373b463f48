// Package assign finds variable writes on a single line of source text.
//
// Detection is a lexical heuristic, not a parser. It only ever looks at the
// raw text of one line and the local bindings of the frame that executed
// it; nothing is evaluated. Multi-line statements, chained assignment
// (a = b = 1), subscript targets (a[i] = 1) and nested attribute targets
// (a.b.c = 1) are not reported. That is intended behavior.
package assign

import (
	"regexp"
	"strings"

	"xdtrace/internal/host"
)

var (
	// <target-spec><op><rhs>; the first rhs byte may not be '=' so that
	// comparisons never match.
	assignRe = regexp.MustCompile(`^([^+\-*/=]+)([+\-*/]?=)([^=].*)$`)
	parenRe  = regexp.MustCompile(`^\((.+)\)$`)
	targetRe = regexp.MustCompile(`^(?:[\p{L}\p{N}_]+\.)?[\p{L}\p{N}_]+$`)
)

// Binding is one detected write: the target text and its current value.
type Binding struct {
	Name  string
	Value host.Value
}

// Targets returns the assignment targets written by line, left to right.
// ok is false when the line is not an assignment or when any target has a
// shape the detector does not understand; partial results are never
// returned.
func Targets(line string) (targets []string, ok bool) {
	m := assignRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, false
	}
	spec := strings.TrimSpace(m[1])
	if pm := parenRe.FindStringSubmatch(spec); pm != nil {
		spec = strings.TrimSpace(pm[1])
	}
	pieces := strings.Split(spec, ",")
	// "a, = t" unpacks a one-element tuple.
	if len(pieces) > 1 && strings.TrimSpace(pieces[len(pieces)-1]) == "" {
		pieces = pieces[:len(pieces)-1]
	}
	targets = make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if !targetRe.MatchString(p) {
			return nil, false
		}
		targets = append(targets, p)
	}
	return targets, true
}

// Detect reports the writes made by line, resolved against locals. It never
// panics; anything unexpected yields no bindings.
func Detect(line string, locals host.Bindings) (out []Binding) {
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	targets, ok := Targets(line)
	if !ok {
		return nil
	}
	out = make([]Binding, 0, len(targets))
	for _, name := range targets {
		out = append(out, Binding{Name: name, Value: Resolve(locals, name)})
	}
	return out
}

// Resolve reads a bare name, or "object.attribute", from locals. Failed
// lookups yield nil.
func Resolve(locals host.Bindings, name string) host.Value {
	if locals == nil {
		return nil
	}
	objName, attr, dotted := strings.Cut(name, ".")
	if !dotted {
		v, _ := locals.Lookup(name)
		return v
	}
	obj, ok := locals.Lookup(objName)
	if !ok {
		return nil
	}
	o, ok := obj.(host.Object)
	if !ok {
		return nil
	}
	v, _ := o.Attr(attr)
	return v
}
