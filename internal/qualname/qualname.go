// Package qualname derives the display name of a routine from its frame.
package qualname

import "xdtrace/internal/host"

// Resolve returns "<Class>.<routine>" when the frame's receiver (first
// positional parameter, else the first variadic positional value, else the
// "self"/"cls" keyword) is a class or an instance of a class defining the
// routine. Built-in classes are never used. In every other case the plain
// routine name is returned.
func Resolve(fr *host.Frame) (name string) {
	name = fr.Name()
	defer func() {
		if recover() != nil {
			name = fr.Name()
		}
	}()
	recv, ok := receiver(fr)
	if !ok {
		return name
	}
	cls := classOf(recv)
	if cls == nil || cls.Builtin() || !cls.HasRoutine(name) {
		return name
	}
	return cls.ClassName() + "." + name
}

func receiver(fr *host.Frame) (host.Value, bool) {
	if fr == nil || fr.Code == nil {
		return nil, false
	}
	code := fr.Code
	if len(code.Params) > 0 {
		return fr.Lookup(code.Params[0])
	}
	if code.VarArgs != "" {
		v, ok := fr.Lookup(code.VarArgs)
		if !ok {
			return nil, false
		}
		if seq, ok := v.(host.Sequence); ok {
			if elems := seq.Elems(); len(elems) > 0 {
				return elems[0], true
			}
		}
	}
	if code.KwArgs != "" {
		v, ok := fr.Lookup(code.KwArgs)
		if !ok {
			return nil, false
		}
		kw, ok := v.(host.Keywords)
		if !ok {
			return nil, false
		}
		if self, ok := kw.Lookup("self"); ok {
			return self, true
		}
		if cls, ok := kw.Lookup("cls"); ok {
			return cls, true
		}
	}
	return nil, false
}

func classOf(v host.Value) host.Class {
	switch x := v.(type) {
	case host.Class:
		return x
	case host.Instance:
		return x.Class()
	default:
		return nil
	}
}
