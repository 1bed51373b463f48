package dispatch

import (
	"xdtrace/internal/host"
	"xdtrace/internal/record"
)

// Params flattens the parameters bound in a freshly entered frame:
// positional parameters by name, then each variadic positional value
// unnamed, then each variadic keyword entry by key.
func Params(fr *host.Frame) (out []record.Param) {
	if fr == nil || fr.Code == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			out = nil
		}
	}()
	code := fr.Code
	for _, name := range code.Params {
		v, _ := fr.Lookup(name)
		out = append(out, record.Param{Name: name, Value: v})
	}
	if code.VarArgs != "" {
		if v, ok := fr.Lookup(code.VarArgs); ok {
			if seq, ok := v.(host.Sequence); ok {
				for _, e := range seq.Elems() {
					out = append(out, record.Param{Value: e})
				}
			}
		}
	}
	if code.KwArgs != "" {
		if v, ok := fr.Lookup(code.KwArgs); ok {
			if kw, ok := v.(host.Keywords); ok {
				for _, k := range kw.Keys() {
					val, _ := kw.Lookup(k)
					out = append(out, record.Param{Name: k, Value: val})
				}
			}
		}
	}
	return out
}
