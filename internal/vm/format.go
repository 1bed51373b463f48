package vm

import (
	"fmt"
	"strings"
)

// formatPercent implements format % args for the conversions
// s r d i f e g x X o and %%.
func formatPercent(format string, args Value) (Value, error) {
	var values []Value
	if t, ok := args.(*Tuple); ok {
		values = t.elems
	} else {
		values = []Value{args}
	}
	next := func() (Value, error) {
		if len(values) == 0 {
			return nil, throw(TypeError, "not enough arguments for format string")
		}
		v := values[0]
		values = values[1:]
		return v, nil
	}

	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' {
			sb.WriteByte(ch)
			continue
		}
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ 0#", format[j]) >= 0 {
			j++
		}
		for j < len(format) && (format[j] >= '0' && format[j] <= '9' || format[j] == '.') {
			j++
		}
		if j >= len(format) {
			return nil, throw(ValueError, "incomplete format")
		}
		spec, conv := format[i+1:j], format[j]
		i = j
		if conv == '%' {
			sb.WriteByte('%')
			continue
		}
		v, err := next()
		if err != nil {
			return nil, err
		}
		s, err := formatOne(spec, conv, v)
		if err != nil {
			return nil, err
		}
		sb.WriteString(s)
	}
	if len(values) > 0 {
		return nil, throw(TypeError, "not all arguments converted during string formatting")
	}
	return sb.String(), nil
}

func formatOne(spec string, conv byte, v Value) (string, error) {
	switch conv {
	case 's':
		return fmt.Sprintf("%"+spec+"s", strValue(v)), nil
	case 'r':
		return fmt.Sprintf("%"+spec+"s", reprValue(v)), nil
	case 'd', 'i', 'x', 'X', 'o':
		i, f, isFloat, ok := number(v)
		if !ok {
			return "", throw(TypeError, "%%%c format: a number is required, not %s", conv, typeOf(v).Name)
		}
		if isFloat {
			i = int64(f)
		}
		if conv == 'i' {
			conv = 'd'
		}
		return fmt.Sprintf("%"+spec+string(conv), i), nil
	case 'f', 'F', 'e', 'E', 'g', 'G':
		_, f, _, ok := number(v)
		if !ok {
			return "", throw(TypeError, "must be real number, not %s", typeOf(v).Name)
		}
		if !strings.Contains(spec, ".") {
			spec += ".6"
		}
		return fmt.Sprintf("%"+spec+string(conv), f), nil
	}
	return "", throw(ValueError, "unsupported format character '%c'", conv)
}
