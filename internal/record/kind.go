package record

import "fmt"

// Kind is the variant of a trace record.
type Kind uint8

const (
	KindCall Kind = iota + 1
	KindReturn
	KindAssignment
	KindImport
	KindReload
	KindFinish
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindReturn:
		return "return"
	case KindAssignment:
		return "assignment"
	case KindImport:
		return "import"
	case KindReload:
		return "reload"
	case KindFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// ParseKind converts a string produced by Kind.String back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k := KindCall; k <= KindFinish; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("invalid record kind: %q", s)
}
