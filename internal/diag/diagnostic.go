package diag

import (
	"xdtrace/internal/source"
)

// Diagnostic is one finding of the lexer or the parser.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
}
