package diag

import (
	"fmt"
	"strings"

	"xdtrace/internal/source"
)

// SyntaxError is returned when source text fails to lex or parse.
type SyntaxError struct {
	Path  string
	Items []Diagnostic
	fs    *source.FileSet
}

// NewSyntaxError wraps the errors of bag. It returns nil when the bag holds
// no errors.
func NewSyntaxError(fs *source.FileSet, path string, bag *Bag) *SyntaxError {
	if bag == nil || !bag.HasErrors() {
		return nil
	}
	bag.Sort()
	items := make([]Diagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		if d.Severity >= SevError {
			items = append(items, d)
		}
	}
	return &SyntaxError{Path: path, Items: items, fs: fs}
}

// Error reports the first diagnostic with its position.
func (e *SyntaxError) Error() string {
	d := e.Items[0]
	start, _ := e.fs.Resolve(d.Primary)
	msg := fmt.Sprintf("%s:%d:%d: %s", e.Path, start.Line, start.Col, d.Message)
	if n := len(e.Items) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more)", n)
	}
	return msg
}

// Line returns the 1-based line of the first diagnostic.
func (e *SyntaxError) Line() int {
	start, _ := e.fs.Resolve(e.Items[0].Primary)
	return int(start.Line)
}

// Pretty renders all diagnostics with source context.
func (e *SyntaxError) Pretty(useColor bool) string {
	var sb strings.Builder
	Pretty(&sb, e.Items, e.fs, useColor)
	return sb.String()
}
