package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"xdtrace/internal/source"
)

// Pretty печатает диагностики в человекочитаемом виде:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//	    <source line>
//	    ^~~~
//
// The underline is aligned by display width, so wide characters before the
// span keep the caret under the right column. Colour is used when useColor
// is set.
func Pretty(w io.Writer, items []Diagnostic, fs *source.FileSet, useColor bool) {
	sevColor := color.New(color.FgRed, color.Bold)
	caretColor := color.New(color.FgGreen)
	if !useColor {
		sevColor.DisableColor()
		caretColor.DisableColor()
	}
	for _, d := range items {
		f := fs.Get(d.Primary.File)
		start, end := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			f.Path, start.Line, start.Col, sevColor.Sprint(d.Severity), d.Code.ID(), d.Message)

		line := f.GetLine(int(start.Line))
		if line == "" {
			continue
		}
		pad, width := underline(line, start, end)
		fmt.Fprintf(w, "    %s\n", strings.ReplaceAll(line, "\t", " "))
		fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", pad), caretColor.Sprint("^"+strings.Repeat("~", width-1)))
	}
}

// underline returns the display offset and width of the span on its first line.
func underline(line string, start, end source.LineCol) (pad, width int) {
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	stop := len(line)
	if end.Line == start.Line && int(end.Col)-1 <= len(line) {
		stop = int(end.Col) - 1
	}
	if stop < col {
		stop = col
	}
	pad = runewidth.StringWidth(strings.ReplaceAll(line[:col], "\t", " "))
	width = runewidth.StringWidth(line[col:stop])
	if width < 1 {
		width = 1
	}
	return pad, width
}
