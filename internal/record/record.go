package record

import (
	"fmt"
	"strings"
	"time"

	"xdtrace/internal/host"
)

// Record is one immutable entry of a trace. Records are values: once
// appended to a session they are never modified.
type Record interface {
	Kind() Kind
	Head() Header
	// Render returns the record's line in the trace report, without a newline.
	Render() string
}

// Header carries the attributes common to every record.
type Header struct {
	Depth   int           // call depth, never negative
	Elapsed time.Duration // since session start
}

// Head returns the header itself; embedding it satisfies half of Record.
func (h Header) Head() Header { return h }

// Memory is an optional page-fault counter reading.
type Memory struct {
	Faults int64
	Known  bool
}

// Value returns the counter, or 0 when the platform does not provide one.
func (m Memory) Value() int64 {
	if !m.Known {
		return 0
	}
	return m.Faults
}

// Param is one flattened call parameter. Name is empty for values of the
// variadic positional binding.
type Param struct {
	Name  string
	Value host.Value
}

// Entry holds what call-like records (call, import, reload) share.
type Entry struct {
	Memory     Memory
	CallerFile string
	CallerLine int
}

// Call records entry into a routine.
type Call struct {
	Header
	Entry
	Name   string // qualified routine name
	Params []Param
}

// Import records a module load.
type Import struct {
	Header
	Entry
	Module   string
	FromList []string
}

// Reload records a module reload.
type Reload struct {
	Header
	Entry
	Module string
}

// Return records a routine exit and its value.
type Return struct {
	Header
	Value host.Value
}

// Assignment records a variable write detected on a source line.
type Assignment struct {
	Header
	Var   string
	Value host.Value
	File  string
	Line  int
}

// Finish closes a session with the total elapsed time.
type Finish struct {
	Header
	Memory Memory
}

func (Call) Kind() Kind       { return KindCall }
func (Import) Kind() Kind     { return KindImport }
func (Reload) Kind() Kind     { return KindReload }
func (Return) Kind() Kind     { return KindReturn }
func (Assignment) Kind() Kind { return KindAssignment }
func (Finish) Kind() Kind     { return KindFinish }

// valueIndent is the column where return and assignment lines start.
const valueIndent = 24

func indent(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}

func entryPrefix(h Header, m Memory) string {
	return fmt.Sprintf("%10.4f %10d   %s", h.Elapsed.Seconds(), m.Value(), indent(h.Depth))
}

// Render implements Record.
func (r Call) Render() string {
	return fmt.Sprintf("%s-> %s(%s) %s:%d", entryPrefix(r.Header, r.Memory), r.Name, FormatParams(r.Params), r.CallerFile, r.CallerLine)
}

// Statement returns the import statement the record stands for.
func (r Import) Statement() string {
	if len(r.FromList) > 0 {
		return "from " + r.Module + " import " + strings.Join(r.FromList, ", ")
	}
	return "import " + r.Module
}

// Render implements Record.
func (r Import) Render() string {
	return fmt.Sprintf("%s-> %s %s:%d", entryPrefix(r.Header, r.Memory), r.Statement(), r.CallerFile, r.CallerLine)
}

// Render implements Record.
func (r Reload) Render() string {
	return fmt.Sprintf("%s-> reload(%s) %s:%d", entryPrefix(r.Header, r.Memory), r.Module, r.CallerFile, r.CallerLine)
}

// Render implements Record.
func (r Return) Render() string {
	return strings.Repeat(" ", valueIndent) + indent(r.Depth) + ">=> " + FormatValue(r.Value)
}

// Render implements Record.
func (r Assignment) Render() string {
	return fmt.Sprintf("%s%s=> %s = %s %s:%d", strings.Repeat(" ", valueIndent), indent(r.Depth), r.Var, FormatValue(r.Value), r.File, r.Line)
}

// Render implements Record.
func (r Finish) Render() string {
	return fmt.Sprintf("%10.4f %10d", r.Elapsed.Seconds(), r.Memory.Value())
}

// FormatParams joins parameters as "name=value" (or just "value" when
// unnamed) separated by ", ".
func FormatParams(params []Param) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Name == "" {
			parts[i] = FormatValue(p.Value)
			continue
		}
		parts[i] = p.Name + "=" + FormatValue(p.Value)
	}
	return strings.Join(parts, ", ")
}
