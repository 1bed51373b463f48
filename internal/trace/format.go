package trace

import (
	"encoding/json"
	"fmt"
	"strings"

	"xdtrace/internal/record"
)

// Format represents the output format for streamed records.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // report lines
	FormatNDJSON               // newline-delimited JSON
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid stream format: %q (expected: auto|text|ndjson)", s)
	}
}

// FormatRecord formats a record according to the specified format.
func FormatRecord(seq uint64, rec record.Record, format Format) []byte {
	switch format {
	case FormatNDJSON:
		return formatNDJSON(seq, rec)
	default:
		return []byte(rec.Render() + "\n")
	}
}

type jsonParam struct {
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`
}

type jsonRecord struct {
	Seq        uint64      `json:"seq"`
	Kind       string      `json:"kind"`
	Depth      int         `json:"depth"`
	Elapsed    float64     `json:"elapsed"`
	Memory     *int64      `json:"memory,omitempty"`
	Name       string      `json:"name,omitempty"`
	Params     []jsonParam `json:"params,omitempty"`
	Module     string      `json:"module,omitempty"`
	FromList   []string    `json:"from_list,omitempty"`
	Var        string      `json:"var,omitempty"`
	Value      *string     `json:"value,omitempty"`
	CallerFile string      `json:"caller_file,omitempty"`
	CallerLine int         `json:"caller_line,omitempty"`
	File       string      `json:"file,omitempty"`
	Line       int         `json:"line,omitempty"`
}

// formatNDJSON formats a record as one JSON object. Values are carried in
// their report rendering.
func formatNDJSON(seq uint64, rec record.Record) []byte {
	h := rec.Head()
	j := jsonRecord{
		Seq:     seq,
		Kind:    rec.Kind().String(),
		Depth:   h.Depth,
		Elapsed: h.Elapsed.Seconds(),
	}
	entry := func(e record.Entry) {
		if e.Memory.Known {
			m := e.Memory.Faults
			j.Memory = &m
		}
		j.CallerFile = e.CallerFile
		j.CallerLine = e.CallerLine
	}
	value := func(v any) *string {
		s := record.FormatValue(v)
		return &s
	}

	switch r := rec.(type) {
	case record.Call:
		entry(r.Entry)
		j.Name = r.Name
		for _, p := range r.Params {
			j.Params = append(j.Params, jsonParam{Name: p.Name, Value: record.FormatValue(p.Value)})
		}
	case record.Import:
		entry(r.Entry)
		j.Module = r.Module
		j.FromList = r.FromList
	case record.Reload:
		entry(r.Entry)
		j.Module = r.Module
	case record.Return:
		j.Value = value(r.Value)
	case record.Assignment:
		j.Var = r.Var
		j.Value = value(r.Value)
		j.File = r.File
		j.Line = r.Line
	case record.Finish:
		if r.Memory.Known {
			m := r.Memory.Faults
			j.Memory = &m
		}
	}

	data, _ := json.Marshal(j)
	data = append(data, '\n')
	return data
}
