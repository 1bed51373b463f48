// Package archive stores finished trace sessions on disk so their report
// can be rendered again without running the traced program.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"

	"xdtrace/internal/record"
)

// Current schema version - increment when Session changes shape.
const schemaVersion uint16 = 1

// ErrSchema is returned for archives written by an incompatible version.
var ErrSchema = errors.New("archive: unsupported schema version")

// Session is the archived form of one run. Values are stored rendered, so
// a replayed report is byte-identical to the one printed after the run.
type Session struct {
	Schema  uint16    `msgpack:"schema"`
	ID      string    `msgpack:"id"` // ULID of the run
	Script  string    `msgpack:"script,omitempty"`
	Start   time.Time `msgpack:"start"`
	End     time.Time `msgpack:"end"`
	Entries []Entry   `msgpack:"records"`
}

// Entry is one record with every value pre-rendered.
type Entry struct {
	Kind       string   `msgpack:"k"`
	Depth      int      `msgpack:"d"`
	Elapsed    int64    `msgpack:"t"` // nanoseconds since start
	Faults     int64    `msgpack:"m,omitempty"`
	FaultsOK   bool     `msgpack:"mk,omitempty"`
	Name       string   `msgpack:"n,omitempty"` // routine, module or variable
	FromList   []string `msgpack:"from,omitempty"`
	CallerFile string   `msgpack:"cf,omitempty"`
	CallerLine int      `msgpack:"cl,omitempty"`
	Params     []Param  `msgpack:"p,omitempty"`
	Value      string   `msgpack:"v,omitempty"`
	File       string   `msgpack:"f,omitempty"`
	Line       int      `msgpack:"l,omitempty"`
}

// Param is a rendered call parameter.
type Param struct {
	Name  string `msgpack:"n,omitempty"`
	Value string `msgpack:"v"`
}

// New captures a finished run. id may be empty.
func New(id, script string, start, end time.Time, recs []record.Record) *Session {
	s := &Session{
		Schema:  schemaVersion,
		ID:      id,
		Script:  script,
		Start:   start.UTC(),
		End:     end.UTC(),
		Entries: make([]Entry, 0, len(recs)),
	}
	for _, r := range recs {
		s.Entries = append(s.Entries, encode(r))
	}
	return s
}

// Time returns the creation time embedded in the session id.
func (s *Session) Time() (time.Time, bool) {
	id, err := ulid.ParseStrict(s.ID)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(id.Time()), true
}

func encode(r record.Record) Entry {
	h := r.Head()
	e := Entry{Kind: r.Kind().String(), Depth: h.Depth, Elapsed: int64(h.Elapsed)}
	entry := func(en record.Entry) {
		e.Faults, e.FaultsOK = en.Memory.Faults, en.Memory.Known
		e.CallerFile, e.CallerLine = en.CallerFile, en.CallerLine
	}
	switch x := r.(type) {
	case record.Call:
		entry(x.Entry)
		e.Name = x.Name
		for _, p := range x.Params {
			e.Params = append(e.Params, Param{Name: p.Name, Value: record.FormatValue(p.Value)})
		}
	case record.Import:
		entry(x.Entry)
		e.Name = x.Module
		e.FromList = x.FromList
	case record.Reload:
		entry(x.Entry)
		e.Name = x.Module
	case record.Return:
		e.Value = record.FormatValue(x.Value)
	case record.Assignment:
		e.Name = x.Var
		e.Value = record.FormatValue(x.Value)
		e.File, e.Line = x.File, x.Line
	case record.Finish:
		e.Faults, e.FaultsOK = x.Memory.Faults, x.Memory.Known
	}
	return e
}

// Records rebuilds the record sequence. Values come back as record.Text.
func (s *Session) Records() ([]record.Record, error) {
	out := make([]record.Record, 0, len(s.Entries))
	for i, e := range s.Entries {
		r, err := e.decode()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (e Entry) decode() (record.Record, error) {
	kind, err := record.ParseKind(e.Kind)
	if err != nil {
		return nil, err
	}
	h := record.Header{Depth: e.Depth, Elapsed: time.Duration(e.Elapsed)}
	mem := record.Memory{Faults: e.Faults, Known: e.FaultsOK}
	en := record.Entry{Memory: mem, CallerFile: e.CallerFile, CallerLine: e.CallerLine}
	switch kind {
	case record.KindCall:
		c := record.Call{Header: h, Entry: en, Name: e.Name}
		for _, p := range e.Params {
			c.Params = append(c.Params, record.Param{Name: p.Name, Value: record.Text(p.Value)})
		}
		return c, nil
	case record.KindImport:
		return record.Import{Header: h, Entry: en, Module: e.Name, FromList: e.FromList}, nil
	case record.KindReload:
		return record.Reload{Header: h, Entry: en, Module: e.Name}, nil
	case record.KindReturn:
		return record.Return{Header: h, Value: record.Text(e.Value)}, nil
	case record.KindAssignment:
		return record.Assignment{Header: h, Var: e.Name, Value: record.Text(e.Value), File: e.File, Line: e.Line}, nil
	case record.KindFinish:
		return record.Finish{Header: h, Memory: mem}, nil
	}
	return nil, fmt.Errorf("unexpected record kind %q", e.Kind)
}

// Report renders the archived session.
func (s *Session) Report() (string, error) {
	recs, err := s.Records()
	if err != nil {
		return "", err
	}
	return record.Report(s.Start, s.End, recs), nil
}

// Save writes s to path atomically.
func Save(path string, s *Session) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".xdtrace-*")
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = msgpack.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return os.Rename(f.Name(), path)
}

// Load reads an archive written by Save.
func Load(path string) (*Session, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var s Session
	if err := msgpack.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: failed to decode archive: %w", path, err)
	}
	if s.Schema != schemaVersion {
		return nil, fmt.Errorf("%s: %w %d", path, ErrSchema, s.Schema)
	}
	return &s, nil
}
