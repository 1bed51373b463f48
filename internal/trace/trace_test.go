package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"xdtrace/internal/record"
)

func sample() []record.Record {
	return []record.Record{
		record.Call{
			Header: record.Header{Depth: 0, Elapsed: 1500 * time.Microsecond},
			Entry:  record.Entry{Memory: record.Memory{Faults: 12, Known: true}, CallerFile: "m.py", CallerLine: 3},
			Name:   "f",
			Params: []record.Param{{Name: "n", Value: int64(2)}},
		},
		record.Assignment{Header: record.Header{Depth: 1}, Var: "x", Value: "hi", File: "m.py", Line: 1},
		record.Return{Header: record.Header{Depth: 0}, Value: nil},
	}
}

func TestStreamTextMatchesReportLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSink(&buf, FormatText)
	for _, r := range sample() {
		s.Emit(r)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	var want []string
	for _, r := range sample() {
		want = append(want, r.Render())
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stream text (-want +got):\n%s", diff)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSink(&buf, FormatNDJSON)
	for _, r := range sample() {
		s.Emit(r)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines", len(lines))
	}
	var call map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &call); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if call["kind"] != "call" || call["name"] != "f" || call["memory"] != float64(12) || call["seq"] != float64(1) {
		t.Errorf("call object = %v", call)
	}
	var ret map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &ret); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ret["value"] != "None" {
		t.Errorf("return value = %v, want None", ret["value"])
	}
}

type failingWriter struct{ n int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.n++
	return 0, errors.New("disk full")
}

func TestStreamKeepsFirstError(t *testing.T) {
	w := &failingWriter{}
	s := NewStreamSink(w, FormatText)
	for _, r := range sample() {
		s.Emit(r)
	}
	if err := s.Flush(); err == nil {
		t.Errorf("Flush returned nil after write failure")
	}
	if w.n != 1 {
		t.Errorf("writes after failure: %d", w.n)
	}
}

func TestRingKeepsTail(t *testing.T) {
	r := NewRingSink(2)
	for _, rec := range sample() {
		r.Emit(rec)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Kind() != record.KindAssignment || snap[1].Kind() != record.KindReturn {
		t.Fatalf("snapshot = %v", snap)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), `{"seq":2,`) {
		t.Errorf("dump does not continue numbering: %s", buf.String())
	}
}

func TestNewModes(t *testing.T) {
	var buf bytes.Buffer
	sink, ring, err := New(Config{Mode: ModeBoth, Output: &buf, OutputPath: "x.ndjson"})
	if err != nil {
		t.Fatal(err)
	}
	if ring == nil || !sink.Enabled() {
		t.Fatalf("both mode: ring=%v enabled=%v", ring, sink.Enabled())
	}
	sink.Emit(sample()[0])
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("format not detected from path: %q", buf.String())
	}
	if ring.Snapshot()[0].Kind() != record.KindCall {
		t.Errorf("ring did not receive record")
	}

	off, ring, err := New(Config{})
	if err != nil || ring != nil || off.Enabled() {
		t.Errorf("off mode: %v %v %v", off, ring, err)
	}
	if _, err := ParseMode("sideways"); err == nil {
		t.Errorf("ParseMode accepted junk")
	}
	if f, _ := ParseFormat("jsonl"); f != FormatNDJSON {
		t.Errorf("ParseFormat(jsonl) = %v", f)
	}
}
