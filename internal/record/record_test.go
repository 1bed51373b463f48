package record

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"xdtrace/internal/host"
)

func TestCallRender(t *testing.T) {
	r := Call{
		Header: Header{Depth: 1, Elapsed: 1500 * time.Millisecond},
		Entry:  Entry{Memory: Memory{Faults: 12, Known: true}, CallerFile: "a.py", CallerLine: 3},
		Name:   "__main__.Fib.calc",
		Params: []Param{{Name: "n", Value: int64(6)}, {Value: "x"}},
	}
	want := "    1.5000" + " " + strings.Repeat(" ", 8) + "12" + "   " + "  " + "-> __main__.Fib.calc(n=6, 'x') a.py:3"
	if got := r.Render(); got != want {
		t.Errorf("Render()\n got %q\nwant %q", got, want)
	}
	if r.Kind() != KindCall {
		t.Errorf("Kind() = %v, want call", r.Kind())
	}
}

func TestUnknownMemoryRendersZero(t *testing.T) {
	r := Finish{Header: Header{Elapsed: 250 * time.Millisecond}}
	want := "    0.2500" + " " + strings.Repeat(" ", 9) + "0"
	if got := r.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestImportAndReloadRender(t *testing.T) {
	imp := Import{
		Header: Header{Depth: 0},
		Entry:  Entry{CallerFile: "main.py", CallerLine: 7},
		Module: "os",
	}
	if got := imp.Render(); !strings.HasSuffix(got, "   -> import os main.py:7") {
		t.Errorf("import Render() = %q", got)
	}
	imp.FromList = []string{"path", "sep"}
	if got := imp.Statement(); got != "from os import path, sep" {
		t.Errorf("Statement() = %q", got)
	}
	rl := Reload{Header: Header{Depth: 2}, Entry: Entry{CallerFile: "m.py", CallerLine: 1}, Module: "helper"}
	if got := rl.Render(); !strings.HasSuffix(got, "       -> reload(helper) m.py:1") {
		t.Errorf("reload Render() = %q", got)
	}
}

func TestValueRecordsRender(t *testing.T) {
	ret := Return{Header: Header{Depth: 1}, Value: int64(123)}
	if got, want := ret.Render(), strings.Repeat(" ", 26)+">=> 123"; got != want {
		t.Errorf("return Render() = %q, want %q", got, want)
	}
	as := Assignment{Header: Header{Depth: 2}, Var: "c", Value: int64(579), File: "f.py", Line: 4}
	if got, want := as.Render(), strings.Repeat(" ", 28)+"=> c = 579 f.py:4"; got != want {
		t.Errorf("assignment Render() = %q, want %q", got, want)
	}
}

type point struct{ X, Y int }

func TestFormatValue(t *testing.T) {
	for _, tc := range []struct {
		in   host.Value
		want string
	}{
		{nil, "None"},
		{true, "True"},
		{false, "False"},
		{int64(-7), "-7"},
		{uint8(7), "7"},
		{1.0, "1.0"},
		{0.1, "0.1"},
		{1e16, "1e+16"},
		{1e6, "1000000.0"},
		{"it's", `"it's"`},
		{"a\nb", `'a\nb'`},
		{[]host.Value{int64(1), "x", nil}, "[1, 'x', None]"},
		{map[string]host.Value{"b": int64(2), "a": int64(1)}, "{'a': 1, 'b': 2}"},
		{Text("<Fib object>"), "<Fib object>"},
	} {
		if got := FormatValue(tc.in); got != tc.want {
			t.Errorf("FormatValue(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatValueIsStructural(t *testing.T) {
	a := &point{1, 2}
	b := &point{1, 2}
	got := FormatValue(a)
	if got != FormatValue(b) {
		t.Errorf("equal pointees printed differently: %q vs %q", got, FormatValue(b))
	}
	if strings.Contains(got, "0x") || !strings.Contains(got, "X:") {
		t.Errorf("FormatValue(&point) = %q, want fields without addresses", got)
	}
	if FormatValue(point{1, 2}) == FormatValue(point{1, 3}) {
		t.Errorf("different structs printed the same: %q", FormatValue(point{1, 2}))
	}
}

func TestFormatValueStopsAtCycles(t *testing.T) {
	s := make([]host.Value, 2)
	s[0] = int64(1)
	s[1] = s
	if got, want := FormatValue(s), "[1, [...]]"; got != want {
		t.Errorf("FormatValue(cyclic slice) = %q, want %q", got, want)
	}
	m := map[string]host.Value{"a": int64(1)}
	m["self"] = m
	if got, want := FormatValue(m), "{'a': 1, 'self': {...}}"; got != want {
		t.Errorf("FormatValue(cyclic map) = %q, want %q", got, want)
	}
	shared := []host.Value{int64(7)}
	if got, want := FormatValue([]host.Value{shared, shared}), "[[7], [7]]"; got != want {
		t.Errorf("FormatValue(shared) = %q, want %q", got, want)
	}
}

func TestReportIsIdempotent(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	end := start.Add(2 * time.Second)
	recs := []Record{
		Call{Header: Header{}, Entry: Entry{CallerFile: "a.py", CallerLine: 1}, Name: "f"},
		Return{Header: Header{}, Value: int64(1)},
		Finish{Header: Header{Elapsed: time.Second}},
	}
	first := Report(start, end, recs)
	second := Report(start, end, recs)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("report changed between renders (-first +second):\n%s", diff)
	}
	lines := strings.Split(first, "\n")
	wantHead := []string{"TRACE START [2024-03-01 09:30:00]"}
	if diff := cmp.Diff(wantHead, lines[:1]); diff != "" {
		t.Errorf("header mismatch:\n%s", diff)
	}
	if lines[4] != "TRACE END   [2024-03-01 09:30:02]" {
		t.Errorf("footer = %q", lines[4])
	}
	if !strings.HasSuffix(first, "]\n\n") {
		t.Errorf("report must end with a blank line: %q", first[len(first)-5:])
	}
}

func TestParseKind(t *testing.T) {
	for k := KindCall; k <= KindFinish; k++ {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFreezeDetachesValues(t *testing.T) {
	list := []host.Value{int64(1)}
	params := []Param{{Name: "xs", Value: list}, {Name: "n", Value: int64(2)}}
	call := Freeze(Call{Name: "f", Params: params}).(Call)
	ret := Freeze(Return{Value: list}).(Return)
	asg := Freeze(Assignment{Var: "xs", Value: list, File: "m.py", Line: 1}).(Assignment)

	list[0] = int64(9)
	params[1].Value = int64(3)

	if got := FormatParams(call.Params); got != "xs=[1], n=2" {
		t.Errorf("params = %q", got)
	}
	if ret.Value != Text("[1]") || asg.Value != Text("[1]") {
		t.Errorf("values = %#v, %#v", ret.Value, asg.Value)
	}
	if v := Freeze(Return{Value: int64(5)}).(Return).Value; v != int64(5) {
		t.Errorf("scalar = %#v, want it unchanged", v)
	}
}
