//go:build unix

package tracer

import "testing"

func TestProcessMemoryIsMonotonic(t *testing.T) {
	m := ProcessMemory()
	first, ok := m.Faults()
	if !ok {
		t.Skip("getrusage reports no page faults here")
	}
	buf := make([][]byte, 64)
	for i := range buf {
		buf[i] = make([]byte, 1<<16)
		buf[i][0] = 1
	}
	second, _ := m.Faults()
	if second < first {
		t.Errorf("faults went from %d to %d", first, second)
	}
}
