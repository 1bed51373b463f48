//go:build unix

package tracer

import (
	"fortio.org/safecast"
	"golang.org/x/sys/unix"
)

// processFaults reads the minor page fault counter of this process.
type processFaults struct{}

func (processFaults) Faults() (int64, bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	n, err := safecast.Conv[int64](ru.Minflt)
	if err != nil {
		return 0, false
	}
	return n, true
}
