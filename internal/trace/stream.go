package trace

import (
	"io"
	"sync"

	"xdtrace/internal/record"
)

// StreamSink writes records immediately to an io.Writer.
type StreamSink struct {
	mu     sync.Mutex
	w      io.Writer
	format Format
	seq    uint64
	err    error
}

// NewStreamSink creates a new StreamSink.
func NewStreamSink(w io.Writer, format Format) *StreamSink {
	return &StreamSink{w: w, format: format}
}

// Emit writes a record to the output. The first write error is kept and
// reported by Flush; later records are dropped.
func (s *StreamSink) Emit(rec record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.seq++
	if _, err := s.w.Write(FormatRecord(s.seq, rec, s.format)); err != nil {
		s.err = err
	}
}

// Flush ensures all buffered data is written.
func (s *StreamSink) Flush() error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if flusher, ok := s.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (s *StreamSink) Close() error {
	err := s.Flush()
	if closer, ok := s.w.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Enabled returns true.
func (s *StreamSink) Enabled() bool { return true }
