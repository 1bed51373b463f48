package trace

import (
	"fmt"
	"io"
	"os"
	"strings"

	"xdtrace/internal/record"
)

// Sink receives records as they are appended to a session.
type Sink interface {
	// Emit records one entry. Must be goroutine-safe.
	Emit(rec record.Record)

	// Flush ensures all buffered records are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Enabled reports whether the sink does anything at all.
	Enabled() bool
}

// StorageMode determines how records are kept.
type StorageMode uint8

const (
	ModeOff    StorageMode = iota // discard
	ModeStream                    // immediate write
	ModeRing                      // circular buffer
	ModeBoth                      // stream + ring
)

// String returns the string representation of StorageMode.
func (m StorageMode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeStream:
		return "stream"
	case ModeRing:
		return "ring"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode converts a string to StorageMode.
func ParseMode(s string) (StorageMode, error) {
	switch strings.ToLower(s) {
	case "", "off":
		return ModeOff, nil
	case "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	case "both":
		return ModeBoth, nil
	default:
		return ModeOff, fmt.Errorf("invalid storage mode: %q (expected: off|stream|ring|both)", s)
	}
}

// Config holds sink configuration.
type Config struct {
	Mode       StorageMode
	Format     Format    // output format (FormatAuto for auto-detection)
	Output     io.Writer // for stream mode (if nil, use OutputPath)
	OutputPath string    // alternative: file path ("-" for stderr)
	RingSize   int       // for ring mode (default 256)
}

// New creates a Sink based on Config. The returned RingSink is non-nil when
// the mode keeps a ring buffer.
func New(cfg Config) (Sink, *RingSink, error) {
	if cfg.RingSize <= 0 {
		cfg.RingSize = 256
	}

	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".jsonl") {
			format = FormatNDJSON
		}
	}

	switch cfg.Mode {
	case ModeOff:
		return Nop, nil, nil

	case ModeStream:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewStreamSink(w, format), nil, nil

	case ModeRing:
		ring := NewRingSink(cfg.RingSize)
		return ring, ring, nil

	case ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, nil, err
		}
		ring := NewRingSink(cfg.RingSize)
		return NewMultiSink(NewStreamSink(w, format), ring), ring, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
}

// openOutput opens the output writer from config.
func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}

	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}

	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open record stream: %w", err)
	}

	return f, nil
}

// nopCloser keeps Close from closing a standard stream.
type nopCloser struct{ io.Writer }
