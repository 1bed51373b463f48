// Package trace streams trace records while a run is in progress.
//
// The report produced at the end of a run is the authoritative output; the
// sinks in this package are an additional live view of the same records,
// useful for long runs and for runs that never finish.
//
// # Sinks
//
//   - Nop: discards everything
//   - StreamSink: writes every record immediately (text or NDJSON)
//   - RingSink: keeps the last N records in memory for post-mortem dumps
//   - MultiSink: fans out to several sinks
//
// # Formats
//
// FormatText writes the same line the report would contain. FormatNDJSON
// writes one JSON object per record with the record's fields broken out.
package trace
