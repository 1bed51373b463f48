package record

import (
	"strings"
	"time"
)

// TimeLayout is the timestamp layout of the report header and footer.
const TimeLayout = "2006-01-02 15:04:05"

// Report renders a finished record sequence:
//
//	TRACE START [<start>]
//	<one line per record>
//	TRACE END   [<end>]
//
// Timestamps are printed in UTC. The output depends only on its inputs, so
// rendering the same session twice yields identical text.
func Report(start, end time.Time, recs []Record) string {
	var sb strings.Builder
	sb.WriteString("TRACE START [")
	sb.WriteString(start.UTC().Format(TimeLayout))
	sb.WriteString("]\n")
	for i, r := range recs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.Render())
	}
	sb.WriteString("\nTRACE END   [")
	sb.WriteString(end.UTC().Format(TimeLayout))
	sb.WriteString("]\n\n")
	return sb.String()
}
