// Package parsers turns single lines of external log text into
// structured events. Every parser is a pure function: no I/O, no
// shared state, and a malformed line is reported as not-parseable
// rather than an error. Field sets differ per format; whatever a
// format extracts beyond the fixed record fields goes into the open
// Context map.
package parsers

import (
	"time"

	"github.com/livp123/logvault/internal/event"
)

// Event is one structured result produced from a raw log line.
type Event struct {
	Category  event.Category
	Name      string
	Severity  event.Severity
	Timestamp time.Time // zero means unknown; the writer stamps it
	Message   string
	IPAddress string
	Context   map[string]any
}

// Func parses a single raw line. The second return value is false when
// the line does not match the format; such lines are counted and
// skipped, never fatal.
type Func func(line string) (Event, bool)

// compact removes nil and empty-string values so records stay lean.
func compact(ctx map[string]any) map[string]any {
	for k, v := range ctx {
		switch t := v.(type) {
		case nil:
			delete(ctx, k)
		case string:
			if t == "" {
				delete(ctx, k)
			}
		}
	}
	return ctx
}
