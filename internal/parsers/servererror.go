package parsers

import (
	"regexp"
	"time"

	"github.com/livp123/logvault/internal/event"
)

// serverErrorRE matches the nginx error log line layout, including the
// optional comma-separated context suffixes nginx appends.
var serverErrorRE = regexp.MustCompile(
	`^(?P<datetime>\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}) \[(?P<level>\w+)\] (?P<pid>\d+)#(?P<tid>\d+): (?:\*(?P<cid>\d+) )?(?P<message>.*?)(?:, client: (?P<client>[^,]+))?(?:, server: (?P<server>[^,]+))?(?:, request: "(?P<request>[^"]*)")?(?:, upstream: "(?P<upstream>[^"]*)")?(?:, host: "(?P<host>[^"]*)")?$`,
)

const serverErrorTimeLayout = "2006/01/02 15:04:05"

var serverErrorLevels = map[string]event.Severity{
	"debug":  event.SeverityDebug,
	"info":   event.SeverityInfo,
	"notice": event.SeverityInfo,
	"warn":   event.SeverityWarning,
	"error":  event.SeverityError,
	"crit":   event.SeverityCritical,
	"alert":  event.SeverityCritical,
	"emerg":  event.SeverityCritical,
}

// ServerError returns a parser for web server error logs.
func ServerError() Func {
	return serverErrorLine
}

func serverErrorLine(line string) (Event, bool) {
	m := serverErrorRE.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	g := groups(serverErrorRE, m)

	severity, ok := serverErrorLevels[g["level"]]
	if !ok {
		severity = event.SeverityError
	}

	// Error log timestamps carry no zone; they are server-local time.
	ts := time.Time{}
	if t, err := time.ParseInLocation(serverErrorTimeLayout, g["datetime"], time.Local); err == nil {
		ts = t.UTC()
	}

	ctx := map[string]any{
		"level":         g["level"],
		"pid":           g["pid"],
		"tid":           g["tid"],
		"connection_id": g["cid"],
		"client":        g["client"],
		"server":        g["server"],
		"request":       g["request"],
		"upstream":      g["upstream"],
		"host":          g["host"],
		"original_line": line,
	}

	return Event{
		Category:  event.CategoryServerError,
		Name:      event.EventServerErrorEntry,
		Severity:  severity,
		Timestamp: ts,
		Message:   g["message"],
		IPAddress: g["client"],
		Context:   compact(ctx),
	}, true
}
