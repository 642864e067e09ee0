package parsers

import (
	"regexp"
	"time"

	"github.com/livp123/logvault/internal/event"
)

// syslogRE matches the classic BSD syslog line layout used by both
// /var/log/syslog and /var/log/auth.log.
var syslogRE = regexp.MustCompile(
	`^(?P<month>\w{3})\s+(?P<day>\d{1,2}) (?P<time>\d{2}:\d{2}:\d{2}) (?P<hostname>\S+) (?P<process>[a-zA-Z0-9\/\._-]+)(?:\[(?P<pid>\d+)\])?: (?P<message>.*)$`,
)

// Syslog returns a parser for general syslog files.
func Syslog() Func {
	return func(line string) (Event, bool) {
		return syslogLineAt(line, time.Now())
	}
}

func syslogLineAt(line string, now time.Time) (Event, bool) {
	g, ts, ok := syslogEnvelope(line, now)
	if !ok {
		return Event{}, false
	}

	ctx := map[string]any{
		"hostname":      g["hostname"],
		"process":       g["process"],
		"pid":           g["pid"],
		"original_line": line,
	}

	return Event{
		Category:  event.CategorySystemSyslog,
		Name:      event.EventSyslogEntry,
		Severity:  event.SeverityInfo,
		Timestamp: ts,
		Message:   g["message"],
		Context:   compact(ctx),
	}, true
}

// syslogEnvelope parses the shared prefix and resolves the year-less
// timestamp. Syslog omits the year, so the current year is assumed and
// rolled back by one if that would place the entry in the future —
// covers runs in early January over December lines.
func syslogEnvelope(line string, now time.Time) (map[string]string, time.Time, bool) {
	m := syslogRE.FindStringSubmatch(line)
	if m == nil {
		return nil, time.Time{}, false
	}
	g := groups(syslogRE, m)

	ts := time.Time{}
	stamp := g["month"] + " " + g["day"] + " " + g["time"]
	if t, err := time.ParseInLocation("Jan 2 15:04:05", stamp, time.Local); err == nil {
		t = t.AddDate(now.Year(), 0, 0)
		if t.After(now.Add(24 * time.Hour)) {
			t = t.AddDate(-1, 0, 0)
		}
		ts = t.UTC()
	}
	return g, ts, true
}
