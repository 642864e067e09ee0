package parsers

import (
	"regexp"
	"strconv"
	"time"

	"github.com/livp123/logvault/internal/event"
)

// combinedLogRE matches the standard "combined" web server access log
// format (nginx/apache default).
var combinedLogRE = regexp.MustCompile(
	`^(?P<ip>\S+) \S+ (?P<user>\S+) \[(?P<datetime>[^\]]+)\] "(?P<method>\S+) (?P<path>\S+) (?P<protocol>HTTP/\d(?:\.\d)?)" (?P<status>\d{3}) (?P<bytes>\d+)(?: "(?P<referer>[^"]*)" "(?P<user_agent>[^"]*)")?.*$`,
)

const accessTimeLayout = "02/Jan/2006:15:04:05 -0700"

// Access returns a parser for combined-format access logs. Responses
// with 4xx status map to WARNING and 5xx to ERROR, so an operator
// scanning the store by severity sees client abuse and server faults
// without knowing HTTP.
func Access() Func {
	return accessLine
}

func accessLine(line string) (Event, bool) {
	m := combinedLogRE.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	g := groups(combinedLogRE, m)

	status, err := strconv.Atoi(g["status"])
	if err != nil {
		return Event{}, false
	}

	severity := event.SeverityInfo
	switch {
	case status >= 500:
		severity = event.SeverityError
	case status >= 400:
		severity = event.SeverityWarning
	}

	ts := time.Time{}
	if t, err := time.Parse(accessTimeLayout, g["datetime"]); err == nil {
		ts = t.UTC()
	}

	bytesSent, _ := strconv.Atoi(g["bytes"])

	ctx := map[string]any{
		"ip":            g["ip"],
		"method":        g["method"],
		"path":          g["path"],
		"protocol":      g["protocol"],
		"status":        status,
		"bytes":         bytesSent,
		"referer":       g["referer"],
		"user_agent":    g["user_agent"],
		"original_line": line,
	}
	if g["user"] != "-" {
		ctx["remote_user"] = g["user"]
	}

	return Event{
		Category:  event.CategoryServerAccess,
		Name:      event.EventHTTPRequest,
		Severity:  severity,
		Timestamp: ts,
		Message:   g["method"] + " " + g["path"] + " " + g["status"],
		IPAddress: g["ip"],
		Context:   compact(ctx),
	}, true
}

// groups maps named capture groups to their submatch values.
func groups(re *regexp.Regexp, m []string) map[string]string {
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(m) {
			out[name] = m[i]
		}
	}
	return out
}
