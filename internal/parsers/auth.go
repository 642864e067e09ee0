package parsers

import (
	"regexp"
	"time"

	"github.com/livp123/logvault/internal/event"
)

// Message classifiers for the auth log. Only lines that hit one of
// these become events; the rest of the auth log is noise this system
// does not track.
var (
	reSessionOpen  = regexp.MustCompile(`session opened for user (?P<user>\S+)(?: by \(uid=(?P<uid>\d+)\))?`)
	reSessionClose = regexp.MustCompile(`session closed for user (?P<user>\S+)`)
	reAcceptedPwd  = regexp.MustCompile(`Accepted (?P<method>password|publickey) for (?P<user>\S+) from (?P<ip>\S+) port (?P<port>\d+)`)
	reFailedPwd    = regexp.MustCompile(`Failed password for(?: invalid user)? (?P<user>\S+) from (?P<ip>\S+) port (?P<port>\d+)`)
	reInvalidUser  = regexp.MustCompile(`Invalid user (?P<user>\S+) from (?P<ip>\S+)`)
	reAuthFailure  = regexp.MustCompile(`authentication failure;.* user=(?P<user>\S*)(?:.* rhost=(?P<ip>\S+))?`)
	reSudo         = regexp.MustCompile(`^\s*(?P<user>\S+) : TTY=(?P<tty>\S+) ; PWD=(?P<pwd>\S+) ; USER=(?P<runas>\S+) ; COMMAND=(?P<cmd>.*)`)
)

// Auth returns a parser for OS authentication logs (auth.log/secure).
func Auth() Func {
	return func(line string) (Event, bool) {
		return authLineAt(line, time.Now())
	}
}

func authLineAt(line string, now time.Time) (Event, bool) {
	g, ts, ok := syslogEnvelope(line, now)
	if !ok {
		return Event{}, false
	}
	message := g["message"]

	name := ""
	severity := event.SeverityInfo
	details := map[string]string{}

	classify := func(re *regexp.Regexp) bool {
		m := re.FindStringSubmatch(message)
		if m == nil {
			return false
		}
		for k, v := range groups(re, m) {
			details[k] = v
		}
		return true
	}

	switch {
	case classify(reAcceptedPwd):
		name = event.EventAuthSuccess
		details["outcome"] = "success"
	case classify(reFailedPwd):
		name = event.EventAuthFailure
		severity = event.SeverityWarning
		details["outcome"] = "failed"
		details["reason"] = "Failed password"
	case classify(reInvalidUser):
		name = event.EventAuthFailure
		severity = event.SeverityWarning
		details["outcome"] = "failed"
		details["reason"] = "Invalid user"
	case classify(reAuthFailure):
		name = event.EventAuthFailure
		severity = event.SeverityWarning
		details["outcome"] = "failed"
		details["reason"] = "Authentication failure"
	case classify(reSessionOpen):
		name = event.EventAuthSessionOpen
	case classify(reSessionClose):
		name = event.EventAuthSessionClose
	case g["process"] == "sudo" && classify(reSudo):
		name = event.EventSudoCommand
		severity = event.SeverityWarning
	default:
		// Envelope matched but the message is not an auth event we
		// track; skip without structuring.
		return Event{}, false
	}

	ctx := map[string]any{
		"hostname":      g["hostname"],
		"process":       g["process"],
		"pid":           g["pid"],
		"user":          details["user"],
		"uid":           details["uid"],
		"ip":            details["ip"],
		"port":          details["port"],
		"method":        details["method"],
		"outcome":       details["outcome"],
		"reason":        details["reason"],
		"tty":           details["tty"],
		"pwd":           details["pwd"],
		"runas_user":    details["runas"],
		"command":       details["cmd"],
		"original_line": line,
	}

	return Event{
		Category:  event.CategorySystemAuth,
		Name:      name,
		Severity:  severity,
		Timestamp: ts,
		Message:   message,
		IPAddress: details["ip"],
		Context:   compact(ctx),
	}, true
}
