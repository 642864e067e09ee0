package parsers

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/livp123/logvault/internal/event"
)

// pgCSVFields is the csvlog column order documented for the database
// server's csv log destination.
var pgCSVFields = []string{
	"log_time", "user_name", "database_name", "process_id", "connection_from",
	"session_id", "session_line_num", "command_tag", "session_start_time",
	"virtual_transaction_id", "transaction_id", "error_severity", "sql_state_code",
	"message", "detail", "hint", "internal_query", "internal_query_pos", "context",
	"query", "query_pos", "location", "application_name",
}

// pgStderrRE matches the free-text sub-format:
//
//	2023-10-27 10:00:00.123 UTC [12345] user@db LOG:  message
var pgStderrRE = regexp.MustCompile(
	`^(?P<timestamp>\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\s+\S+)\s+\[(?P<pid>\d+)\]\s+(?:(?P<user>\S+?)@(?P<database>\S+)\s+)?(?P<severity>\w+):\s+(?P<message>.*)$`,
)

var (
	pgDurationRE  = regexp.MustCompile(`duration:\s+(\d+\.\d+)\s+ms`)
	pgStatementRE = regexp.MustCompile(`(?is)(?:statement|execute[^:]*):\s+(.*)`)
)

var pgSeverities = map[string]event.Severity{
	"DEBUG":   event.SeverityDebug,
	"INFO":    event.SeverityInfo,
	"NOTICE":  event.SeverityInfo,
	"LOG":     event.SeverityInfo,
	"WARNING": event.SeverityWarning,
	"ERROR":   event.SeverityError,
	"FATAL":   event.SeverityCritical,
	"PANIC":   event.SeverityCritical,
}

// log_time zone forms. An abbreviation other than UTC cannot be
// resolved to an offset without a zone database, so servers logging in
// a named local zone should set log_timezone to UTC or to a numeric
// offset; abbreviated non-UTC stamps parse with a zero offset.
var pgTimeLayouts = []string{
	"2006-01-02 15:04:05.000 -07:00",
	"2006-01-02 15:04:05.000 -0700",
	"2006-01-02 15:04:05.000 -07",
	"2006-01-02 15:04:05.000 MST",
}

func pgParseTime(s string) time.Time {
	for _, layout := range pgTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Postgres returns a parser for database server logs. format selects
// the sub-format ("csv" or "stderr"); minDurationMS is the slow-query
// threshold — statements at or above it are filed under the
// database_slow_query category.
func Postgres(format string, minDurationMS float64) (Func, error) {
	switch format {
	case "csv":
		return func(line string) (Event, bool) {
			return postgresCSVLine(line, minDurationMS)
		}, nil
	case "stderr":
		return func(line string) (Event, bool) {
			return postgresStderrLine(line, minDurationMS)
		}, nil
	default:
		return nil, fmt.Errorf("unknown postgres log format: %q (want csv or stderr)", format)
	}
}

func postgresCSVLine(line string, minDurationMS float64) (Event, bool) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil || len(record) < 14 {
		return Event{}, false
	}

	fields := make(map[string]string, len(pgCSVFields))
	for i, name := range pgCSVFields {
		if i < len(record) {
			fields[name] = record[i]
		}
	}

	severity, ok := pgSeverities[fields["error_severity"]]
	if !ok {
		return Event{}, false
	}

	ts := pgParseTime(fields["log_time"])

	ctx := map[string]any{
		"user":          fields["user_name"],
		"database":      fields["database_name"],
		"pid":           fields["process_id"],
		"client":        fields["connection_from"],
		"command_tag":   fields["command_tag"],
		"sql_state":     fields["sql_state_code"],
		"detail":        fields["detail"],
		"hint":          fields["hint"],
		"application":   fields["application_name"],
		"db_severity":   fields["error_severity"],
		"original_line": line,
	}
	if q := strings.TrimSpace(fields["query"]); q != "" {
		ctx["query_text"] = q
	}

	return classifyPostgres(fields["message"], severity, ts, ctx, minDurationMS)
}

func postgresStderrLine(line string, minDurationMS float64) (Event, bool) {
	m := pgStderrRE.FindStringSubmatch(line)
	if m == nil {
		return Event{}, false
	}
	g := groups(pgStderrRE, m)

	severity, ok := pgSeverities[g["severity"]]
	if !ok {
		return Event{}, false
	}

	ts := pgParseTime(g["timestamp"])

	ctx := map[string]any{
		"user":          g["user"],
		"database":      g["database"],
		"pid":           g["pid"],
		"db_severity":   g["severity"],
		"original_line": line,
	}

	return classifyPostgres(g["message"], severity, ts, ctx, minDurationMS)
}

// classifyPostgres decides category and event name from the message
// body. Slow statements become database_slow_query events; errors and
// warnings become db_error; plain statements become db_query. Generic
// informational chatter (connections, checkpoints) is skipped.
func classifyPostgres(message string, severity event.Severity, ts time.Time, ctx map[string]any, minDurationMS float64) (Event, bool) {
	message = strings.TrimSpace(message)
	category := event.CategoryDatabase
	name := ""

	if dm := pgDurationRE.FindStringSubmatch(message); dm != nil {
		durationMS, _ := strconv.ParseFloat(dm[1], 64)
		ctx["duration_ms"] = durationMS
		if sm := pgStatementRE.FindStringSubmatch(message); sm != nil {
			ctx["query_text"] = strings.TrimSpace(sm[1])
		}
		if durationMS >= minDurationMS {
			category = event.CategoryDatabaseSlowQuery
			name = event.EventDBSlowQuery
			message = fmt.Sprintf("Slow query: %.3f ms", durationMS)
		} else if _, ok := ctx["query_text"]; ok {
			name = event.EventDBQuery
		}
	} else if severity.Rank() >= event.SeverityWarning.Rank() {
		name = event.EventDBError
	} else if sm := pgStatementRE.FindStringSubmatch(message); sm != nil {
		ctx["query_text"] = strings.TrimSpace(sm[1])
		name = event.EventDBQuery
	}

	if name == "" {
		return Event{}, false
	}

	if len(message) > 1000 {
		message = message[:1000]
	}

	return Event{
		Category:  category,
		Name:      name,
		Severity:  severity,
		Timestamp: ts,
		Message:   message,
		Context:   compact(ctx),
	}, true
}
