package event

import (
	"encoding/json"
	"time"
)

// Category classifies event records. It is an open-ended set: the
// constants below are the well-known seed, but any string a caller
// presents becomes a category after it is registered.
type Category string

const (
	CategoryUserActivity      Category = "user_activity"
	CategoryAdmin             Category = "admin"
	CategoryApplication       Category = "application"
	CategoryServerAccess      Category = "server_access"
	CategoryServerError       Category = "server_error"
	CategorySystemAuth        Category = "system_auth"
	CategorySystemSyslog      Category = "system_syslog"
	CategoryDatabase          Category = "database"
	CategoryDatabaseSlowQuery Category = "database_slow_query"
	CategoryFirewall          Category = "firewall"
)

var categoryDescriptions = map[Category]string{
	CategoryUserActivity:      "User actions (login, logout, profile, etc.)",
	CategoryAdmin:             "Admin interface activity",
	CategoryApplication:       "Application lifecycle, errors, business logic events",
	CategoryServerAccess:      "Web server access log entries",
	CategoryServerError:       "Web server error log entries",
	CategorySystemAuth:        "OS-level authentication events (/var/log/auth.log)",
	CategorySystemSyslog:      "OS-level system messages (/var/log/syslog)",
	CategoryDatabase:          "Database operations, errors, statements",
	CategoryDatabaseSlowQuery: "Database slow query logs",
	CategoryFirewall:          "Firewall activity logs (e.g., UFW)",
}

// WellKnownCategories returns the seed categories in a stable order.
func WellKnownCategories() []Category {
	return []Category{
		CategoryUserActivity,
		CategoryAdmin,
		CategoryApplication,
		CategoryServerAccess,
		CategoryServerError,
		CategorySystemAuth,
		CategorySystemSyslog,
		CategoryDatabase,
		CategoryDatabaseSlowQuery,
		CategoryFirewall,
	}
}

// Description returns a human-readable summary for a category.
func (c Category) Description() string {
	if d, ok := categoryDescriptions[c]; ok {
		return d
	}
	return "Custom event category"
}

// Well-known event names. Names are unique within a category by
// convention only; nothing enforces it.
const (
	// user_activity
	EventLogin       = "login"
	EventLogout      = "logout"
	EventLoginFailed = "login_failed"
	EventUserCreated = "user_created"

	// application
	EventAppStart     = "app_start"
	EventAppStop      = "app_stop"
	EventAppException = "app_exception"

	// server_access / server_error
	EventHTTPRequest      = "http_request"
	EventServerErrorEntry = "server_error_entry"

	// system_auth
	EventAuthSuccess      = "auth_success"
	EventAuthFailure      = "auth_failure"
	EventAuthSessionOpen  = "auth_session_open"
	EventAuthSessionClose = "auth_session_close"
	EventSudoCommand      = "sudo_command"

	// system_syslog
	EventSyslogEntry = "syslog_entry"

	// database
	EventDBError     = "db_error"
	EventDBQuery     = "db_query"
	EventDBSlowQuery = "db_slow_query"

	// firewall
	EventFWPacketAllowed = "fw_packet_allowed"
	EventFWPacketDenied  = "fw_packet_denied"
)

// timestampLayout is the wire format for record timestamps: UTC with
// microsecond precision and a literal Z suffix.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

// Timestamp wraps time.Time with the store's wire format.
type Timestamp time.Time

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) IsZero() bool { return time.Time(t).IsZero() }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		// Tolerate plain RFC3339 written by older builds
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

// Actor identifies the user behind an event, when one is known.
type Actor struct {
	Username    string `json:"username"`
	UserID      int64  `json:"user_id,omitempty"`
	IsStaff     bool   `json:"is_staff,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
}

// Record is one immutable structured log entry. Once appended to a
// partition it is never edited in place; only whole partitions are
// removed, by the retention sweeper.
type Record struct {
	ID        string         `json:"id"`
	Timestamp Timestamp      `json:"timestamp"`
	Category  Category       `json:"category"`
	Name      string         `json:"name"`
	Severity  Severity       `json:"severity"`
	Source    string         `json:"source,omitempty"`
	Message   string         `json:"message,omitempty"`
	Actor     *Actor         `json:"actor,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	Target    string         `json:"target,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// PartitionDate returns the UTC calendar date the record belongs to.
func (r Record) PartitionDate() string {
	return time.Time(r.Timestamp).UTC().Format("2006-01-02")
}
