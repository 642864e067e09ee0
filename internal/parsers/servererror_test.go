package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livp123/logvault/internal/event"
)

// TestServerError_Full tests a full nginx error line with context suffixes
// TestServerError_Full 测试带上下文后缀的完整 nginx 错误行
func TestServerError_Full(t *testing.T) {
	line := `2023/10/10 14:02:11 [error] 5123#5123: *99 connect() failed (111: Connection refused) while connecting to upstream, client: 192.0.2.7, server: example.com, request: "GET /api/v1/users HTTP/1.1", upstream: "http://127.0.0.1:8080/api/v1/users", host: "example.com"`

	ev, ok := ServerError()(line)
	assert.True(t, ok)
	assert.Equal(t, event.CategoryServerError, ev.Category)
	assert.Equal(t, event.EventServerErrorEntry, ev.Name)
	assert.Equal(t, event.SeverityError, ev.Severity)
	assert.Equal(t, "192.0.2.7", ev.IPAddress)
	assert.Equal(t, "192.0.2.7", ev.Context["client"])
	assert.Equal(t, "example.com", ev.Context["server"])
	assert.Equal(t, "GET /api/v1/users HTTP/1.1", ev.Context["request"])
	assert.Equal(t, "http://127.0.0.1:8080/api/v1/users", ev.Context["upstream"])
	assert.Equal(t, "5123", ev.Context["pid"])
	assert.Equal(t, "99", ev.Context["connection_id"])
	assert.Contains(t, ev.Message, "connect() failed")
	assert.False(t, ev.Timestamp.IsZero())
}

// TestServerError_Levels tests level-to-severity mapping
// TestServerError_Levels 测试日志级别到严重级别的映射
func TestServerError_Levels(t *testing.T) {
	parse := ServerError()
	cases := []struct {
		level string
		want  event.Severity
	}{
		{"warn", event.SeverityWarning},
		{"error", event.SeverityError},
		{"crit", event.SeverityCritical},
		{"emerg", event.SeverityCritical},
		{"notice", event.SeverityInfo},
	}
	for _, tc := range cases {
		line := `2023/10/10 14:02:11 [` + tc.level + `] 1#1: something happened`
		ev, ok := parse(line)
		assert.True(t, ok, tc.level)
		assert.Equal(t, tc.want, ev.Severity, tc.level)
	}
}

// TestServerError_NoMatch tests that other formats are skipped
func TestServerError_NoMatch(t *testing.T) {
	parse := ServerError()
	for _, line := range []string{"", "Oct 10 13:55:36 host sshd[1]: msg", "random text"} {
		_, ok := parse(line)
		assert.False(t, ok, line)
	}
}
