package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestSeverity_Ordering tests the severity scale ordering
// TestSeverity_Ordering 测试严重级别的顺序
func TestSeverity_Ordering(t *testing.T) {
	assert.Less(t, SeverityDebug.Rank(), SeverityInfo.Rank())
	assert.Less(t, SeverityInfo.Rank(), SeverityWarning.Rank())
	assert.Less(t, SeverityWarning.Rank(), SeverityError.Rank())
	assert.Less(t, SeverityError.Rank(), SeverityCritical.Rank())

	// Unknown severities rank as INFO
	// 未知级别按 INFO 排序
	assert.Equal(t, SeverityInfo.Rank(), Severity("BOGUS").Rank())
}

// TestParseSeverity tests case-insensitive severity parsing
// TestParseSeverity 测试大小写不敏感的级别解析
func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("warning")
	assert.NoError(t, err)
	assert.Equal(t, SeverityWarning, sev)

	sev, err = ParseSeverity(" ERROR ")
	assert.NoError(t, err)
	assert.Equal(t, SeverityError, sev)

	_, err = ParseSeverity("loud")
	assert.Error(t, err)
}

// TestRecord_WireFormat tests the one-line JSON wire format
// TestRecord_WireFormat 测试单行 JSON 存储格式
func TestRecord_WireFormat(t *testing.T) {
	ts := time.Date(2023, 10, 10, 13, 55, 36, 123456000, time.UTC)
	rec := Record{
		ID:        "abc",
		Timestamp: Timestamp(ts),
		Category:  CategoryServerAccess,
		Name:      EventHTTPRequest,
		Severity:  SeverityWarning,
		Source:    "parser.access.access.log",
		Message:   "GET /x 404",
		IPAddress: "192.0.2.5",
		Context:   map[string]any{"status": 404},
	}

	data, err := json.Marshal(rec)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "\n")
	assert.Contains(t, string(data), `"timestamp":"2023-10-10T13:55:36.123456Z"`)
	assert.Contains(t, string(data), `"category":"server_access"`)

	// Optional fields are omitted when empty
	// 可选字段为空时省略
	minimal, err := json.Marshal(Record{ID: "x", Category: CategoryApplication, Name: "e", Severity: SeverityInfo})
	assert.NoError(t, err)
	assert.NotContains(t, string(minimal), "actor")
	assert.NotContains(t, string(minimal), "target")
	assert.NotContains(t, string(minimal), "ip_address")

	var back Record
	assert.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ts, back.Timestamp.Time())
}

// TestRecord_PartitionDate tests that the partition follows the record's own timestamp
// TestRecord_PartitionDate 测试分区取决于记录自身的时间戳
func TestRecord_PartitionDate(t *testing.T) {
	// 23:30 in UTC-5 is the next day in UTC
	// UTC-5 的 23:30 在 UTC 已是第二天
	loc := time.FixedZone("X", -5*3600)
	rec := Record{Timestamp: Timestamp(time.Date(2023, 12, 31, 23, 30, 0, 0, loc))}
	assert.Equal(t, "2024-01-01", rec.PartitionDate())
}

// TestCategory_Description tests descriptions for seed and custom categories
func TestCategory_Description(t *testing.T) {
	assert.NotEmpty(t, CategoryFirewall.Description())
	assert.Equal(t, "Custom event category", Category("my_app").Description())
	assert.Len(t, WellKnownCategories(), 10)
}
