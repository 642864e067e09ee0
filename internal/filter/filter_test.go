package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/livp123/logvault/internal/config"
	"github.com/livp123/logvault/internal/event"
	"github.com/livp123/logvault/internal/parsers"
)

func sampleEvent() parsers.Event {
	return parsers.Event{
		Category:  event.CategoryServerAccess,
		Name:      event.EventHTTPRequest,
		Severity:  event.SeverityInfo,
		Message:   "GET /healthz 200",
		IPAddress: "10.0.0.1",
		Context:   map[string]any{"status": 200, "path": "/healthz"},
	}
}

// TestEngine_DropRule tests that a matching drop rule suppresses the event
// TestEngine_DropRule 测试匹配的 drop 规则丢弃事件
func TestEngine_DropRule(t *testing.T) {
	eng, err := New([]config.FilterRule{
		{ID: "drop-healthchecks", Expression: `Ctx("path") == "/healthz"`, Action: "drop"},
	}, zap.NewNop().Sugar())
	assert.NoError(t, err)
	assert.Equal(t, 1, eng.Len())

	ev := sampleEvent()
	assert.False(t, eng.Apply(&ev, "parser.access.access.log"))

	// A non-matching event passes through untouched
	// 不匹配的事件原样通过
	other := sampleEvent()
	other.Context = map[string]any{"path": "/api"}
	assert.True(t, eng.Apply(&other, "parser.access.access.log"))
}

// TestEngine_SeverityOverride tests in-place severity mutation
// TestEngine_SeverityOverride 测试就地修改严重级别
func TestEngine_SeverityOverride(t *testing.T) {
	eng, err := New([]config.FilterRule{
		{ID: "escalate-admin", Expression: `Category == "server_access" && Match("/admin")`, Action: "severity", Severity: "ERROR"},
	}, zap.NewNop().Sugar())
	assert.NoError(t, err)

	ev := sampleEvent()
	ev.Message = "GET /admin/users 200"
	assert.True(t, eng.Apply(&ev, "parser.access.access.log"))
	assert.Equal(t, event.SeverityError, ev.Severity)

	// Message without /admin keeps its severity
	plain := sampleEvent()
	assert.True(t, eng.Apply(&plain, "parser.access.access.log"))
	assert.Equal(t, event.SeverityInfo, plain.Severity)
}

// TestEngine_SourceRule tests rules that match on the ingest source label
// TestEngine_SourceRule 测试按采集来源标签匹配的规则
func TestEngine_SourceRule(t *testing.T) {
	eng, err := New([]config.FilterRule{
		{ID: "drop-staging-auth", Expression: `Source == "parser.auth.auth.log"`, Action: "drop"},
	}, zap.NewNop().Sugar())
	assert.NoError(t, err)

	ev := sampleEvent()
	assert.False(t, eng.Apply(&ev, "parser.auth.auth.log"))

	// The same event from another source passes through
	// 来自其他来源的同一事件正常通过
	other := sampleEvent()
	assert.True(t, eng.Apply(&other, "parser.access.access.log"))
}

// TestEngine_InvalidRules tests that bad rules fail at startup, not at match time
// TestEngine_InvalidRules 测试无效规则在启动时报错
func TestEngine_InvalidRules(t *testing.T) {
	log := zap.NewNop().Sugar()

	_, err := New([]config.FilterRule{{ID: "bad-expr", Expression: "((", Action: "drop"}}, log)
	assert.Error(t, err)

	_, err = New([]config.FilterRule{{ID: "bad-action", Expression: "true", Action: "reject"}}, log)
	assert.Error(t, err)

	_, err = New([]config.FilterRule{{ID: "bad-sev", Expression: "true", Action: "severity", Severity: "LOUD"}}, log)
	assert.Error(t, err)
}

// TestEngine_NilSafe tests that a nil engine passes everything through
func TestEngine_NilSafe(t *testing.T) {
	var eng *Engine
	ev := sampleEvent()
	assert.True(t, eng.Apply(&ev, "parser.access.access.log"))
	assert.Equal(t, 0, eng.Len())
}

// TestEnv_Helpers tests the helper functions available to expressions
// TestEnv_Helpers 测试表达式可用的辅助函数
func TestEnv_Helpers(t *testing.T) {
	env := &Env{Message: "Failed password for root", Context: map[string]any{"port": 22}}
	assert.True(t, env.Has("port"))
	assert.False(t, env.Has("user"))
	assert.Equal(t, 22, env.Ctx("port"))
	assert.Nil(t, env.Ctx("user"))
	assert.True(t, env.Match(`Failed \w+`))
	assert.False(t, env.Match(`[invalid`))
	assert.True(t, env.Log("FAILED PASSWORD"))
	assert.False(t, env.Log("accepted"))
}
