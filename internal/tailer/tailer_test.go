package tailer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func appendTo(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	assert.NoError(t, err)
	_, err = f.WriteString(data)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
}

// TestNextBatch_Incremental tests that successive runs only see new lines
// TestNextBatch_Incremental 测试连续运行只读取新增行
func TestNextBatch_Incremental(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, "one\ntwo\n")

	batch, err := NextBatch(path, Cursor{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, batch.Lines)
	assert.False(t, batch.Rotated)
	assert.Equal(t, int64(8), batch.Cursor.Offset)

	// Nothing new: empty batch, offset unchanged
	// 无新增内容:批次为空,偏移不变
	again, err := NextBatch(path, batch.Cursor)
	assert.NoError(t, err)
	assert.Empty(t, again.Lines)
	assert.Equal(t, batch.Cursor.Offset, again.Cursor.Offset)

	appendTo(t, path, "three\n")
	batch, err = NextBatch(path, again.Cursor)
	assert.NoError(t, err)
	assert.Equal(t, []string{"three"}, batch.Lines)
}

// TestNextBatch_PartialLine tests that an unterminated line is left for a later run
// TestNextBatch_PartialLine 测试未换行的残行留待下次读取
func TestNextBatch_PartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, "complete\npart")

	batch, err := NextBatch(path, Cursor{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"complete"}, batch.Lines)
	assert.Equal(t, int64(len("complete\n")), batch.Cursor.Offset)

	// Only a partial line pending: batch stays empty until the newline lands
	pending, err := NextBatch(path, batch.Cursor)
	assert.NoError(t, err)
	assert.Empty(t, pending.Lines)

	appendTo(t, path, "ial\n")
	batch, err = NextBatch(path, pending.Cursor)
	assert.NoError(t, err)
	assert.Equal(t, []string{"partial"}, batch.Lines)
}

// TestNextBatch_Rotation tests the rename-and-recreate rotation scenario
// TestNextBatch_Rotation 测试重命名再创建的轮转场景
func TestNextBatch_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	appendTo(t, path, "old-1\nold-2\nold-3\n")

	batch, err := NextBatch(path, Cursor{})
	assert.NoError(t, err)
	assert.Len(t, batch.Lines, 3)

	// Rotate: the file is moved aside and a fresh one takes its place
	assert.NoError(t, os.Rename(path, filepath.Join(dir, "app.log.1")))
	appendTo(t, path, "new-1\nnew-2\n")

	after, err := NextBatch(path, batch.Cursor)
	assert.NoError(t, err)
	assert.True(t, after.Rotated)
	assert.Equal(t, []string{"new-1", "new-2"}, after.Lines)
	assert.Equal(t, int64(12), after.Cursor.Offset)
}

// TestNextBatch_Truncation tests in-place truncation with the same inode
// TestNextBatch_Truncation 测试同一 inode 的就地截断
func TestNextBatch_Truncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, "a long line that will disappear\n")

	batch, err := NextBatch(path, Cursor{})
	assert.NoError(t, err)
	assert.Len(t, batch.Lines, 1)

	assert.NoError(t, os.Truncate(path, 0))
	appendTo(t, path, "fresh\n")

	after, err := NextBatch(path, batch.Cursor)
	assert.NoError(t, err)
	assert.True(t, after.Rotated)
	assert.Equal(t, []string{"fresh"}, after.Lines)
}

// TestNextBatch_MissingFile tests that an absent source is not an error
func TestNextBatch_MissingFile(t *testing.T) {
	cur := Cursor{Offset: 42}
	batch, err := NextBatch(filepath.Join(t.TempDir(), "gone.log"), cur)
	assert.NoError(t, err)
	assert.Empty(t, batch.Lines)
	assert.Equal(t, cur.Offset, batch.Cursor.Offset)
}

// TestNextBatch_CRLF tests that carriage returns are stripped from lines
func TestNextBatch_CRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	appendTo(t, path, "windows\r\nunix\n")

	batch, err := NextBatch(path, Cursor{})
	assert.NoError(t, err)
	assert.Equal(t, []string{"windows", "unix"}, batch.Lines)
}

// TestStateStore_Roundtrip tests cursor persistence and recovery
// TestStateStore_Roundtrip 测试游标的持久化与恢复
func TestStateStore_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStateStore(filepath.Join(dir, "state"), zap.NewNop().Sugar())
	assert.NoError(t, err)

	source := filepath.Join(dir, "app.log")
	appendTo(t, source, "line\n")

	// First-ever load: zero offset bound to the current file identity
	// 首次加载:偏移为零并绑定当前文件标识
	cur := store.LoadCursor("access", source)
	assert.Equal(t, int64(0), cur.Offset)
	assert.NotZero(t, cur.Inode)

	batch, err := NextBatch(source, cur)
	assert.NoError(t, err)
	assert.NoError(t, store.SaveCursor("access", source, batch.Cursor))

	loaded := store.LoadCursor("access", source)
	assert.Equal(t, batch.Cursor.Offset, loaded.Offset)
	assert.Equal(t, batch.Cursor.Inode, loaded.Inode)

	// Different parsers track the same source independently
	other := store.LoadCursor("error", source)
	assert.Equal(t, int64(0), other.Offset)
}

// TestStateStore_CorruptState tests that a mangled state file restarts from zero
// TestStateStore_CorruptState 测试状态文件损坏时从头开始
func TestStateStore_CorruptState(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStateStore(filepath.Join(dir, "state"), zap.NewNop().Sugar())
	assert.NoError(t, err)

	source := filepath.Join(dir, "app.log")
	appendTo(t, source, "line\n")
	assert.NoError(t, os.WriteFile(store.StatePath("access", source), []byte("garbage"), 0644))

	cur := store.LoadCursor("access", source)
	assert.Equal(t, int64(0), cur.Offset)
}

// TestStateStore_StatePathStable tests the hashed flat naming of state files
func TestStateStore_StatePathStable(t *testing.T) {
	store, err := NewStateStore(t.TempDir(), zap.NewNop().Sugar())
	assert.NoError(t, err)

	a := store.StatePath("access", "/var/log/nginx/access.log")
	b := store.StatePath("access", "/var/log/nginx/access.log")
	c := store.StatePath("access", "/srv/other/access.log")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotContains(t, filepath.Base(a), "/")
}
