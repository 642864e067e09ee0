package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func makePartition(t *testing.T, root, name string) {
	t.Helper()
	dir := filepath.Join(root, name)
	assert.NoError(t, os.MkdirAll(dir, 0755))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "application.log"), []byte(`{"id":"x"}`+"\n"), 0644))
}

func testStore(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	old := time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")
	recent := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	makePartition(t, root, old)
	makePartition(t, root, recent)

	// Non-partition content that a sweep must never touch
	// 清理绝不能触碰的非分区内容
	assert.NoError(t, os.WriteFile(filepath.Join(root, "event_registry.json"), []byte("{}"), 0644))
	assert.NoError(t, os.WriteFile(filepath.Join(root, "failures.log"), []byte("{}\n"), 0644))
	assert.NoError(t, os.MkdirAll(filepath.Join(root, "parser_state"), 0755))
	return root
}

// TestSweep_DryRun tests that a dry run lists old partitions without deleting
// TestSweep_DryRun 测试 dry run 仅列出而不删除旧分区
func TestSweep_DryRun(t *testing.T) {
	root := testStore(t)
	old := time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")

	results, err := Sweep(root, 7, true, zap.NewNop().Sugar())
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, old, results[0].Partition)
	assert.False(t, results[0].Deleted)
	assert.Greater(t, results[0].SizeBytes, int64(0))

	_, err = os.Stat(filepath.Join(root, old))
	assert.NoError(t, err)
}

// TestSweep_DeletesOldOnly tests deletion of expired partitions only
// TestSweep_DeletesOldOnly 测试仅删除过期分区
func TestSweep_DeletesOldOnly(t *testing.T) {
	root := testStore(t)
	old := time.Now().UTC().AddDate(0, 0, -10).Format("2006-01-02")
	recent := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	results, err := Sweep(root, 7, false, zap.NewNop().Sugar())
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.True(t, results[0].Deleted)

	_, err = os.Stat(filepath.Join(root, old))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, recent))
	assert.NoError(t, err)

	// Registry, fallback file, and cursors survive the sweep
	// 注册表、降级文件与游标目录在清理后保留
	for _, keep := range []string{"event_registry.json", "failures.log", "parser_state"} {
		_, err = os.Stat(filepath.Join(root, keep))
		assert.NoError(t, err, keep)
	}
}

// TestSweep_InvalidDays tests rejection of non-positive retention windows
func TestSweep_InvalidDays(t *testing.T) {
	_, err := Sweep(t.TempDir(), 0, false, zap.NewNop().Sugar())
	assert.Error(t, err)
}

// TestSweep_MissingRoot tests that a missing store is not an error
func TestSweep_MissingRoot(t *testing.T) {
	results, err := Sweep(filepath.Join(t.TempDir(), "nope"), 7, false, zap.NewNop().Sugar())
	assert.NoError(t, err)
	assert.Nil(t, results)
}

// TestFormatSize tests human-readable size rendering
func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 bytes", FormatSize(512))
	assert.Equal(t, "2.00 KB", FormatSize(2048))
	assert.Equal(t, "1.50 MB", FormatSize(1572864))
	assert.Equal(t, "1.00 GB", FormatSize(1073741824))
}
