// Package retention deletes date partitions older than an operator
// supplied age. It never touches the event registry, parser cursors,
// or the fallback file, and a failure on one partition does not stop
// the sweep of the rest.
package retention

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/livp123/logvault/internal/metrics"
)

const partitionDateLayout = "2006-01-02"

// Result reports the outcome for one partition.
type Result struct {
	Partition string
	Date      time.Time
	SizeBytes int64
	Deleted   bool
	Err       error
}

// Sweep enumerates date partitions under root and removes (or, in dry
// run, lists) those whose date is strictly before now minus
// olderThanDays. Non-date entries are skipped with a debug note.
func Sweep(root string, olderThanDays int, dryRun bool, log *zap.SugaredLogger) ([]Result, error) {
	if olderThanDays < 1 {
		return nil, fmt.Errorf("retention: days must be at least 1, got %d", olderThanDays)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("⚠️  Storage root %s does not exist, nothing to sweep", root)
			return nil, nil
		}
		return nil, fmt.Errorf("retention: read %s: %w", root, err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	var results []Result

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		date, err := time.Parse(partitionDateLayout, entry.Name())
		if err != nil {
			// Not a partition (parser_state, stray dirs); leave it alone.
			log.Debugf("Skipping non-partition directory: %s", entry.Name())
			continue
		}
		if !date.Before(cutoff.Truncate(24 * time.Hour)) {
			continue
		}

		path := filepath.Join(root, entry.Name())
		res := Result{Partition: entry.Name(), Date: date}
		res.SizeBytes = dirSize(path)

		if dryRun {
			results = append(results, res)
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			res.Err = err
			log.Errorf("❌ Failed to delete partition %s: %v", path, err)
		} else {
			res.Deleted = true
			metrics.PartitionsSwept.Inc()
			log.Infof("Deleted partition %s (%s)", entry.Name(), FormatSize(res.SizeBytes))
		}
		results = append(results, res)
	}
	return results, nil
}

func dirSize(path string) int64 {
	var total int64
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // size is best-effort reporting
		}
		if info, err := d.Info(); err == nil && !d.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// FormatSize renders a byte count for humans.
func FormatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d bytes", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	case n < 1024*1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	default:
		return fmt.Sprintf("%.2f GB", float64(n)/(1024*1024*1024))
	}
}
