// Package writer appends structured event records to the date-partitioned
// store. Its one public operation never fails from the caller's point of
// view: anything that goes wrong on the data path is diverted to a
// fallback file so logging can never crash the application doing the
// logging.
package writer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/livp123/logvault/internal/event"
	"github.com/livp123/logvault/internal/metrics"
	"github.com/livp123/logvault/internal/utils/fileutil"
)

// FallbackFileName is the fixed diagnostics file in the storage root.
const FallbackFileName = "failures.log"

// ErrNoStorageRoot is the fatal configuration error: without a storage
// root nothing can be written, so construction refuses to proceed.
var ErrNoStorageRoot = errors.New("storage root is not configured")

// Writer formats event records and appends them to per-day, per-category
// files under the storage root.
type Writer struct {
	root     string
	registry *event.Registry
	log      *zap.SugaredLogger
	now      func() time.Time
}

// New creates a Writer over the given storage root.
func New(root string, registry *event.Registry, log *zap.SugaredLogger) (*Writer, error) {
	if root == "" {
		return nil, ErrNoStorageRoot
	}
	return &Writer{
		root:     root,
		registry: registry,
		log:      log,
		now:      time.Now,
	}, nil
}

// Root returns the storage root directory.
func (w *Writer) Root() string { return w.root }

// Record appends one event record. Missing fields are defaulted: id,
// timestamp (now), severity (INFO). The record lands in the partition
// matching its own timestamp's UTC date, so re-parsed historical lines
// file under their original day.
//
// Record does not return an error. A failure anywhere on the data path
// is written to the fallback file instead, and the caller proceeds.
func (w *Writer) Record(rec event.Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = event.Timestamp(w.now().UTC())
	}
	if rec.Severity == "" {
		rec.Severity = event.SeverityInfo
	}

	if err := w.write(rec); err != nil {
		w.degrade(rec, err)
	}
}

func (w *Writer) write(rec event.Record) error {
	if rec.Category == "" || rec.Name == "" {
		return fmt.Errorf("record missing category or name")
	}

	if _, err := w.registry.EnsureRegistered(rec.Category, rec.Name); err != nil {
		return err
	}

	dir := filepath.Join(w.root, rec.PartitionDate())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create partition %s: %w", dir, err)
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	path := filepath.Join(dir, string(rec.Category)+".log")
	if err := fileutil.AppendLine(path, line); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}

	metrics.EventsWritten.WithLabelValues(string(rec.Category)).Inc()
	return nil
}

// degrade writes a minimal diagnostic record to the fallback file. One
// attempt, no retries; if that also fails the process logger is the
// last resort.
func (w *Writer) degrade(rec event.Record, cause error) {
	metrics.WritesDegraded.Inc()
	w.log.Errorf("❌ Failed to write event %s/%s: %v", rec.Category, rec.Name, cause)

	diag := map[string]any{
		"timestamp": event.Timestamp(w.now().UTC()),
		"severity":  event.SeverityCritical,
		"source":    "writer.degrade",
		"message":   fmt.Sprintf("failed to log event %q (%s)", rec.Name, rec.Category),
		"error":     cause.Error(),
		"original": map[string]any{
			"category": rec.Category,
			"name":     rec.Name,
			"severity": rec.Severity,
			"source":   rec.Source,
			"target":   rec.Target,
		},
	}

	line, err := json.Marshal(diag)
	if err != nil {
		w.log.Errorf("❌ Failed to marshal fallback record: %v", err)
		return
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		w.log.Errorf("❌ Failed to create storage root for fallback: %v", err)
		return
	}
	if err := fileutil.AppendLine(filepath.Join(w.root, FallbackFileName), line); err != nil {
		w.log.Errorf("❌ Failed to write fallback record: %v", err)
	}
}
