package event

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/livp123/logvault/internal/utils/fileutil"
)

const (
	// RegistryFileName is the registry document inside the storage root.
	RegistryFileName = "event_registry.json"

	registryLockName = "event_registry.lock"

	// lockWait bounds how long a writer waits for the cross-process
	// registry lock before giving up and taking the degrade path.
	lockWait      = 5 * time.Second
	lockRetryStep = 25 * time.Millisecond
)

// Registry is the persisted catalog of known categories and event names.
//
// Multiple independent processes append to it concurrently; all
// coordination goes through the filesystem: an advisory lock scoped to
// the registry file is held across each read-merge-replace cycle, so
// two processes registering different names both survive. Names only
// ever accumulate; normal operation never removes one.
type Registry struct {
	path     string
	lockPath string
	log      *zap.SugaredLogger

	mu    sync.Mutex
	known map[Category]map[string]struct{}
}

// NewRegistry creates a registry rooted at dir (the storage root).
func NewRegistry(dir string, log *zap.SugaredLogger) *Registry {
	return &Registry{
		path:     filepath.Join(dir, RegistryFileName),
		lockPath: filepath.Join(dir, registryLockName),
		log:      log,
		known:    seedCategories(),
	}
}

// Path returns the location of the registry document.
func (r *Registry) Path() string { return r.path }

func seedCategories() map[Category]map[string]struct{} {
	known := make(map[Category]map[string]struct{})
	for _, c := range WellKnownCategories() {
		known[c] = make(map[string]struct{})
	}
	return known
}

// Load reads the registry document into memory. A missing document is
// an empty registry seeded with the well-known categories; a corrupt
// one is treated the same way, with a warning.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

func (r *Registry) loadLocked() error {
	doc, err := readRegistryDoc(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		r.log.Warnf("⚠️  Failed to load event registry %s, starting from seed: %v", r.path, err)
		r.known = seedCategories()
		return nil
	}
	mergeDoc(r.known, doc)
	return nil
}

// EnsureRegistered records (category, name) if it is not already known.
// It returns true when the pair was newly added and durably persisted.
func (r *Registry) EnsureRegistered(category Category, name string) (bool, error) {
	if category == "" || name == "" {
		return false, fmt.Errorf("registry: empty category or name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if names, ok := r.known[category]; ok {
		if _, ok := names[name]; ok {
			return false, nil
		}
	}

	// Slow path: take the file lock, re-read, merge, add, replace.
	// Re-reading under the lock picks up names other processes added
	// since our last load, so the written document is always a union.
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return false, fmt.Errorf("registry: create storage root: %w", err)
	}

	lock := flock.New(r.lockPath)
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, lockRetryStep)
	if err != nil || !locked {
		return false, fmt.Errorf("registry: lock %s: %w", r.lockPath, err)
	}
	defer lock.Unlock()

	if doc, err := readRegistryDoc(r.path); err == nil {
		mergeDoc(r.known, doc)
	} else if !os.IsNotExist(err) {
		r.log.Warnf("⚠️  Re-reading event registry failed, keeping in-memory view: %v", err)
	}

	names, ok := r.known[category]
	if !ok {
		names = make(map[string]struct{})
		r.known[category] = names
	}
	if _, ok := names[name]; ok {
		return false, nil
	}
	names[name] = struct{}{}

	if err := r.persistLocked(); err != nil {
		delete(names, name)
		return false, err
	}
	r.log.Infof("Registered new event: category=%s name=%q", category, name)
	return true, nil
}

func (r *Registry) persistLocked() error {
	doc := make(map[string][]string, len(r.known))
	for category, names := range r.known {
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		doc[string(category)] = list
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal: %w", err)
	}
	if err := fileutil.AtomicWriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("registry: write %s: %w", r.path, err)
	}
	return nil
}

// IsRegistered reports whether (category, name) is known in memory.
func (r *Registry) IsRegistered(category Category, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	names, ok := r.known[category]
	if !ok {
		return false
	}
	_, ok = names[name]
	return ok
}

// Snapshot returns the current view as category -> sorted names.
func (r *Registry) Snapshot() map[Category][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Category][]string, len(r.known))
	for category, names := range r.known {
		list := make([]string, 0, len(names))
		for n := range names {
			list = append(list, n)
		}
		sort.Strings(list)
		out[category] = list
	}
	return out
}

// Categories returns all known categories, sorted.
func (r *Registry) Categories() []Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Category, 0, len(r.known))
	for category := range r.known {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func readRegistryDoc(path string) (map[string][]string, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 // path is built from the configured storage root
	if err != nil {
		return nil, err
	}
	var doc map[string][]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func mergeDoc(known map[Category]map[string]struct{}, doc map[string][]string) {
	for categoryStr, list := range doc {
		category := Category(categoryStr)
		names, ok := known[category]
		if !ok {
			names = make(map[string]struct{})
			known[category] = names
		}
		for _, n := range list {
			names[n] = struct{}{}
		}
	}
}
