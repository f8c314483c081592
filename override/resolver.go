package override

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// scaffoldTemplate is written verbatim (with the timestamp filled in) when a
// project has no override file yet. Comments survive because the engine
// never rewrites the document.
const scaffoldTemplate = `# Checkup override file.
#
# Each entry excuses one file (optionally specific lines) from one rule.
# Entries require a reason; "pattern" is documentation only.
#
# Example:
#   rules:
#     - file: src/legacy_loader.py
#       rule: error-handling
#       lines: [42, 57]
#       pattern: "except Exception"
#       reason: Vendored code scheduled for removal in Q3.
version: %d
created_at: %s
description: ""
rules: []
`

// Resolver loads override sets, caching one Set per project root.
// Safe for concurrent use: first-time scaffold writes for the same project
// are serialized per root, and a lost O_EXCL race falls back to reading the
// winner's file.
type Resolver struct {
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*Set
}

// NewResolver creates an override resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		cache:  make(map[string]*Set),
	}
}

// FilePath returns the override file location for a project root.
func FilePath(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, FileName)
}

// rootLock returns the mutex guarding one project root.
func (r *Resolver) rootLock(root string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks[root] == nil {
		r.locks[root] = &sync.Mutex{}
	}
	return r.locks[root]
}

// LoadOrCreate returns the project's override set, scaffolding an empty
// document when none exists. A malformed file is a configuration error and
// carries the offending path.
func (r *Resolver) LoadOrCreate(projectRoot string) (*Set, error) {
	projectRoot = filepath.Clean(projectRoot)

	lock := r.rootLock(projectRoot)
	lock.Lock()
	defer lock.Unlock()

	if set, ok := r.cache[projectRoot]; ok {
		return set, nil
	}

	path := FilePath(projectRoot)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := r.scaffold(path); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read override file %s: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("read override file %s: %w", path, err)
	}

	set, err := parseSet(path, data)
	if err != nil {
		return nil, err
	}
	r.cache[projectRoot] = set
	return set, nil
}

// Invalidate drops the cached set for a project root, forcing the next
// LoadOrCreate to re-read the file. Used by watch mode after edits.
func (r *Resolver) Invalidate(projectRoot string) {
	projectRoot = filepath.Clean(projectRoot)
	lock := r.rootLock(projectRoot)
	lock.Lock()
	defer lock.Unlock()
	delete(r.cache, projectRoot)
}

// scaffold writes the empty override document. O_EXCL makes first-time
// creation atomic across processes; losing the race is not an error because
// the caller re-reads whatever won.
func (r *Resolver) scaffold(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create override directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create override file %s: %w", path, err)
	}

	content := fmt.Sprintf(scaffoldTemplate, SchemaVersion, time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write override file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write override file %s: %w", path, err)
	}

	r.logger.Info("Scaffolded override file", slog.String("path", path))
	return nil
}
