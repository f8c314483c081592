// Package watch re-runs compliance checks when files in a project change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/checkup/engine"
	"github.com/c360studio/checkup/override"
	"github.com/c360studio/checkup/registry"
)

// Result is one re-check triggered by a file change.
type Result struct {
	Path   string
	Report *engine.Report
	Err    error
}

// Config configures a Watcher.
type Config struct {
	// Project is the project to watch.
	Project *registry.Project

	// Include are doublestar patterns for files worth re-checking.
	Include []string

	// Ignore lists directory names never descended into or watched.
	Ignore []string

	// DebounceDelay is how long to wait for more changes before
	// re-checking.
	DebounceDelay time.Duration

	Logger *slog.Logger
}

// Watcher re-checks changed files and emits results on a channel.
type Watcher struct {
	config    Config
	engine    *engine.Engine
	overrides *override.Resolver
	watcher   *fsnotify.Watcher
	logger    *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}

	results chan Result
}

// New creates a watcher over one project.
func New(e *engine.Engine, overrides *override.Resolver, config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 250 * time.Millisecond
	}
	if len(config.Include) == 0 {
		config.Include = []string{"**/*.py"}
	}

	return &Watcher{
		config:    config,
		engine:    e,
		overrides: overrides,
		watcher:   fsw,
		logger:    logger,
		pending:   make(map[string]struct{}),
		results:   make(chan Result, 16),
	}, nil
}

// Results returns the channel re-check results are delivered on.
func (w *Watcher) Results() <-chan Result { return w.results }

// Start begins watching. It returns after registering the project's
// directories; the event loop runs until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addDirs(); err != nil {
		return err
	}
	go w.loop(ctx)
	return nil
}

// addDirs registers the project tree, pruning ignored directories. The
// override directory is watched explicitly: it is hidden, but edits to
// the override file must invalidate the cached set.
func (w *Watcher) addDirs() error {
	if err := w.addTree(w.config.Project.Root); err != nil {
		return err
	}
	overrideDir := filepath.Join(w.config.Project.Root, override.Dir)
	if info, err := os.Stat(overrideDir); err == nil && info.IsDir() {
		return w.watcher.Add(overrideDir)
	}
	return nil
}

// addTree watches root and every non-ignored directory under it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignoredDir(d.Name()) && path != root {
			return fs.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) ignoredDir(name string) bool {
	for _, ignored := range w.config.Ignore {
		if name == ignored {
			return true
		}
	}
	return strings.HasPrefix(name, ".")
}

// handleNewDirectory watches a directory created after Start. The
// subtree is walked too: mkdir -p lands as a single Create for the top.
func (w *Watcher) handleNewDirectory(path string) {
	if filepath.Base(path) == override.Dir {
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch override directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return
	}
	if w.ignoredDir(filepath.Base(path)) {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("failed to watch new directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watching new directory", slog.String("path", path))
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.watcher.Close()
	defer close(w.results)

	timer := time.NewTimer(w.config.DebounceDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.eligible(event.Name) {
				// Directories created after Start need their own watch
				// or files inside them change invisibly.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						w.handleNewDirectory(event.Name)
						continue
					}
				}
				// Override edits invalidate the cached set so the next
				// re-check sees them.
				if filepath.Base(event.Name) == override.FileName {
					w.overrides.Invalidate(w.config.Project.Root)
				}
				continue
			}
			w.pendingMu.Lock()
			w.pending[event.Name] = struct{}{}
			w.pendingMu.Unlock()
			timer.Reset(w.config.DebounceDelay)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// flush re-checks every pending file.
func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	for _, path := range paths {
		report, err := w.engine.Check(ctx, path)
		select {
		case w.results <- Result{Path: path, Report: report, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// eligible matches a changed path against the include patterns.
func (w *Watcher) eligible(path string) bool {
	rel, err := filepath.Rel(w.config.Project.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.config.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
