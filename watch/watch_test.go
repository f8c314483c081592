package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/checkup/checker"
	"github.com/c360studio/checkup/engine"
	"github.com/c360studio/checkup/override"
	"github.com/c360studio/checkup/registry"
)

type passStub struct{}

func (passStub) ID() string { return "always-pass" }

func (passStub) Describe() string { return "always passes" }

func (passStub) Evaluate(*checker.Target, checker.Excuser) checker.Outcome {
	return checker.Outcome{
		RuleID: "always-pass",
		Items:  []checker.Item{{Name: "ok", Passed: true}},
	}
}

func newTestWatcher(t *testing.T) (string, *Watcher, *override.Resolver) {
	t.Helper()

	// EvalSymlinks keeps fsnotify event paths comparable to the root on
	// platforms where the temp dir is a symlink.
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	reg := registry.New(&registry.Project{ID: "demo", Root: root})
	resolver := override.NewResolver(nil)
	eng := engine.New(reg, resolver, []checker.Checker{passStub{}})

	w, err := New(eng, resolver, Config{
		Project:       &registry.Project{ID: "demo", Root: root},
		Ignore:        []string{"node_modules"},
		DebounceDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	return root, w, resolver
}

func waitResult(t *testing.T, w *Watcher, timeout time.Duration) Result {
	t.Helper()
	select {
	case r, ok := <-w.Results():
		require.True(t, ok, "results channel closed early")
		return r
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a re-check result")
		return Result{}
	}
}

func TestWatchReChecksChangedFile(t *testing.T) {
	root, w, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(root, "api.py")
	require.NoError(t, os.WriteFile(path, []byte("print('hi')\n"), 0644))

	r := waitResult(t, w, 5*time.Second)
	require.NoError(t, r.Err)
	require.NotNil(t, r.Report)
	assert.Equal(t, path, r.Path)
	assert.Equal(t, "api.py", r.Report.File)
}

func TestWatchDebounceCoalescesBursts(t *testing.T) {
	root, w, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	path := filepath.Join(root, "api.py")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("print('hi')\n"), 0644))
		time.Sleep(5 * time.Millisecond)
	}

	r := waitResult(t, w, 5*time.Second)
	assert.Equal(t, path, r.Path)

	// The burst lands as one flush, not one result per write.
	select {
	case r := <-w.Results():
		t.Fatalf("unexpected extra result for %s", r.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchIgnoresNonMatchingFiles(t *testing.T) {
	root, w, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0644))

	select {
	case r := <-w.Results():
		t.Fatalf("unexpected result for %s", r.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchCoversDirectoriesCreatedAfterStart(t *testing.T) {
	root, w, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the event loop a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("print('hi')\n"), 0644))

	r := waitResult(t, w, 5*time.Second)
	require.NoError(t, r.Err)
	assert.Equal(t, path, r.Path)
	assert.True(t, strings.HasSuffix(r.Report.File, "mod.py"))
}

func TestWatchIgnoredDirectoriesStayUnwatched(t *testing.T) {
	root, w, _ := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	sub := filepath.Join(root, "node_modules")
	require.NoError(t, os.Mkdir(sub, 0755))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "dep.py"), []byte("x\n"), 0644))

	select {
	case r := <-w.Results():
		t.Fatalf("unexpected result for %s", r.Path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatchOverrideEditInvalidatesCachedSet(t *testing.T) {
	root, w, resolver := newTestWatcher(t)

	// Prime the cache: scaffold the override file and hold the empty set.
	set, err := resolver.LoadOrCreate(root)
	require.NoError(t, err)
	require.Empty(t, set.Rules)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	doc := `version: 1
created_at: 2026-08-30T00:00:00Z
rules:
  - file: api.py
    rule: always-pass
    reason: legacy module pending rewrite
`
	require.NoError(t, os.WriteFile(
		filepath.Join(root, override.Dir, override.FileName), []byte(doc), 0644))

	deadline := time.Now().Add(5 * time.Second)
	for {
		set, err = resolver.LoadOrCreate(root)
		require.NoError(t, err)
		if len(set.Rules) == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cached override set was never invalidated")
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, "always-pass", set.Rules[0].RuleID)
}
