package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/langd/internal/config"
	"github.com/standardbeagle/langd/internal/pathutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestPathFilter_IncludesGoFilesByDefault(t *testing.T) {
	f := newPathFilter(nil, nil)
	assert.True(t, f.includesFile("main.go"))
	assert.False(t, f.includesFile("README.md"))
}

func TestPathFilter_ExcludePatternWins(t *testing.T) {
	f := newPathFilter(nil, []string{"vendor/**"})
	assert.True(t, f.excludesDir("vendor"))
	assert.False(t, f.includesFile("vendor/pkg/a.go"))
}

func TestPathFilter_IncludePatternRestrictsToMatches(t *testing.T) {
	f := newPathFilter([]string{"internal/**"}, nil)
	assert.True(t, f.includesFile("internal/foo/a.go"))
	assert.False(t, f.includesFile("cmd/main.go"))
}

func TestWatcher_DebouncesAndReportsRepoRelativePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	changes := make(chan pathutil.Path, 8)
	w, err := New(dir, config.Watch{Enabled: true, DebounceMs: 30}, nil, nil, discardLogger(), func(p pathutil.Path) {
		changes <- p
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	target := filepath.Join(dir, "sub", "a.go")
	require.NoError(t, os.WriteFile(target, []byte("package sub\n"), 0o644))

	select {
	case p := <-changes:
		assert.Equal(t, pathutil.NewRepoPath("sub/a.go"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher to report a change")
	}
}

func TestWatcher_DisabledIsNoOp(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, config.Watch{Enabled: false}, nil, nil, discardLogger(), func(pathutil.Path) {
		t.Fatal("onChange should never be called when disabled")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Stop())
}

func TestWatcher_IgnoresNonGoFiles(t *testing.T) {
	dir := t.TempDir()

	changes := make(chan pathutil.Path, 8)
	w, err := New(dir, config.Watch{Enabled: true, DebounceMs: 30}, nil, nil, discardLogger(), func(p pathutil.Path) {
		changes <- p
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hi"), 0o644))

	select {
	case p := <-changes:
		t.Fatalf("unexpected change reported for non-go file: %v", p)
	case <-time.After(200 * time.Millisecond):
	}
}
