// Package watch turns on-disk filesystem events into the repo-relative
// paths the change backlog processes. It owns no domain state: every
// event it notices goes straight to a caller-supplied callback, same turn,
// after debouncing settles.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/langd/internal/config"
	"github.com/standardbeagle/langd/internal/pathutil"
)

// Watcher monitors root for filesystem changes and, after debouncing,
// reports each affected repo-relative path to OnChange exactly once per
// settled batch.
type Watcher struct {
	root   string
	cfg    config.Watch
	filter *pathFilter
	fsw    *fsnotify.Watcher
	log    *slog.Logger

	onChange func(p pathutil.Path)

	mu      sync.Mutex
	pending map[pathutil.Path]struct{}
	timer   *time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// pathFilter decides whether a path should ever reach the backlog: a
// directory the watcher should descend into, and a file the watcher
// should report changes for.
type pathFilter struct {
	include []string
	exclude []string
}

func newPathFilter(include, exclude []string) *pathFilter {
	return &pathFilter{include: include, exclude: exclude}
}

func (f *pathFilter) excludesDir(rel string) bool {
	for _, pattern := range f.exclude {
		trimmed := strings.TrimSuffix(pattern, "/**")
		if matched, _ := doublestar.Match(trimmed, rel); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func (f *pathFilter) includesFile(rel string) bool {
	if strings.HasSuffix(rel, "_test.go") {
		return true
	}
	if !strings.HasSuffix(rel, ".go") {
		return false
	}
	if len(f.include) == 0 {
		return !f.excludesDir(rel)
	}
	for _, pattern := range f.include {
		if matched, _ := doublestar.Match(pattern, rel); matched {
			return !f.excludesDir(rel)
		}
	}
	return false
}

// New creates a watcher rooted at root. onChange is called once per
// repo-relative path per settled debounce window; it must be safe to call
// from the watcher's internal goroutine.
func New(root string, cfg config.Watch, include, exclude []string, log *slog.Logger, onChange func(p pathutil.Path)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		cfg:      cfg,
		filter:   newPathFilter(include, exclude),
		fsw:      fsw,
		log:      log,
		onChange: onChange,
		pending:  make(map[pathutil.Path]struct{}),
	}, nil
}

// Start adds watches for every non-excluded directory under root and
// begins processing events. A no-op if cfg.Enabled is false.
func (w *Watcher) Start(ctx context.Context) error {
	if !w.cfg.Enabled {
		return nil
	}
	if err := w.addWatches(w.root); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go w.run(runCtx)
	return nil
}

// Stop halts event processing and releases the underlying fsnotify
// watcher. Any debounce window still pending is dropped, same as the
// teacher's watcher does on shutdown — the backlog is being torn down
// anyway, so losing an unsettled batch is acceptable.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		rel, err := filepath.Rel(root, path)
		if err == nil && rel != "." && w.filter.excludesDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}

		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("watch: failed to add directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch: fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	info, statErr := os.Stat(event.Name)
	if statErr == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			rel, err := filepath.Rel(w.root, event.Name)
			if err == nil && !w.filter.excludesDir(filepath.ToSlash(rel)) {
				if err := w.fsw.Add(event.Name); err != nil {
					w.log.Warn("watch: failed to add new directory", "path", event.Name, "error", err)
				}
			}
		}
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if !w.filter.includesFile(rel) {
		return
	}

	w.schedule(pathutil.NewRepoPath(rel))
}

func (w *Watcher) schedule(p pathutil.Path) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[p] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	debounce := time.Duration(w.cfg.DebounceMs) * time.Millisecond
	w.timer = time.AfterFunc(debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[pathutil.Path]struct{})
	w.mu.Unlock()

	for p := range batch {
		w.onChange(p)
	}
}
