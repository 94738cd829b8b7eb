package daemon

import (
	"os"

	"github.com/standardbeagle/langd/internal/pathutil"
)

// PathResolver is the capability spec.md §9 asks for in place of the
// teacher's process-wide path-prefix registry: every place that turns a
// pathutil.Path into a real filesystem location, or a client-supplied
// absolute string into a pathutil.Path, goes through one of these instead
// of reading a package-level variable. The InitializedState owns the one
// instance a running daemon uses.
type PathResolver struct {
	repoRoot   string
	stdlibRoot string
}

// NewPathResolver creates a resolver rooted at repoRoot, with no stdlib
// root yet — set once stubs are materialized during Initialize step 1.
func NewPathResolver(repoRoot string) *PathResolver {
	return &PathResolver{repoRoot: repoRoot}
}

// SetStdlibRoot records the materialized stdlib stubs directory. Called
// once at Initialize step 1 and again whenever §4.7's resilience check
// re-materializes the stubs under a fresh directory — the resolver is the
// single place that observes the new prefix.
func (r *PathResolver) SetStdlibRoot(dir string) {
	r.stdlibRoot = dir
}

// RepoRoot reports the current repository root.
func (r *PathResolver) RepoRoot() string {
	return r.repoRoot
}

// StdlibRoot reports the current materialized stdlib stubs directory.
func (r *PathResolver) StdlibRoot() string {
	return r.stdlibRoot
}

// Resolve turns p into an absolute on-disk location.
func (r *PathResolver) Resolve(p pathutil.Path) string {
	return pathutil.Resolve(p, r.repoRoot, r.stdlibRoot)
}

// FromAbsolute turns an absolute on-disk path (as a client might send one
// in a request) into a tagged pathutil.Path.
func (r *PathResolver) FromAbsolute(abs string) pathutil.Path {
	return pathutil.FromAbsolute(abs, r.repoRoot, r.stdlibRoot)
}

// ReadFile reads p's current on-disk content through this resolver. Used
// by every query handler and the backlog adapter that needs a path's text
// and has no open entry to read it from instead.
func (r *PathResolver) ReadFile(p pathutil.Path) (string, error) {
	if p.Root == pathutil.RootScratch {
		return "", os.ErrNotExist
	}
	data, err := os.ReadFile(r.Resolve(p))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
