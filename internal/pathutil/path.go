// Package pathutil provides the daemon's Path value: a repository-relative
// path tagged with which root it's relative to, so a shallow-decl cache key
// for a stdlib stub can never collide with one for a repo file of the same
// relative name.
package pathutil

import (
	"path/filepath"
	"strings"
)

// Root names which directory a Path's relative component is resolved
// against.
type Root int

const (
	// RootRepo is the project root passed to Initialize.
	RootRepo Root = iota
	// RootStdlibStubs is the materialized standard-library stubs directory
	// (see internal/stubs), re-created under §4.7's resilience rule.
	RootStdlibStubs
	// RootScratch is an unsaved buffer with no corresponding file on disk.
	RootScratch
)

func (r Root) String() string {
	switch r {
	case RootRepo:
		return "repo"
	case RootStdlibStubs:
		return "stdlib-stubs"
	case RootScratch:
		return "scratch"
	default:
		return "unknown"
	}
}

// Path is a repository-relative path tagged with its root. Equality is
// structural (both fields compare equal), making Path safe to use as a map
// key across the daemon's cache and naming tables.
type Path struct {
	Root Root
	Rel  string
}

// NewRepoPath builds a Path rooted at the repository, normalizing rel to
// slash-separated form.
func NewRepoPath(rel string) Path {
	return Path{Root: RootRepo, Rel: toSlash(rel)}
}

// NewStdlibPath builds a Path rooted at the materialized stdlib stubs
// directory.
func NewStdlibPath(rel string) Path {
	return Path{Root: RootStdlibStubs, Rel: toSlash(rel)}
}

// NewScratchPath builds a Path for an unsaved buffer identified only by a
// client-supplied name (no real file backs it).
func NewScratchPath(name string) Path {
	return Path{Root: RootScratch, Rel: toSlash(name)}
}

func toSlash(p string) string {
	return filepath.ToSlash(filepath.Clean(strings.ReplaceAll(p, `\`, "/")))
}

// String renders Path for logging: "<root>:<rel>".
func (p Path) String() string {
	return p.Root.String() + ":" + p.Rel
}

// Join appends further relative path segments to p, keeping p's Root.
func (p Path) Join(elem ...string) Path {
	segments := append([]string{p.Rel}, elem...)
	return Path{Root: p.Root, Rel: toSlash(filepath.Join(segments...))}
}

// Resolve returns the absolute on-disk path for p given the root
// directories currently in effect. RootScratch has no on-disk location and
// Resolve returns p.Rel unchanged.
func Resolve(p Path, repoRoot, stdlibRoot string) string {
	switch p.Root {
	case RootStdlibStubs:
		return filepath.Join(stdlibRoot, p.Rel)
	case RootScratch:
		return p.Rel
	default:
		return filepath.Join(repoRoot, p.Rel)
	}
}

// FromAbsolute converts an absolute on-disk path into a repo- or
// stdlib-rooted Path, given the current root directories. Falls back to a
// RootScratch Path carrying the original absolute path if abs is outside
// both roots.
func FromAbsolute(abs, repoRoot, stdlibRoot string) Path {
	if rel, ok := relIfUnder(abs, stdlibRoot); ok {
		return NewStdlibPath(rel)
	}
	if rel, ok := relIfUnder(abs, repoRoot); ok {
		return NewRepoPath(rel)
	}
	return NewScratchPath(abs)
}

func relIfUnder(abs, root string) (string, bool) {
	if root == "" {
		return "", false
	}
	abs = filepath.Clean(abs)
	root = filepath.Clean(root)

	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
