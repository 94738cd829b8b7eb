// Package invalidation implements the two triggers and one discipline that
// keep the daemon's cache layers coherent: entries mutating (Trigger A) and
// files changing on disk (Trigger B). Every cache mutation in the daemon
// flows through this package — nothing else invalidates a shared cache
// layer directly.
package invalidation

import (
	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/entrytable"
	"github.com/standardbeagle/langd/internal/ids"
	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
)

// SymbolIndexUpdater receives the symbol-name delta Trigger B computes, so
// the external ranking env (internal/symbolindex) stays in sync with the
// RNT without the engine depending on its concrete type.
type SymbolIndexUpdater interface {
	ApplySymbolDelta(removed, added []string)
}

// Engine applies the invalidation rules of the daemon's cache-coherence
// model on every entry mutation and disk change. It holds no state of its
// own beyond references to the tables and caches it mutates — those tables
// are the InitializedState's, not the Engine's.
type Engine struct {
	fnt     *naming.FNT
	rnt     *naming.RNT
	cache   *cachectx.Context
	entries *entrytable.EntryTable
	index   SymbolIndexUpdater
}

// NewEngine builds an invalidation engine over the given tables and cache
// context. index may be nil if the symbol-index env isn't wired yet.
func NewEngine(fnt *naming.FNT, rnt *naming.RNT, cache *cachectx.Context, entries *entrytable.EntryTable, index SymbolIndexUpdater) *Engine {
	return &Engine{fnt: fnt, rnt: rnt, cache: cache, entries: entries, index: index}
}

// EntryMutated is Trigger A: an entry at path was opened with new
// contents, edited, or closed. The entry's own AST has already been
// cleared by entrytable.Entry itself when its contents changed — this
// touches the shared caches, plus every open entry's cached TAST. A TAST
// is inferred from cross-file type resolution (Invariant 4), so it
// depends on the whole entry set and all disk content, not just the
// entry whose contents just moved; changed should be false when the
// caller determined the entry's contents didn't actually change (the
// identical-reopen edge case), in which case EntryMutated is a no-op,
// since nothing any cache depends on has moved.
func (e *Engine) EntryMutated(path pathutil.Path, changed bool) {
	if !changed {
		return
	}

	fileID := e.fnt.FileID(path)
	info, _ := e.fnt.Get(path)

	shallow := e.cache.Layer(cachectx.LayerShallowDecl)
	for _, sym := range info.Records() {
		shallow.Invalidate(cachectx.Key{File: fileID, Symbol: sym.ID})
	}

	e.cache.Layer(cachectx.LayerFoldedDecl).Clear()
	e.cache.Layer(cachectx.LayerLinearization).Clear()
	e.entries.ClearAllTAST()
}

// DiskFileChanged is Trigger B, invoked once per path the change-backlog
// processor dequeues. current is the freshly parsed FileInfo for path, or
// nil if the path no longer exists or is no longer a recognized source
// file. Clears every open entry's cached TAST for the same cross-file
// reason EntryMutated does — this path's disk content is exactly the kind
// of input a TAST's type resolution can have read. Returns the FileInfo
// that was on record before this call, so callers can report what
// changed.
func (e *Engine) DiskFileChanged(path pathutil.Path, current *naming.FileInfo) *naming.FileInfo {
	old, _ := e.fnt.Get(path)
	fileID := e.fnt.FileID(path)

	naming.ApplyFileChange(e.rnt, path, old, current)
	if e.index != nil {
		removed, added := symbolDelta(old, current)
		e.index.ApplySymbolDelta(removed, added)
	}

	if current == nil {
		e.fnt.Remove(path)
	} else {
		e.fnt.Set(path, current)
	}

	shallow := e.cache.Layer(cachectx.LayerShallowDecl)
	for _, sym := range old.Records() {
		shallow.Invalidate(cachectx.Key{File: fileID, Symbol: sym.ID})
	}
	for _, sym := range current.Records() {
		shallow.Invalidate(cachectx.Key{File: fileID, Symbol: sym.ID})
	}

	e.cache.Layer(cachectx.LayerFoldedDecl).Clear()
	e.cache.Layer(cachectx.LayerLinearization).Clear()
	e.entries.ClearAllTAST()

	return old
}

func symbolDelta(old, current *naming.FileInfo) (removed, added []string) {
	return old.SymbolNames(), current.SymbolNames()
}

// ShallowDeclKey builds the cachectx.Key a shallow-decl cache lookup for
// symbol sym in file fileID uses, so callers outside this package (query
// handlers, the folded-decl synthesizer) key their own Context.Layer calls
// identically to how the engine invalidates them.
func ShallowDeclKey(fileID ids.FileID, sym ids.SymbolID) cachectx.Key {
	return cachectx.Key{File: fileID, Symbol: sym}
}
