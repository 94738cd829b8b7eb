// Package naming holds the two disk-only tables the core consults before
// ever looking at an open buffer: the Forward Naming Table (file path → the
// symbols it defines) and the Reverse Naming Table (symbol name → defining
// file). Both are mutated exclusively by the change-backlog processor —
// never by query handlers, never by entry opens/edits/closes.
package naming

import (
	"sync"

	"github.com/standardbeagle/langd/internal/ids"
	"github.com/standardbeagle/langd/internal/pathutil"
)

// SymbolRecord is one symbol a file defines, carrying enough position and
// kind information for document-symbol and hover without requiring a parse.
type SymbolRecord struct {
	ID        ids.SymbolID
	Name      string
	Kind      string // "func", "type", "var", "const", "method", "field"
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// FileInfo is the set of symbols a file defines, enough to rebuild the
// reverse index without re-parsing.
type FileInfo struct {
	Path    pathutil.Path
	Symbols []SymbolRecord
}

// Records returns fi's symbols, safe to call on a nil receiver (an absent
// FileInfo defines no symbols).
func (fi *FileInfo) Records() []SymbolRecord {
	if fi == nil {
		return nil
	}
	return fi.Symbols
}

// SymbolNames returns the defined names in FileInfo, for RNT removal/add.
func (fi *FileInfo) SymbolNames() []string {
	if fi == nil {
		return nil
	}
	names := make([]string, len(fi.Symbols))
	for i, s := range fi.Symbols {
		names[i] = s.Name
	}
	return names
}

// FNT is the Forward Naming Table: file path → FileInfo. Assigns each path
// a stable ids.FileID on first sight, mirroring the parallel-array storage
// the teacher used for symbol lookup (see internal/idcodec's SymbolGetter),
// adapted here to paths rather than symbols.
type FNT struct {
	mu sync.RWMutex

	pathToID map[pathutil.Path]ids.FileID
	idToPath []pathutil.Path // index i holds the path for FileID(i); never shrinks.
	infos    map[ids.FileID]*FileInfo
}

// NewFNT creates an empty forward naming table.
func NewFNT() *FNT {
	return &FNT{
		pathToID: make(map[pathutil.Path]ids.FileID),
		idToPath: make([]pathutil.Path, 0, 256),
		infos:    make(map[ids.FileID]*FileInfo),
	}
}

// FileID returns the stable ID for p, assigning a new one if p has never
// been seen. IDs are never reused, even after Remove.
func (f *FNT) FileID(p pathutil.Path) ids.FileID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fileIDLocked(p)
}

func (f *FNT) fileIDLocked(p pathutil.Path) ids.FileID {
	if id, ok := f.pathToID[p]; ok {
		return id
	}
	id := ids.FileID(len(f.idToPath))
	f.pathToID[p] = id
	f.idToPath = append(f.idToPath, p)
	return id
}

// Path returns the path registered for id, if any.
func (f *FNT) Path(id ids.FileID) (pathutil.Path, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if int(id) >= len(f.idToPath) {
		return pathutil.Path{}, false
	}
	return f.idToPath[id], true
}

// Get returns the FileInfo recorded for p.
func (f *FNT) Get(p pathutil.Path) (*FileInfo, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.pathToID[p]
	if !ok {
		return nil, false
	}
	info, ok := f.infos[id]
	return info, ok
}

// GetByID returns the FileInfo recorded for a FileID.
func (f *FNT) GetByID(id ids.FileID) (*FileInfo, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	info, ok := f.infos[id]
	return info, ok
}

// Set records info as the current FileInfo for p, assigning a FileID if p
// is new, and returns that ID. Callers (the backlog processor) are
// responsible for diffing against the previous FileInfo before calling Set
// if they need the old symbol set — use Get first. Each of info's symbols
// is assigned a SymbolID unique within this file (its index in the
// record slice) — shallow-decl cache keys only need file-scoped
// uniqueness, since cachectx.Key pairs File and Symbol together.
func (f *FNT) Set(p pathutil.Path, info *FileInfo) ids.FileID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.fileIDLocked(p)
	if info != nil {
		for i := range info.Symbols {
			info.Symbols[i].ID = ids.SymbolID(i)
		}
	}
	f.infos[id] = info
	return id
}

// Remove deletes the FileInfo for p (the file no longer exists on disk, or
// is no longer a recognized source file) and returns the FileInfo that was
// present before removal, if any. The FileID itself stays reserved.
func (f *FNT) Remove(p pathutil.Path) (*FileInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.pathToID[p]
	if !ok {
		return nil, false
	}
	old, had := f.infos[id]
	delete(f.infos, id)
	return old, had
}

// Paths returns every path currently carrying a FileInfo.
func (f *FNT) Paths() []pathutil.Path {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]pathutil.Path, 0, len(f.infos))
	for id := range f.infos {
		out = append(out, f.idToPath[id])
	}
	return out
}

// RNT is the Reverse Naming Table: symbol name → defining file path. It
// models spec's "delta layered over a persistent index loaded from saved
// state" as a mutable map seeded directly from the saved-state loader's
// output at Initialize time; subsequent Define/Undefine calls from the
// backlog processor apply directly (this delta is never rolled back, unlike
// the speculative cachectx.Overlay the query path uses).
type RNT struct {
	mu       sync.RWMutex
	bySymbol map[string]pathutil.Path
}

// NewRNT creates an empty reverse naming table.
func NewRNT() *RNT {
	return &RNT{bySymbol: make(map[string]pathutil.Path)}
}

// NewRNTFromSeed creates a reverse naming table pre-populated from a saved
// index (the base layer internal/savedstate loads from the persisted blob).
func NewRNTFromSeed(seed map[string]pathutil.Path) *RNT {
	r := NewRNT()
	for name, p := range seed {
		r.bySymbol[name] = p
	}
	return r
}

// Lookup returns the path that currently defines name, if any.
func (r *RNT) Lookup(name string) (pathutil.Path, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.bySymbol[name]
	return p, ok
}

// Define records that path now defines name, overwriting whichever file
// previously defined it. Conflicting re-definitions are the RNT's problem,
// not the core's — last writer wins.
func (r *RNT) Define(name string, path pathutil.Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySymbol[name] = path
}

// Undefine removes name's mapping, but only if it currently points to
// path. This guards against a stale backlog entry clobbering a newer
// definition written by a later-processed path.
func (r *RNT) Undefine(name string, path pathutil.Path) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.bySymbol[name]; ok && cur == path {
		delete(r.bySymbol, name)
	}
}

// Len reports how many symbol names are currently mapped.
func (r *RNT) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}

// ApplyFileChange is Trigger B's RNT half: given the FileInfo that used to
// exist at p (nil if none) and the freshly parsed FileInfo now at p (nil if
// the path was deleted or is no longer a source file), removes the symbols
// the old FileInfo defined and adds the symbols the new one defines.
func ApplyFileChange(r *RNT, p pathutil.Path, old, current *FileInfo) {
	for _, name := range old.SymbolNames() {
		r.Undefine(name, p)
	}
	for _, name := range current.SymbolNames() {
		r.Define(name, p)
	}
}
