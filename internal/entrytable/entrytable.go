// Package entrytable holds the Entry Table: the set of editor-held
// in-memory buffers. An entry's AST and TAST are stored on the entry
// itself, not as values in one of internal/cachectx's process-wide
// layers — but a TAST's cross-file type resolution makes it depend on
// every other open entry and on disk content, so internal/invalidation
// reaches back into this package to clear every entry's TAST together.
package entrytable

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/langd/internal/pathutil"
)

// Entry is an in-memory buffer: a path, its text, and the lazily computed
// AST/TAST that text produces. The AST depends solely on contents
// (invariant 1); the TAST also depends on other entries and on disk (see
// the package doc). Any contents change clears both.
type Entry struct {
	mu sync.RWMutex

	path        pathutil.Path
	contents    string
	fastHash    uint64
	lineOffsets []uint32

	ast  any
	tast any
}

func newEntry(path pathutil.Path, contents string) *Entry {
	e := &Entry{path: path}
	e.setContentsLocked(contents)
	return e
}

// Path returns the entry's buffer path.
func (e *Entry) Path() pathutil.Path {
	return e.path
}

// Contents returns the entry's current text.
func (e *Entry) Contents() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.contents
}

// FastHash returns the xxhash of the entry's current contents, usable as
// the caller-supplied content hash for cachectx.Backend.Get/Put calls keyed
// on this entry.
func (e *Entry) FastHash() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fastHash
}

// LineCount reports how many lines the entry's contents span.
func (e *Entry) LineCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.lineOffsets)
}

// Line returns the text of the 0-based line n.
func (e *Entry) Line(n int) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if n < 0 || n >= len(e.lineOffsets) {
		return "", false
	}
	start := e.lineOffsets[n]
	var end uint32
	if n+1 < len(e.lineOffsets) {
		end = e.lineOffsets[n+1]
		if end > start && e.contents[end-1] == '\n' {
			end--
		}
	} else {
		end = uint32(len(e.contents))
		if end > start && e.contents[end-1] == '\n' {
			end--
		}
	}
	return e.contents[start:end], true
}

// AST returns the entry's cached syntax tree, if one has been computed
// since the last contents change.
func (e *Entry) AST() (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ast, e.ast != nil
}

// SetAST records the syntax tree computed from the entry's current
// contents (callers must have derived it from the same contents they read
// via Contents — entrytable does not parse).
func (e *Entry) SetAST(ast any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ast = ast
}

// TAST returns the entry's cached typed syntax tree, if computed.
func (e *Entry) TAST() (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tast, e.tast != nil
}

// SetTAST records the typed syntax tree computed from the entry's current
// contents.
func (e *Entry) SetTAST(tast any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tast = tast
}

// ClearTAST drops the entry's cached TAST without touching its AST or
// contents. A TAST's cross-file type resolution depends on every other
// open entry and on disk content, not just this entry's own text, so the
// invalidation engine clears it on triggers that never touch this entry's
// contents at all.
func (e *Entry) ClearTAST() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tast = nil
}

// setContents replaces the entry's text. Returns false, leaving the AST/
// TAST untouched, if contents are unchanged from before (the re-opened-
// file-with-identical-contents edge case); true, and clears the AST/TAST,
// otherwise.
func (e *Entry) setContents(contents string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lineOffsets != nil && xxhash.Sum64String(contents) == e.fastHash && contents == e.contents {
		return false
	}
	e.setContentsLocked(contents)
	return true
}

func (e *Entry) setContentsLocked(contents string) {
	e.contents = contents
	e.fastHash = xxhash.Sum64String(contents)
	e.lineOffsets = computeLineOffsets(contents)
	e.ast = nil
	e.tast = nil
}

func computeLineOffsets(contents string) []uint32 {
	offsets := make([]uint32, 1, len(contents)/40+2)
	offsets[0] = 0
	for i := 0; i < len(contents); i++ {
		if contents[i] == '\n' && i+1 < len(contents) {
			offsets = append(offsets, uint32(i+1))
		}
	}
	return offsets
}

// EntryTable is the set of currently open buffers, keyed by path.
type EntryTable struct {
	mu      sync.RWMutex
	entries map[pathutil.Path]*Entry
}

// NewEntryTable creates an empty entry table.
func NewEntryTable() *EntryTable {
	return &EntryTable{entries: make(map[pathutil.Path]*Entry)}
}

// Open creates an entry for path with the given contents, or updates an
// existing one. Returns the entry and whether its contents actually
// changed (false for a brand-new entry's first open is never returned —
// that is always a change; false only for the re-open-with-identical-text
// edge case). Callers with only a path and no supplied contents must not
// call Open — per the invalidation engine's edge cases, that case leaves
// any existing entry untouched and is handled by looking the path up via
// Get instead.
func (t *EntryTable) Open(path pathutil.Path, contents string) (entry *Entry, changed bool) {
	t.mu.Lock()
	e, exists := t.entries[path]
	if !exists {
		e = newEntry(path, contents)
		t.entries[path] = e
		t.mu.Unlock()
		return e, true
	}
	t.mu.Unlock()
	return e, e.setContents(contents)
}

// Get returns the entry for path, if the editor currently holds it open.
func (t *EntryTable) Get(path pathutil.Path) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[path]
	return e, ok
}

// Close removes and returns the entry for path, if one was open.
func (t *EntryTable) Close(path pathutil.Path) (*Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[path]
	if ok {
		delete(t.entries, path)
	}
	return e, ok
}

// Paths returns every path currently holding an open entry.
func (t *EntryTable) Paths() []pathutil.Path {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]pathutil.Path, 0, len(t.entries))
	for p := range t.entries {
		out = append(out, p)
	}
	return out
}

// Len reports how many entries are currently open.
func (t *EntryTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// ClearAllTAST drops the cached TAST of every open entry. The invalidation
// engine calls this on Trigger A and Trigger B: a TAST is a function of
// the whole entry set plus all disk content, so mutating or closing any
// one entry, or a disk change to any file, invalidates every entry's TAST,
// not just the one that changed.
func (t *EntryTable) ClearAllTAST() {
	t.mu.RLock()
	entries := make([]*Entry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	t.mu.RUnlock()
	for _, e := range entries {
		e.ClearTAST()
	}
}
