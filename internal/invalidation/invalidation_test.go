package invalidation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/entrytable"
	"github.com/standardbeagle/langd/internal/ids"
	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
)

func TestEngine_EntryMutated_InvalidatesShallowDeclsForFileSymbols(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, nil)

	p := pathutil.NewRepoPath("a.go")
	fileID := fnt.Set(p, &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 1, Name: "Foo"}}})

	// Set numbers each record by its index, so Foo is symbol 0.
	shallow := cache.Layer(cachectx.LayerShallowDecl)
	shallow.Put(ShallowDeclKey(fileID, 0), 1, "shallow-foo")
	cache.Layer(cachectx.LayerFoldedDecl).Put(cachectx.Key{File: fileID, Symbol: 1}, 1, "folded")

	engine.EntryMutated(p, true)

	_, ok := shallow.Get(ShallowDeclKey(fileID, 0), 1)
	assert.False(t, ok, "shallow-decl for the mutated file's symbol must be invalidated")

	_, ok = cache.Layer(cachectx.LayerFoldedDecl).Get(cachectx.Key{File: fileID, Symbol: 1}, 1)
	assert.False(t, ok, "all folded-decls are invalidated on any entry mutation")
}

func TestEngine_EntryMutated_NoOpWhenUnchanged(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, nil)

	p := pathutil.NewRepoPath("a.go")
	fileID := fnt.Set(p, &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 1, Name: "Foo"}}})
	cache.Layer(cachectx.LayerShallowDecl).Put(ShallowDeclKey(fileID, 0), 1, "shallow-foo")

	engine.EntryMutated(p, false)

	_, ok := cache.Layer(cachectx.LayerShallowDecl).Get(ShallowDeclKey(fileID, 0), 1)
	assert.True(t, ok, "unchanged reopen must not invalidate anything")
}

func TestEngine_DiskFileChanged_UpdatesFNTAndRNT(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, nil)

	p := pathutil.NewRepoPath("a.go")
	fnt.Set(p, &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 1, Name: "Old"}}})
	rnt.Define("Old", p)

	current := &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 2, Name: "New"}}}
	old := engine.DiskFileChanged(p, current)

	assert.NotNil(t, old)
	assert.Equal(t, "Old", old.Symbols[0].Name)

	_, ok := rnt.Lookup("Old")
	assert.False(t, ok)
	got, ok := rnt.Lookup("New")
	assert.True(t, ok)
	assert.Equal(t, p, got)

	info, ok := fnt.Get(p)
	assert.True(t, ok)
	assert.Equal(t, current, info)
}

func TestEngine_DiskFileChanged_DeletedFileRemovesFromFNT(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, nil)

	p := pathutil.NewRepoPath("a.go")
	fnt.Set(p, &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 1, Name: "Gone"}}})
	rnt.Define("Gone", p)

	engine.DiskFileChanged(p, nil)

	_, ok := fnt.Get(p)
	assert.False(t, ok)
	_, ok = rnt.Lookup("Gone")
	assert.False(t, ok)
}

func TestEngine_DiskFileChanged_InvalidatesSharedCaches(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, nil)

	p := pathutil.NewRepoPath("a.go")
	fileID := fnt.Set(p, &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 1, Name: "Old"}}})
	cache.Layer(cachectx.LayerShallowDecl).Put(ShallowDeclKey(fileID, 0), 1, "shallow")
	cache.Layer(cachectx.LayerLinearization).Put(cachectx.Key{File: 99}, 1, "mro")

	engine.DiskFileChanged(p, nil)

	_, ok := cache.Layer(cachectx.LayerShallowDecl).Get(ShallowDeclKey(fileID, 0), 1)
	assert.False(t, ok)
	_, ok = cache.Layer(cachectx.LayerLinearization).Get(cachectx.Key{File: 99}, 1)
	assert.False(t, ok, "linearization is cleared wholesale on any disk change")
}

type recordingIndex struct {
	removed, added []string
}

func (r *recordingIndex) ApplySymbolDelta(removed, added []string) {
	r.removed = removed
	r.added = added
}

func TestEngine_DiskFileChanged_UpdatesSymbolIndex(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	idx := &recordingIndex{}
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, idx)

	p := pathutil.NewRepoPath("a.go")
	fnt.Set(p, &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 1, Name: "Old"}}})

	current := &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 2, Name: "New"}}}
	engine.DiskFileChanged(p, current)

	assert.Equal(t, []string{"Old"}, idx.removed)
	assert.Equal(t, []string{"New"}, idx.added)
}

func TestShallowDeclKey(t *testing.T) {
	k := ShallowDeclKey(ids.FileID(3), ids.SymbolID(7))
	assert.Equal(t, cachectx.Key{File: 3, Symbol: 7}, k)
}

// TestEngine_EntryMutated_ClearsTASTOfEveryOtherOpenEntry reproduces the
// cross-file scenario a TAST's resolution actually depends on: editing B
// must drop A's cached TAST too, since A's was inferred by resolving
// types across both entries, not just A's own contents.
func TestEngine_EntryMutated_ClearsTASTOfEveryOtherOpenEntry(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, nil)

	a, _ := entries.Open(pathutil.NewRepoPath("a.go"), "package p\n")
	b, changed := entries.Open(pathutil.NewRepoPath("b.go"), "package p\n")
	a.SetTAST("a-tast")
	b.SetTAST("b-tast")

	engine.EntryMutated(pathutil.NewRepoPath("b.go"), changed)

	_, ok := a.TAST()
	assert.False(t, ok, "editing b.go must invalidate a.go's cached TAST, not just b.go's own")
	_, ok = b.TAST()
	assert.False(t, ok)
}

func TestEngine_DiskFileChanged_ClearsTASTOfOpenEntries(t *testing.T) {
	fnt := naming.NewFNT()
	rnt := naming.NewRNT()
	cache := cachectx.NewContext()
	entries := entrytable.NewEntryTable()
	engine := NewEngine(fnt, rnt, cache, entries, nil)

	a, _ := entries.Open(pathutil.NewRepoPath("a.go"), "package p\n")
	a.SetTAST("a-tast")

	engine.DiskFileChanged(pathutil.NewRepoPath("c.go"), &naming.FileInfo{Path: pathutil.NewRepoPath("c.go")})

	_, ok := a.TAST()
	assert.False(t, ok, "a disk change to an unrelated file must still invalidate open entries' TAST")
}
