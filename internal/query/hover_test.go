package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/pathutil"
)

func TestHover_ReturnsSignatureAndDocForSymbolAtCursor(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	f.putFile(path, "package sample\n\n// NewWidget builds a Widget.\nfunc NewWidget(name string) *Widget {\n\treturn nil\n}\n")

	cache := cachectx.NewContext()
	qs := cache.Begin()
	defer qs.Discard()

	result, err := Hover(f.deps(), cache, qs, path, nil, 4, 10)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "NewWidget", result.Name)
	require.Equal(t, "NewWidget builds a Widget.", result.Doc)
	require.Contains(t, result.Signature, "func NewWidget")
}

func TestHover_NoSymbolAtCursorReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	f.putFile(path, "package sample\n\nfunc Run() {}\n")

	cache := cachectx.NewContext()
	qs := cache.Begin()
	defer qs.Discard()

	result, err := Hover(f.deps(), cache, qs, path, nil, 1, 1)
	require.NoError(t, err)
	require.False(t, result.Found)
}

func TestHover_DiscardedQuarantineNeverPromotesIntoLiveCache(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	f.entry.Open(path, "package sample\n\nfunc Unsaved() {}\n")

	cache := cachectx.NewContext()
	qs := cache.Begin()
	result, err := Hover(f.deps(), cache, qs, path, nil, 3, 7)
	require.NoError(t, err)
	require.True(t, result.Found)
	qs.Discard()

	// The write only ever landed in the quarantine session's overlay; the
	// live shallow-decl layer must still be empty for this file.
	fileID := f.fnt.FileID(path)
	_, ok := cache.Layer(cachectx.LayerShallowDecl).Get(cachectx.Key{File: fileID}, contentHash("package sample\n\nfunc Unsaved() {}\n"))
	require.False(t, ok)
}

func TestHover_CommittedQuarantinePromotesIntoLiveCache(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	contents := "package sample\n\nfunc Unsaved() {}\n"
	f.entry.Open(path, contents)

	cache := cachectx.NewContext()
	qs := cache.Begin()
	_, err := Hover(f.deps(), cache, qs, path, nil, 3, 7)
	require.NoError(t, err)
	qs.Commit()

	fileID := f.fnt.FileID(path)
	symbols, err := f.deps().symbolsFor(contents)
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	_, ok := cache.Layer(cachectx.LayerShallowDecl).Get(cachectx.Key{File: fileID, Symbol: symbols[0].ID}, contentHash(contents))
	require.True(t, ok)
}

func TestHover_SuppliedContentsOverrideOpenEntry(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	f.entry.Open(path, "package sample\n\nfunc Stale() {}\n")

	cache := cachectx.NewContext()
	qs := cache.Begin()
	defer qs.Discard()

	fresh := "package sample\n\nfunc Fresh() {}\n"
	result, err := Hover(f.deps(), cache, qs, path, &fresh, 3, 7)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "Fresh", result.Name)
}
