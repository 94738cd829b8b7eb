package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/folded"
	"github.com/standardbeagle/langd/internal/pathutil"
)

func TestDocumentHighlight_FindsWholeTokenOccurrencesOnly(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	contents := "package sample\n\nfunc Run() {\n\tRunOnce := Run\n\t_ = RunOnce\n}\n"

	locs, err := DocumentHighlight(f.deps(), path, &contents, 3, 6)
	require.NoError(t, err)

	// "Run" occurs as a whole token on line 3 (its own declaration) and
	// as the standalone right-hand side on line 4, but never as a
	// substring match inside "RunOnce" or "_ = RunOnce".
	require.Len(t, locs, 2)
	require.Equal(t, 3, locs[0].StartLine)
	require.Equal(t, 4, locs[1].StartLine)
}

func TestDocumentHighlight_NoWordAtCursorReturnsNil(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	contents := "package sample\n\n"

	locs, err := DocumentHighlight(f.deps(), path, &contents, 2, 0)
	require.NoError(t, err)
	require.Nil(t, locs)
}

func TestSignatureHelp_ResolvesCallTargetInSameFile(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	contents := "package sample\n\nfunc Helper(name string) {}\n\nfunc Caller() {\n\tHelper(\"x\")\n}\n"

	cache := cachectx.NewContext()
	qs := cache.Begin()
	defer qs.Discard()

	// Cursor sits just after the opening paren of Helper("x") on line 6.
	result, err := SignatureHelp(f.deps(), cache, qs, path, &contents, 6, 8)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "Helper", result.Name)
}

func TestSignatureHelp_FallsBackToCrossFileRNTLookup(t *testing.T) {
	f := newFixture(t)
	f.putFile(pathutil.NewRepoPath("helper.go"), "package sample\n\nfunc Shared(name string) {}\n")

	path := pathutil.NewRepoPath("main.go")
	contents := "package sample\n\nfunc main() {\n\tShared(\"x\")\n}\n"

	cache := cachectx.NewContext()
	qs := cache.Begin()
	defer qs.Discard()

	result, err := SignatureHelp(f.deps(), cache, qs, path, &contents, 4, 8)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "Shared", result.Name)
}

func TestDefinition_ResolvesAcrossFilesViaRNT(t *testing.T) {
	f := newFixture(t)
	f.putFile(pathutil.NewRepoPath("widget.go"), "package sample\n\nfunc Target() {}\n")

	path := pathutil.NewRepoPath("main.go")
	contents := "package sample\n\nfunc main() {\n\tTarget()\n}\n"

	loc, ok, err := Definition(f.deps(), path, &contents, 4, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pathutil.NewRepoPath("widget.go"), loc.Path)
	require.Equal(t, 3, loc.StartLine)
}

func TestDefinition_UnresolvedNameIsNotFound(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("main.go")
	contents := "package sample\n\nfunc main() {\n\tGhost()\n}\n"

	_, ok, err := Definition(f.deps(), path, &contents, 4, 2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTypeDefinition_JumpsFromVariableToItsStructType(t *testing.T) {
	f := newFixture(t)
	f.putFile(pathutil.NewRepoPath("widget.go"), "package sample\n\ntype Widget struct{}\n")

	path := pathutil.NewRepoPath("main.go")
	contents := "package sample\n\nvar Current Widget\n"

	cache := cachectx.NewContext()
	qs := cache.Begin()
	defer qs.Discard()

	loc, ok, err := TypeDefinition(f.deps(), cache, qs, path, &contents, 3, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pathutil.NewRepoPath("widget.go"), loc.Path)
}

func TestTypeDefinition_ResolvesThroughFoldedDeclCacheForEmbeddedType(t *testing.T) {
	f := newFixture(t)
	f.putFile(pathutil.NewRepoPath("base.go"), "package sample\n\ntype Base struct {\n\tID int\n}\n")
	f.putFile(pathutil.NewRepoPath("widget.go"), "package sample\n\ntype Widget struct {\n\tBase\n\tName string\n}\n")

	path := pathutil.NewRepoPath("main.go")
	contents := "package sample\n\nvar Current Widget\n"

	cache := cachectx.NewContext()
	qs := cache.Begin()
	defer qs.Discard()

	loc, ok, err := TypeDefinition(f.deps(), cache, qs, path, &contents, 3, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pathutil.NewRepoPath("widget.go"), loc.Path)

	fileID := f.fnt.FileID(pathutil.NewRepoPath("widget.go"))
	symbols, err := f.deps().symbolsFor("package sample\n\ntype Widget struct {\n\tBase\n\tName string\n}\n")
	require.NoError(t, err)
	hash := contentHash("package sample\n\ntype Widget struct {\n\tBase\n\tName string\n}\n")
	// main.go's contents are supplied with the request, so the write lands
	// in the quarantine session's folded-decl layer, not the live one.
	v, ok := qs.Layer(cachectx.LayerFoldedDecl).Get(cachectx.Key{File: fileID, Symbol: symbols[0].ID}, hash)
	require.True(t, ok, "resolving Widget's definition must populate the session's folded-decl layer with a real folded.Decl")
	fd, ok := v.(folded.Decl)
	require.True(t, ok)
	require.Equal(t, []string{"Base"}, fd.Embeds)
	require.Contains(t, fd.Members, "Base")
}

func TestDocumentSymbol_ShapesNestedRangesIntoATree(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	contents := "package sample\n\ntype Widget struct {\n\tName string\n}\n\nfunc (w *Widget) String() string {\n\treturn w.Name\n}\n"
	f.putFile(path, contents)

	nodes, err := DocumentSymbol(f.deps(), path)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	names := []string{nodes[0].Name, nodes[1].Name}
	require.ElementsMatch(t, []string{"Widget", "String"}, names)
}

func TestDocumentSymbol_PrefersOpenEntryOverFNT(t *testing.T) {
	f := newFixture(t)
	path := pathutil.NewRepoPath("widget.go")
	f.putFile(path, "package sample\n\nfunc OldName() {}\n")
	f.entry.Open(path, "package sample\n\nfunc NewName() {}\n")

	nodes, err := DocumentSymbol(f.deps(), path)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "NewName", nodes[0].Name)
}
