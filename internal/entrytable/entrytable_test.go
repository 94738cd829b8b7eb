package entrytable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/langd/internal/pathutil"
)

func TestEntryTable_OpenCreatesEntry(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")

	e, changed := tbl.Open(p, "package a\n")
	assert.True(t, changed)
	assert.Equal(t, "package a\n", e.Contents())

	got, ok := tbl.Get(p)
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestEntryTable_OpenWithIdenticalContentsIsNotAChange(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")

	tbl.Open(p, "package a\n")
	_, changed := tbl.Open(p, "package a\n")

	assert.False(t, changed, "re-opening with identical contents must not report a change")
}

func TestEntryTable_OpenWithDifferentContentsIsAChange(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")

	tbl.Open(p, "package a\n")
	e, changed := tbl.Open(p, "package a\n\nfunc F() {}\n")

	assert.True(t, changed)
	assert.Equal(t, "package a\n\nfunc F() {}\n", e.Contents())
}

func TestEntryTable_Close(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")
	tbl.Open(p, "package a\n")

	_, ok := tbl.Close(p)
	assert.True(t, ok)

	_, ok = tbl.Get(p)
	assert.False(t, ok)
}

func TestEntryTable_PathsAndLen(t *testing.T) {
	tbl := NewEntryTable()
	a := pathutil.NewRepoPath("a.go")
	b := pathutil.NewRepoPath("b.go")
	tbl.Open(a, "package a\n")
	tbl.Open(b, "package b\n")

	assert.Equal(t, 2, tbl.Len())
	assert.ElementsMatch(t, []pathutil.Path{a, b}, tbl.Paths())
}

func TestEntry_SetContentsClearsASTAndTAST(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")
	e, _ := tbl.Open(p, "package a\n")

	e.SetAST("parsed-ast")
	e.SetTAST("typed-ast")

	_, changed := tbl.Open(p, "package a\n\nvar X int\n")
	assert.True(t, changed)

	_, ok := e.AST()
	assert.False(t, ok, "contents change clears the cached AST")
	_, ok = e.TAST()
	assert.False(t, ok, "contents change clears the cached TAST")
}

func TestEntry_SetContentsWithUnchangedTextKeepsAST(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")
	e, _ := tbl.Open(p, "package a\n")
	e.SetAST("parsed-ast")

	tbl.Open(p, "package a\n")

	ast, ok := e.AST()
	assert.True(t, ok)
	assert.Equal(t, "parsed-ast", ast)
}

func TestEntry_Line(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")
	e, _ := tbl.Open(p, "package a\n\nfunc F() {}\n")

	assert.Equal(t, 3, e.LineCount())

	line, ok := e.Line(0)
	assert.True(t, ok)
	assert.Equal(t, "package a", line)

	line, ok = e.Line(2)
	assert.True(t, ok)
	assert.Equal(t, "func F() {}", line)

	_, ok = e.Line(99)
	assert.False(t, ok)
}

func TestEntry_FastHashChangesWithContents(t *testing.T) {
	tbl := NewEntryTable()
	p := pathutil.NewRepoPath("a.go")
	e, _ := tbl.Open(p, "package a\n")
	h1 := e.FastHash()

	tbl.Open(p, "package b\n")
	h2 := e.FastHash()

	assert.NotEqual(t, h1, h2)
}
