package savedstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	blobPath := filepath.Join(dir, "state.gob")

	fnt := naming.NewFNT()
	p := pathutil.NewRepoPath("a.go")
	fnt.Set(p, &naming.FileInfo{Path: p, Symbols: []naming.SymbolRecord{{ID: 1, Name: "Foo", Kind: "func"}}})

	produced := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	blob := BuildBlob(fnt, produced)

	require.NoError(t, Save(blobPath, blob))

	loaded, err := Load(blobPath)
	require.NoError(t, err)
	assert.True(t, loaded.ProducedAt.Equal(produced))
	require.Len(t, loaded.FileInfos, 1)
	assert.Equal(t, "a.go", loaded.FileInfos[0].Rel)
	assert.Equal(t, "Foo", loaded.FileInfos[0].Symbols[0].Name)
}

func TestSeedFNT(t *testing.T) {
	blob := &Blob{FileInfos: []fileInfoRecord{
		{Root: pathutil.RootRepo, Rel: "a.go", Symbols: []naming.SymbolRecord{{Name: "Foo"}}},
	}}

	fnt := naming.NewFNT()
	SeedFNT(fnt, blob)

	info, ok := fnt.Get(pathutil.NewRepoPath("a.go"))
	require.True(t, ok)
	assert.Equal(t, "Foo", info.Symbols[0].Name)
}

func TestSeedRNTSource(t *testing.T) {
	blob := &Blob{FileInfos: []fileInfoRecord{
		{Root: pathutil.RootRepo, Rel: "a.go", Symbols: []naming.SymbolRecord{{Name: "Foo"}}},
		{Root: pathutil.RootRepo, Rel: "b.go", Symbols: []naming.SymbolRecord{{Name: "Bar"}}},
	}}

	seed := SeedRNTSource(blob)
	assert.Equal(t, pathutil.NewRepoPath("a.go"), seed["Foo"])
	assert.Equal(t, pathutil.NewRepoPath("b.go"), seed["Bar"])
}

func TestChangedSince_NilBlobReportsEverything(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("ignored"), 0o644))

	changed, err := ChangedSince(dir, nil)
	require.NoError(t, err)
	assert.Len(t, changed, 1)
	assert.Equal(t, pathutil.NewRepoPath("a.go"), changed[0])
}

func TestChangedSince_OnlyNewerFilesReported(t *testing.T) {
	dir := t.TempDir()
	produced := time.Now().Add(-time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.go"), produced.Add(-time.Minute), produced.Add(-time.Minute)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.go"), []byte("package a\n"), 0o644))

	blob := &Blob{ProducedAt: produced}
	changed, err := ChangedSince(dir, blob)
	require.NoError(t, err)
	assert.Contains(t, changed, pathutil.NewRepoPath("new.go"))
	assert.NotContains(t, changed, pathutil.NewRepoPath("old.go"))
}

func TestChangedSince_DeletedFileReported(t *testing.T) {
	dir := t.TempDir()
	blob := &Blob{
		ProducedAt: time.Now(),
		FileInfos:  []fileInfoRecord{{Root: pathutil.RootRepo, Rel: "gone.go"}},
	}

	changed, err := ChangedSince(dir, blob)
	require.NoError(t, err)
	assert.Contains(t, changed, pathutil.NewRepoPath("gone.go"))
}
