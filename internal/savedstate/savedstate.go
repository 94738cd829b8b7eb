// Package savedstate implements the daemon's "external loader" collaborator
// (spec.md §4.5 step 4): an opaque, disk-only blob that lets Initialize
// skip re-walking a repository that hasn't changed much, plus the
// directory walk that diffs disk mtimes against the blob to produce the
// initial change set when no fresher blob is available.
package savedstate

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
)

// fileInfoRecord is the gob-friendly shape of a naming.FileInfo: the same
// fields, but with Path's Rel carried as a plain string since gob cannot
// encode pathutil.Path's private helpers directly (it can, in fact, since
// all fields are exported — kept separate regardless so the wire-opaque
// blob format doesn't silently change shape if pathutil.Path ever grows an
// unexported field).
type fileInfoRecord struct {
	Root    pathutil.Root
	Rel     string
	Symbols []naming.SymbolRecord
}

// Blob is the persisted saved-state payload: one FileInfo per path known
// as of ProducedAt. SeedRNTSource derives the RNT seed from them.
type Blob struct {
	FileInfos  []fileInfoRecord
	ProducedAt time.Time
}

// Load reads a previously-written blob from path. The caller is
// responsible for asserting there are no changed files since the blob was
// produced (spec.md §4.5 step 4's "supplied path" branch) — Load itself
// does no disk comparison.
func Load(path string) (*Blob, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var blob Blob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

// Save writes blob to path, overwriting any existing file.
func Save(path string, blob *Blob) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(blob)
}

// BuildBlob captures the current contents of fnt as a Blob stamped with
// producedAt, for a later Save.
func BuildBlob(fnt *naming.FNT, producedAt time.Time) *Blob {
	paths := fnt.Paths()
	records := make([]fileInfoRecord, 0, len(paths))
	for _, p := range paths {
		info, ok := fnt.Get(p)
		if !ok {
			continue
		}
		records = append(records, fileInfoRecord{Root: p.Root, Rel: p.Rel, Symbols: info.Symbols})
	}
	return &Blob{FileInfos: records, ProducedAt: producedAt}
}

// SeedFNT populates an empty naming.FNT from the blob's FileInfos.
func SeedFNT(fnt *naming.FNT, blob *Blob) {
	for _, rec := range blob.FileInfos {
		p := pathutil.Path{Root: rec.Root, Rel: rec.Rel}
		fnt.Set(p, &naming.FileInfo{Path: p, Symbols: rec.Symbols})
	}
}

// SeedRNTSource builds the symbol-name -> path seed map an
// naming.NewRNTFromSeed call needs, from the blob's FileInfos directly
// (last writer in file-walk order wins, same rule the core applies to
// live RNT updates).
func SeedRNTSource(blob *Blob) map[string]pathutil.Path {
	seed := make(map[string]pathutil.Path)
	for _, rec := range blob.FileInfos {
		p := pathutil.Path{Root: rec.Root, Rel: rec.Rel}
		for _, sym := range rec.Symbols {
			seed[sym.Name] = p
		}
	}
	return seed
}

// ChangedSince walks repoRoot and returns the repo-relative paths of every
// regular file whose modification time is after blob.ProducedAt, plus
// every path the blob recorded that no longer exists on disk (a deletion
// is also a change the backlog must process). A nil blob (no saved state
// supplied) is treated as "everything changed" — every file under
// repoRoot is reported. Only files is.Go-source are reported; callers
// filter elsewhere, so ChangedSince reports .go files by extension only.
func ChangedSince(repoRoot string, blob *Blob) ([]pathutil.Path, error) {
	seen := make(map[string]struct{})
	var changed []pathutil.Path

	err := filepath.WalkDir(repoRoot, func(walkPath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(walkPath) != ".go" {
			return nil
		}
		rel, err := filepath.Rel(repoRoot, walkPath)
		if err != nil {
			return nil
		}
		seen[rel] = struct{}{}

		if blob == nil {
			changed = append(changed, pathutil.NewRepoPath(rel))
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(blob.ProducedAt) {
			changed = append(changed, pathutil.NewRepoPath(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if blob != nil {
		for _, rec := range blob.FileInfos {
			if rec.Root != pathutil.RootRepo {
				continue
			}
			if _, stillThere := seen[rec.Rel]; !stillThere {
				changed = append(changed, pathutil.Path{Root: rec.Root, Rel: rec.Rel})
			}
		}
	}

	return changed, nil
}
