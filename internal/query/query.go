// Package query implements the thin handlers behind each request tag
// spec.md §6 lists: hover, completion, definition, and the rest. Per
// spec.md §4.8 these are external algorithms the daemon loop reaches
// through a snapshot — they read the FNT/RNT and the shared caches, they
// never invalidate anything and never mutate the naming tables.
package query

import (
	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/entrytable"
	"github.com/standardbeagle/langd/internal/folded"
	"github.com/standardbeagle/langd/internal/ids"
	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/parse"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/shallow"
	"github.com/standardbeagle/langd/internal/symbolindex"
)

// Location identifies a span of source text a query result points at.
type Location struct {
	Path      pathutil.Path `json:"path"`
	StartLine int           `json:"start_line"`
	StartCol  int           `json:"start_col"`
	EndLine   int           `json:"end_line"`
	EndCol    int           `json:"end_col"`
}

// Deps bundles the daemon state every query handler reads. Handlers take
// Deps by value — it is five pointers and a func, cheap to copy, and
// copying it rules out a handler accidentally retaining it past its call.
type Deps struct {
	FNT     *naming.FNT
	RNT     *naming.RNT
	Entries *entrytable.EntryTable
	Parser  *parse.Parser
	Index   *symbolindex.Index

	// ReadDisk reads a path's current on-disk content, for files with no
	// open entry. Supplied by the daemon as a PathResolver method, kept
	// here as a bare func so this package never imports internal/daemon.
	ReadDisk func(pathutil.Path) (string, error)
}

func contentHash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// contentFor resolves the text a handler should read: the request's own
// supplied contents if present (an unsaved edit), else the open entry's
// contents, else disk. The bool reports whether the text came from an open
// entry — callers use it to decide whether quarantine applies.
func (d Deps) contentFor(path pathutil.Path, supplied *string) (text string, fromEntry bool, err error) {
	if supplied != nil {
		return *supplied, false, nil
	}
	if e, ok := d.Entries.Get(path); ok {
		return e.Contents(), true, nil
	}
	text, err = d.ReadDisk(path)
	return text, false, err
}

// symbolsFor parses text into the same symbol-record shape the FNT stores,
// for a path whose current text (possibly unsaved) the caller already
// resolved. Re-parsed fresh every call: caching the parse itself is out of
// scope — only the shallow decl it feeds is cached, one layer up. Each
// record's ID is its index, the same numbering naming.FNT.Set assigns.
func (d Deps) symbolsFor(text string) ([]naming.SymbolRecord, error) {
	info, err := d.Parser.ParseFileInfo(pathutil.Path{}, []byte(text))
	if err != nil {
		return nil, err
	}
	for i := range info.Symbols {
		info.Symbols[i].ID = ids.SymbolID(i)
	}
	return info.Symbols, nil
}

// symbolAtPosition returns the innermost symbol whose range contains
// (line, col), 1-indexed to match naming.SymbolRecord.
func symbolAtPosition(symbols []naming.SymbolRecord, line, col int) (naming.SymbolRecord, bool) {
	for _, s := range symbols {
		if line < s.StartLine || line > s.EndLine {
			continue
		}
		if line == s.StartLine && col < s.StartCol {
			continue
		}
		if line == s.EndLine && col > s.EndCol {
			continue
		}
		return s, true
	}
	return naming.SymbolRecord{}, false
}

// shallowDeclBackend resolves the shallow-decl cache to read/write through
// for a given content origin: the live shallow-decl layer for disk/saved
// content, a quarantine session's overlay for content read from an open
// entry. quarantine is nil when the caller isn't running under one (the
// handler doesn't need it, or the content came from disk anyway).
func shallowDeclBackend(cache *cachectx.Context, quarantine *cachectx.QuarantineSession, fromEntry bool) cachectx.Backend {
	if fromEntry && quarantine != nil {
		return quarantine.Layer(cachectx.LayerShallowDecl)
	}
	return cache.Layer(cachectx.LayerShallowDecl)
}

func foldedDeclBackend(cache *cachectx.Context, quarantine *cachectx.QuarantineSession, fromEntry bool) cachectx.Backend {
	if fromEntry && quarantine != nil {
		return quarantine.Layer(cachectx.LayerFoldedDecl)
	}
	return cache.Layer(cachectx.LayerFoldedDecl)
}

// shallowDeclFor resolves one named symbol's shallow declaration within
// text, consulting/populating backend by the symbol's FNT-assigned ID so
// repeated lookups against unchanged content hit the cache.
func (d Deps) shallowDeclFor(backend cachectx.Backend, path pathutil.Path, text string, symbolName string) (shallow.Decl, bool, error) {
	symbols, err := d.symbolsFor(text)
	if err != nil {
		return shallow.Decl{}, false, err
	}
	return d.shallowDeclForSymbols(backend, path, text, symbols, symbolName)
}

func (d Deps) shallowDeclForSymbols(backend cachectx.Backend, path pathutil.Path, text string, symbols []naming.SymbolRecord, symbolName string) (shallow.Decl, bool, error) {
	fileID := d.FNT.FileID(path)
	hash := contentHash(text)
	for _, sym := range symbols {
		if sym.Name != symbolName {
			continue
		}
		key := cachectx.Key{File: fileID, Symbol: sym.ID}
		if v, ok := backend.Get(key, hash); ok {
			if decl, ok := v.(shallow.Decl); ok {
				return decl, true, nil
			}
		}
		decls := shallow.Extract(text, []naming.SymbolRecord{sym})
		decl := decls[0]
		backend.Put(key, hash, decl)
		return decl, true, nil
	}
	return shallow.Decl{}, false, nil
}

// typeResolver builds a folded.Resolver over the FNT/RNT: given a type
// name, find the file that defines it (via RNT), parse that file's current
// disk content (or its open entry's, if any), and extract its shallow
// decl. Used by foldedDeclFor (and so by TypeDefinition/TypeCoverage) to
// resolve a declared type name to its defining declaration across files.
func (d Deps) typeResolver(backend cachectx.Backend) folded.Resolver {
	return func(typeName string) (shallow.Decl, pathutil.Path, bool) {
		at, ok := d.RNT.Lookup(typeName)
		if !ok {
			return shallow.Decl{}, pathutil.Path{}, false
		}
		text, _, err := d.contentFor(at, nil)
		if err != nil {
			return shallow.Decl{}, pathutil.Path{}, false
		}
		symbols, err := d.symbolsFor(text)
		if err != nil {
			return shallow.Decl{}, pathutil.Path{}, false
		}
		decl, ok, err := d.shallowDeclForSymbols(backend, at, text, symbols, typeName)
		if err != nil || !ok {
			return shallow.Decl{}, pathutil.Path{}, false
		}
		return decl, at, true
	}
}

// foldedDeclFor resolves typeName's folded declaration — its own shallow
// decl plus every member its embedding chain promotes, per
// internal/folded — consulting/populating foldedBackend under the type's
// own FNT-assigned symbol key so repeated lookups against unchanged
// content hit the cache instead of re-running Fold's embedding walk.
// shallowBackend is the resolver Fold uses to look up each embedded
// type's own shallow decl; it is never the same backend as foldedBackend,
// since Fold's inputs and its synthesized output belong in different
// cache layers.
func (d Deps) foldedDeclFor(shallowBackend, foldedBackend cachectx.Backend, typeName string) (folded.Decl, pathutil.Path, bool, error) {
	resolve := d.typeResolver(shallowBackend)
	decl, at, ok := resolve(typeName)
	if !ok {
		return folded.Decl{}, pathutil.Path{}, false, nil
	}

	text, _, err := d.contentFor(at, nil)
	if err != nil {
		return folded.Decl{}, pathutil.Path{}, false, err
	}
	symbols, err := d.symbolsFor(text)
	if err != nil {
		return folded.Decl{}, pathutil.Path{}, false, err
	}

	fileID := d.FNT.FileID(at)
	hash := contentHash(text)
	for _, sym := range symbols {
		if sym.Name != typeName {
			continue
		}
		key := cachectx.Key{File: fileID, Symbol: sym.ID}
		if v, ok := foldedBackend.Get(key, hash); ok {
			if fd, ok := v.(folded.Decl); ok {
				return fd, at, true, nil
			}
		}
		fd := folded.Fold(decl, at, resolve)
		foldedBackend.Put(key, hash, fd)
		return fd, at, true, nil
	}
	return folded.Decl{}, pathutil.Path{}, false, nil
}

func locationOf(path pathutil.Path, sym naming.SymbolRecord) Location {
	return Location{Path: path, StartLine: sym.StartLine, StartCol: sym.StartCol, EndLine: sym.EndLine, EndCol: sym.EndCol}
}
