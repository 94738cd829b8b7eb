package query

import (
	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/shallow"
	"github.com/standardbeagle/langd/internal/tast"
)

// CoverageResult is the TAST hit/miss ratio for one file's symbols.
type CoverageResult struct {
	Hits  int `json:"hits"`
	Total int `json:"total"`
}

// TypeCoverage computes the declared-type resolution ratio for path's
// symbols. Reuses the entry's cached TAST when its content matches
// exactly what's requested; otherwise infers fresh and, for an open
// entry, caches the result on the entry itself (the TAST cache's only
// storage site per the data model — disk-only files have no persistent
// TAST slot, so their coverage is always computed on the fly). Uses
// quarantine for the folded-decl lookups it performs while inferring,
// since the symbols may come from unsaved content.
func TypeCoverage(d Deps, cache *cachectx.Context, quarantine *cachectx.QuarantineSession, path pathutil.Path, contents *string) (CoverageResult, error) {
	text, fromEntry, err := d.contentFor(path, contents)
	if err != nil {
		return CoverageResult{}, err
	}

	entry, hasEntry := d.Entries.Get(path)
	if hasEntry && contents == nil {
		if cached, ok := entry.TAST(); ok {
			if t, ok := cached.(*tast.TAST); ok {
				hits, total := t.Coverage()
				return CoverageResult{Hits: hits, Total: total}, nil
			}
		}
	}

	symbols, err := d.symbolsFor(text)
	if err != nil {
		return CoverageResult{}, err
	}
	decls := shallow.Extract(text, symbols)

	shallowBackend := shallowDeclBackend(cache, quarantine, fromEntry || contents != nil)
	foldedBackend := foldedDeclBackend(cache, quarantine, fromEntry || contents != nil)
	resolve := d.typeResolverWithLocal(shallowBackend, foldedBackend, decls)

	result := tast.Infer(decls, resolve)
	if hasEntry && contents == nil {
		entry.SetTAST(result)
	}

	hits, total := result.Coverage()
	return CoverageResult{Hits: hits, Total: total}, nil
}

// typeResolverWithLocal wraps foldedDeclFor with a check against decls
// already known to be defined in the same file, so a type doesn't need a
// round trip through the RNT to resolve against its own file's siblings.
// A cross-file type counts as resolved only once its folded declaration —
// its own shallow decl plus whatever its embedding chain promotes —
// actually computes, exercising the same folded-decl cache TypeDefinition
// populates.
func (d Deps) typeResolverWithLocal(shallowBackend, foldedBackend cachectx.Backend, decls []shallow.Decl) tast.TypeResolver {
	local := make(map[string]bool, len(decls))
	for _, decl := range decls {
		if decl.Kind == "type" {
			local[decl.Name] = true
		}
	}
	return func(typeName string) bool {
		if local[typeName] {
			return true
		}
		_, _, ok, _ := d.foldedDeclFor(shallowBackend, foldedBackend, typeName)
		return ok
	}
}
