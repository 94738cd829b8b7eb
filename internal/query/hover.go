package query

import (
	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/shallow"
)

// HoverResult is the signature and doc comment for the symbol under the
// cursor, empty if no symbol covers that position.
type HoverResult struct {
	Found     bool   `json:"found"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Signature string `json:"signature,omitempty"`
	Doc       string `json:"doc,omitempty"`
}

// Hover resolves the shallow declaration of the symbol at line,col within
// path. Uses quarantine per spec.md §4.2 since the request may carry
// unsaved content — a write into the shallow-decl cache from that content
// must not leak into what other entries' queries observe.
func Hover(d Deps, cache *cachectx.Context, quarantine *cachectx.QuarantineSession, path pathutil.Path, contents *string, line, col int) (HoverResult, error) {
	text, fromEntry, err := d.contentFor(path, contents)
	if err != nil {
		return HoverResult{}, err
	}
	symbols, err := d.symbolsFor(text)
	if err != nil {
		return HoverResult{}, err
	}
	sym, ok := symbolAtPosition(symbols, line, col)
	if !ok {
		return HoverResult{}, nil
	}

	backend := shallowDeclBackend(cache, quarantine, fromEntry || contents != nil)
	decl, ok, err := d.shallowDeclForSymbols(backend, path, text, symbols, sym.Name)
	if err != nil || !ok {
		return HoverResult{}, err
	}
	return hoverFromDecl(decl), nil
}

func hoverFromDecl(decl shallow.Decl) HoverResult {
	return HoverResult{Found: true, Name: decl.Name, Kind: decl.Kind, Signature: decl.Signature, Doc: decl.Doc}
}
