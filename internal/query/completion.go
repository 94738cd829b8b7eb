package query

import (
	"strings"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/idcodec"
	"github.com/standardbeagle/langd/internal/ids"
	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/shallow"
)

// CompletionItem is one ranked completion candidate. ID is the base-63
// composite (defining FileID + local symbol ordinal) idcodec encodes for
// this name's current definition, empty when the name resolves to no
// disk-backed definition yet (a symbol only an open, unsaved entry
// defines — RNT never indexes those, per spec.md Invariant 2). CompletionResolve
// accepts either this ID or the bare name.
type CompletionItem struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
	ID         string  `json:"id,omitempty"`
}

// Completion returns candidate names for the partial identifier ending at
// line,col, ranked by the symbol-index env's fuzzy similarity when
// useRanked is true, alphabetical otherwise. Doesn't touch the shallow/
// folded caches at all — the symbol-index env is the sole data source, so
// no quarantine is needed even though the request may carry unsaved
// content (only the partial token text matters, never cached anywhere).
func Completion(d Deps, path pathutil.Path, contents *string, line, col int, useRanked bool) ([]CompletionItem, error) {
	text, _, err := d.contentFor(path, contents)
	if err != nil {
		return nil, err
	}
	prefix := partialToken(text, line, col)

	if !useRanked {
		items := make([]CompletionItem, 0)
		for _, name := range d.Index.Names() {
			if prefix == "" || strings.HasPrefix(name, prefix) {
				items = append(items, CompletionItem{Name: name, Similarity: 0, ID: d.encodeSymbolRef(name)})
			}
		}
		return items, nil
	}

	matches := d.Index.Rank(prefix, 0.3, 50)
	items := make([]CompletionItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, CompletionItem{Name: m.Name, Similarity: m.Similarity, ID: d.encodeSymbolRef(m.Name)})
	}
	return items, nil
}

// encodeSymbolRef resolves name's current disk-backed definition through
// the RNT/FNT and returns idcodec's compact FileID+ordinal encoding for
// it, or "" if name has no disk-backed definition (RNT never indexes a
// symbol an open entry alone defines).
func (d Deps) encodeSymbolRef(name string) string {
	at, ok := d.RNT.Lookup(name)
	if !ok {
		return ""
	}
	info, ok := d.FNT.Get(at)
	if !ok {
		return ""
	}
	for _, sym := range info.Records() {
		if sym.Name == name {
			return idcodec.EncodeComposite(d.FNT.FileID(at), uint32(sym.ID))
		}
	}
	return ""
}

// resolveSymbolRef decodes id, previously handed to the editor as a
// CompletionItem.ID, back to the exact symbol occurrence it named — the
// defining path and the record itself — rather than a name the RNT might
// since have repointed at a different file. ok is false if id doesn't
// decode or no longer names a live symbol.
func (d Deps) resolveSymbolRef(id string) (pathutil.Path, naming.SymbolRecord, bool) {
	fileID, ordinal, err := idcodec.DecodeComposite(id)
	if err != nil {
		return pathutil.Path{}, naming.SymbolRecord{}, false
	}
	path, ok := d.FNT.Path(fileID)
	if !ok {
		return pathutil.Path{}, naming.SymbolRecord{}, false
	}
	info, ok := d.FNT.GetByID(fileID)
	if !ok {
		return pathutil.Path{}, naming.SymbolRecord{}, false
	}
	for _, sym := range info.Records() {
		if sym.ID == ids.SymbolID(ordinal) {
			return path, sym, true
		}
	}
	return pathutil.Path{}, naming.SymbolRecord{}, false
}

// partialToken extracts the run of identifier characters immediately to
// the left of (line, col) — the token the editor is completing.
func partialToken(text string, line, col int) string {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	lineText := lines[line-1]
	if col < 0 {
		col = 0
	}
	if col > len(lineText) {
		col = len(lineText)
	}
	start := col
	for start > 0 && isIdentByte(lineText[start-1]) {
		start--
	}
	return lineText[start:col]
}

func isIdentByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// CompletionResolve looks up a symbol's shallow declaration given either a
// bare name or one of Completion's idcodec-encoded composite IDs. An ID
// pins the exact defining occurrence Completion offered, immune to a
// same-named symbol elsewhere overtaking the RNT's last-writer-wins
// mapping between the two requests; a bare name (the pre-idcodec wire
// shape, still accepted) resolves through the RNT as before. Per spec.md
// §4.2 this never touches an open entry's unsaved content — it always
// answers from RNT+disk — so it needs no quarantine and writes straight
// into the live shallow-decl cache.
func CompletionResolve(d Deps, cache *cachectx.Context, symbol string) (shallow.Decl, bool, error) {
	var at pathutil.Path
	var ok bool
	symbolName := symbol
	if resolvedPath, sym, decoded := d.resolveSymbolRef(symbol); decoded {
		at, ok, symbolName = resolvedPath, true, sym.Name
	} else {
		at, ok = d.RNT.Lookup(symbol)
	}
	if !ok {
		return shallow.Decl{}, false, nil
	}
	text, _, err := d.contentFor(at, nil)
	if err != nil {
		return shallow.Decl{}, false, err
	}
	backend := cache.Layer(cachectx.LayerShallowDecl)
	return d.shallowDeclFor(backend, at, text, symbolName)
}

// CompletionResolveLocation resolves the shallow declaration of the symbol
// at a cursor position — the same quarantine-using shape as Hover, kept
// distinct per spec.md §6's separate request tag.
func CompletionResolveLocation(d Deps, cache *cachectx.Context, quarantine *cachectx.QuarantineSession, path pathutil.Path, contents *string, line, col int) (shallow.Decl, bool, error) {
	text, fromEntry, err := d.contentFor(path, contents)
	if err != nil {
		return shallow.Decl{}, false, err
	}
	symbols, err := d.symbolsFor(text)
	if err != nil {
		return shallow.Decl{}, false, err
	}
	sym, ok := symbolAtPosition(symbols, line, col)
	if !ok {
		return shallow.Decl{}, false, nil
	}
	backend := shallowDeclBackend(cache, quarantine, fromEntry || contents != nil)
	return d.shallowDeclForSymbols(backend, path, text, symbols, sym.Name)
}
