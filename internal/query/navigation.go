package query

import (
	"sort"
	"strings"

	"github.com/standardbeagle/langd/internal/cachectx"
	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/shallow"
)

// DocumentHighlight returns every occurrence, within path's current text
// only, of the identifier under the cursor.
func DocumentHighlight(d Deps, path pathutil.Path, contents *string, line, col int) ([]Location, error) {
	text, _, err := d.contentFor(path, contents)
	if err != nil {
		return nil, err
	}
	word := wordAt(text, line, col)
	if word == "" {
		return nil, nil
	}
	return occurrencesOf(path, text, word), nil
}

// wordAt returns the full identifier token spanning (line, col) — unlike
// partialToken, it looks both left and right of the cursor.
func wordAt(text string, line, col int) string {
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
	start, end := col, col
	for start > 0 && isIdentByte(lineText[start-1]) {
		start--
	}
	for end < len(lineText) && isIdentByte(lineText[end]) {
		end++
	}
	return lineText[start:end]
}

// occurrencesOf scans text line by line for whole-token matches of word —
// an identifier bounded on both sides by a non-identifier byte (or line
// edge), so a match of "Foo" never fires inside "FooBar".
func occurrencesOf(path pathutil.Path, text, word string) []Location {
	var out []Location
	for i, lineText := range strings.Split(text, "\n") {
		line := i + 1
		start := 0
		for {
			idx := strings.Index(lineText[start:], word)
			if idx < 0 {
				break
			}
			col := start + idx
			end := col + len(word)
			leftOK := col == 0 || !isIdentByte(lineText[col-1])
			rightOK := end == len(lineText) || !isIdentByte(lineText[end])
			if leftOK && rightOK {
				out = append(out, Location{Path: path, StartLine: line, StartCol: col + 1, EndLine: line, EndCol: end})
			}
			start = col + 1
		}
	}
	return out
}

// SignatureHelp resolves the shallow declaration of the call target
// enclosing (line, col), returning its parameter-list signature.
func SignatureHelp(d Deps, cache *cachectx.Context, quarantine *cachectx.QuarantineSession, path pathutil.Path, contents *string, line, col int) (HoverResult, error) {
	text, fromEntry, err := d.contentFor(path, contents)
	if err != nil {
		return HoverResult{}, err
	}
	target := callTargetAt(text, line, col)
	if target == "" {
		return HoverResult{}, nil
	}

	symbols, err := d.symbolsFor(text)
	if err != nil {
		return HoverResult{}, err
	}
	backend := shallowDeclBackend(cache, quarantine, fromEntry || contents != nil)
	if decl, ok, err := d.shallowDeclForSymbols(backend, path, text, symbols, target); err == nil && ok {
		return hoverFromDecl(decl), nil
	}

	// The call target isn't defined in this file — fall through to a
	// cross-file lookup via RNT, same as Definition.
	at, ok := d.RNT.Lookup(target)
	if !ok {
		return HoverResult{}, nil
	}
	otherText, _, err := d.contentFor(at, nil)
	if err != nil {
		return HoverResult{}, err
	}
	decl, ok, err := d.shallowDeclFor(cache.Layer(cachectx.LayerShallowDecl), at, otherText, target)
	if err != nil || !ok {
		return HoverResult{}, err
	}
	return hoverFromDecl(decl), nil
}

// callTargetAt walks left from (line, col) past an unmatched "(" to the
// identifier that opens it — the function being called at the cursor.
func callTargetAt(text string, line, col int) string {
	lines := strings.Split(text, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	lineText := lines[line-1]
	if col > len(lineText) {
		col = len(lineText)
	}
	depth := 0
	for i := col - 1; i >= 0; i-- {
		switch lineText[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				return wordAt(lineText, 1, i)
			}
			depth--
		}
	}
	return ""
}

// Definition resolves the defining location of the symbol named at the
// cursor, via RNT+FNT. If the defining file has an open entry, its
// contents are consulted instead of disk (Invariant 2) — d.contentFor
// already applies that fallback order.
func Definition(d Deps, path pathutil.Path, contents *string, line, col int) (Location, bool, error) {
	text, _, err := d.contentFor(path, contents)
	if err != nil {
		return Location{}, false, err
	}
	word := wordAt(text, line, col)
	if word == "" {
		return Location{}, false, nil
	}
	return d.definitionOf(word)
}

func (d Deps) definitionOf(name string) (Location, bool, error) {
	at, ok := d.RNT.Lookup(name)
	if !ok {
		return Location{}, false, nil
	}
	defText, _, err := d.contentFor(at, nil)
	if err != nil {
		return Location{}, false, err
	}
	symbols, err := d.symbolsFor(defText)
	if err != nil {
		return Location{}, false, err
	}
	for _, sym := range symbols {
		if sym.Name == name {
			return locationOf(at, sym), true, nil
		}
	}
	return Location{}, false, nil
}

// TypeDefinition resolves the defining location of the declared type of
// the symbol at the cursor (e.g. jump from a variable to its struct
// type). The declared type is resolved through the folded-decl cache —
// its own shallow decl plus whatever its embedding chain promotes — not
// a bare shallow lookup, since that cache's whole purpose is to be the
// one place a declared type's resolution is computed and memoized.
func TypeDefinition(d Deps, cache *cachectx.Context, quarantine *cachectx.QuarantineSession, path pathutil.Path, contents *string, line, col int) (Location, bool, error) {
	text, fromEntry, err := d.contentFor(path, contents)
	if err != nil {
		return Location{}, false, err
	}
	word := wordAt(text, line, col)
	if word == "" {
		return Location{}, false, nil
	}
	symbols, err := d.symbolsFor(text)
	if err != nil {
		return Location{}, false, err
	}
	sym, ok := symbolAtPosition(symbols, line, col)
	if !ok {
		for _, s := range symbols {
			if s.Name == word {
				sym = s
				ok = true
				break
			}
		}
	}
	if !ok {
		return Location{}, false, nil
	}
	decl := shallow.Extract(text, []naming.SymbolRecord{sym})[0]
	if decl.DeclaredType == "" {
		return Location{}, false, nil
	}

	shallowBackend := shallowDeclBackend(cache, quarantine, fromEntry || contents != nil)
	foldedBackend := foldedDeclBackend(cache, quarantine, fromEntry || contents != nil)
	fd, _, ok, err := d.foldedDeclFor(shallowBackend, foldedBackend, decl.DeclaredType)
	if err != nil || !ok {
		return Location{}, false, nil
	}
	return d.definitionOf(fd.Name)
}

// DocumentSymbolNode is one entry in the outline tree DocumentSymbol
// returns: a symbol plus whichever other symbols' ranges it encloses.
type DocumentSymbolNode struct {
	Name     string                `json:"name"`
	Kind     string                `json:"kind"`
	Location Location              `json:"location"`
	Children []DocumentSymbolNode `json:"children,omitempty"`
}

// DocumentSymbol returns path's symbols shaped into a tree by enclosing
// range. Reads the open entry's fresh content directly when one exists
// (entry-local), the FNT's already-parsed records otherwise — no
// quarantine, since neither source ever touches the shared caches.
func DocumentSymbol(d Deps, path pathutil.Path) ([]DocumentSymbolNode, error) {
	var symbols []naming.SymbolRecord
	if e, ok := d.Entries.Get(path); ok {
		parsed, err := d.symbolsFor(e.Contents())
		if err != nil {
			return nil, err
		}
		symbols = parsed
	} else if info, ok := d.FNT.Get(path); ok {
		symbols = info.Symbols
	}
	return shapeSymbolTree(path, symbols), nil
}

func shapeSymbolTree(path pathutil.Path, symbols []naming.SymbolRecord) []DocumentSymbolNode {
	sorted := make([]naming.SymbolRecord, len(symbols))
	copy(sorted, symbols)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartLine != sorted[j].StartLine {
			return sorted[i].StartLine < sorted[j].StartLine
		}
		return sorted[i].EndLine > sorted[j].EndLine
	})
	return buildSiblings(path, sorted)
}

// buildSiblings groups a range-sorted run of records into a forest: each
// record adopts every following record whose range it encloses as a
// child, recursively, until a record outside its range ends the group.
func buildSiblings(path pathutil.Path, recs []naming.SymbolRecord) []DocumentSymbolNode {
	var out []DocumentSymbolNode
	i := 0
	for i < len(recs) {
		cur := recs[i]
		loc := locationOf(path, cur)
		j := i + 1
		for j < len(recs) && encloses(loc, locationOf(path, recs[j])) {
			j++
		}
		out = append(out, DocumentSymbolNode{
			Name:     cur.Name,
			Kind:     cur.Kind,
			Location: loc,
			Children: buildSiblings(path, recs[i+1:j]),
		})
		i = j
	}
	return out
}

func encloses(outer, inner Location) bool {
	if outer.StartLine > inner.StartLine || (outer.StartLine == inner.StartLine && outer.StartCol > inner.StartCol) {
		return false
	}
	if outer.EndLine < inner.EndLine || (outer.EndLine == inner.EndLine && outer.EndCol < inner.EndCol) {
		return false
	}
	return true
}
