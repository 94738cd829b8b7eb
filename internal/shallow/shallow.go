// Package shallow computes the shallow-declaration cache entries spec.md
// §2 describes: a symbol's signature and doc comment, extracted from one
// file's content without resolving imports or embedded-type inheritance.
// Pure function over (content, symbol records) — no cache, no I/O; the
// core decides when to call it and where the result lives.
package shallow

import (
	"strings"

	"github.com/standardbeagle/langd/internal/naming"
)

// Decl is one symbol's shallow declaration.
type Decl struct {
	Name string
	Kind string
	// Signature is the declaration header, up to (not including) the
	// opening brace or, for a bodyless var/const, the full statement.
	Signature string
	// Doc is the contiguous block of "//" comment lines immediately
	// preceding the declaration, with the comment markers stripped.
	Doc string
	// Body is the full source text spanned by the declaration,
	// including its block — folded-decl resolution reads this to find
	// embedded-field identifiers without a second parse.
	Body string
	// DeclaredType is a best-effort type name for the symbol: the
	// symbol's own name for a type declaration, the return type text for
	// a func/method with exactly one result, or the explicit type token
	// for a `var name Type` / `const name Type = ...` declaration. Empty
	// when no type could be read off the signature text.
	DeclaredType string
}

// Extract computes one Decl per symbol record, given the full file
// content the records' positions were computed against.
func Extract(content string, symbols []naming.SymbolRecord) []Decl {
	lines := strings.Split(content, "\n")
	decls := make([]Decl, 0, len(symbols))
	for _, sym := range symbols {
		decls = append(decls, extractOne(lines, sym))
	}
	return decls
}

func extractOne(lines []string, sym naming.SymbolRecord) Decl {
	body := sliceLines(lines, sym.StartLine, sym.EndLine)
	signature := firstSignatureLine(body)
	return Decl{
		Name:         sym.Name,
		Kind:         sym.Kind,
		Signature:    signature,
		Doc:          leadingDoc(lines, sym.StartLine),
		Body:         body,
		DeclaredType: declaredType(sym, signature),
	}
}

// sliceLines returns the text spanning 1-indexed lines [start, end]
// inclusive, clamped to the slice's bounds.
func sliceLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// firstSignatureLine returns body up to (not including) its first "{", or
// the whole first line if no brace appears on it.
func firstSignatureLine(body string) string {
	if idx := strings.IndexByte(body, '{'); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		return strings.TrimSpace(body[:idx])
	}
	return strings.TrimSpace(body)
}

// leadingDoc walks upward from the line immediately before start,
// collecting contiguous "//" comment lines, stopping at the first
// non-comment or blank line.
func leadingDoc(lines []string, start int) string {
	var collected []string
	for i := start - 2; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "//") {
			break
		}
		collected = append(collected, strings.TrimSpace(strings.TrimPrefix(line, "//")))
	}
	// collected was gathered bottom-up; reverse it.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

func declaredType(sym naming.SymbolRecord, signature string) string {
	switch sym.Kind {
	case "type":
		return sym.Name
	case "func", "method":
		return funcReturnType(signature)
	case "var", "const":
		return varDeclaredType(sym.Name, signature)
	default:
		return ""
	}
}

// funcReturnType pulls a single unnamed or named return type off a
// signature's trailing `) Type` / `) (Type)`. Multi-result signatures are
// left unresolved — a best-effort extraction has no obligation to handle
// every shape.
func funcReturnType(signature string) string {
	idx := strings.LastIndex(signature, ")")
	if idx < 0 || idx == len(signature)-1 {
		return ""
	}
	ret := strings.TrimSpace(signature[idx+1:])
	ret = strings.TrimPrefix(ret, "(")
	ret = strings.TrimSuffix(ret, ")")
	ret = strings.TrimSpace(ret)
	if ret == "" || strings.ContainsAny(ret, ",") {
		return ""
	}
	return ret
}

// varDeclaredType handles `var Name Type` and `var Name Type = value`
// (and the const equivalent), returning "" for `var Name = value`, where
// no explicit type token is present.
func varDeclaredType(name, signature string) string {
	fields := strings.Fields(signature)
	for i, f := range fields {
		if f == name && i+1 < len(fields) {
			next := fields[i+1]
			if next == "=" {
				return ""
			}
			return strings.TrimSuffix(next, "=")
		}
	}
	return ""
}
