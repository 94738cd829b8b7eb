// Package folded computes the folded-declaration cache entries spec.md
// §2 describes: a type's shallow declaration plus every member it
// inherits through embedding, resolved across whatever other files define
// those embedded types. Pure function over a resolver callback — no
// cache, no file-table access; the core supplies the resolver and decides
// where the result lives.
package folded

import (
	"strings"

	"github.com/standardbeagle/langd/internal/pathutil"
	"github.com/standardbeagle/langd/internal/shallow"
)

// Decl is one type's folded declaration.
type Decl struct {
	Name         string
	DeclaredType string
	DefinedAt    pathutil.Path
	// Embeds lists the type names embedded directly in this type's
	// body, in source order.
	Embeds []string
	// Members maps the name of every type embedded directly or
	// transitively to that type's shallow declaration; the first
	// occurrence in depth-first order wins. The type's own named fields
	// and the individual fields of embedded types are not listed.
	Members map[string]shallow.Decl
}

// Resolver looks up the shallow declaration of a type by name, along with
// the file that defines it. Implemented by the core over the FNT/RNT plus
// shallow.Extract; absent from this package so folded stays a pure
// function of whatever resolver the caller supplies.
type Resolver func(typeName string) (decl shallow.Decl, at pathutil.Path, ok bool)

// Fold resolves target's embedded-type chain through resolve, synthesizing
// the member set a struct's embedding promotes. A type embedding itself,
// directly or transitively, is included in Embeds exactly once and does
// not recurse a second time.
func Fold(target shallow.Decl, at pathutil.Path, resolve Resolver) Decl {
	d := Decl{
		Name:         target.Name,
		DeclaredType: target.DeclaredType,
		DefinedAt:    at,
		Members:      make(map[string]shallow.Decl),
	}
	visited := map[string]bool{target.Name: true}
	d.Embeds = foldInto(target, d.Members, visited, resolve)
	return d
}

func foldInto(decl shallow.Decl, members map[string]shallow.Decl, visited map[string]bool, resolve Resolver) []string {
	var embeds []string
	for _, fieldName := range embeddedFieldNames(decl.Body) {
		embeds = append(embeds, fieldName)
		if visited[fieldName] {
			continue
		}
		visited[fieldName] = true

		embedDecl, _, ok := resolve(fieldName)
		if !ok {
			continue
		}
		if _, exists := members[fieldName]; !exists {
			members[fieldName] = embedDecl
		}
		for _, nested := range foldInto(embedDecl, members, visited, resolve) {
			if _, exists := members[nested]; !exists {
				if nestedDecl, _, ok := resolve(nested); ok {
					members[nested] = nestedDecl
				}
			}
		}
	}
	return embeds
}

// embeddedFieldNames scans a struct declaration's body text for lines
// that consist of exactly one identifier (optionally pointer-prefixed)
// with no field name of its own — Go's embedded-field syntax.
func embeddedFieldNames(body string) []string {
	lines := strings.Split(body, "\n")
	var names []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSuffix(line, ",")
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		line = strings.TrimPrefix(line, "*")
		if !isIdentifier(line) {
			continue
		}
		switch line {
		case "struct", "interface", "func":
			continue
		}
		names = append(names, line)
	}
	return names
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		isDigit := r >= '0' && r <= '9'
		if i == 0 && !isLetter {
			return false
		}
		if !isLetter && !isDigit && r != '.' {
			return false
		}
	}
	return true
}
