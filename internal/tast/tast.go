// Package tast computes the per-entry typed-AST the data model places
// directly on entrytable.Entry (see spec.md §2's data model and §4.1's
// "route cache reads ... first to the per-entry AST / TAST"). It is
// deliberately minimal type inference, exactly as spec.md §1 scopes it:
// enough to answer type-coverage and resolve a declared type's name, not
// a real type checker.
package tast

import (
	"github.com/standardbeagle/langd/internal/shallow"
)

// Occurrence records whether one symbol's declared type could be
// resolved against the program's folded declarations.
type Occurrence struct {
	Name         string
	DeclaredType string
	Resolved     bool
}

// TAST is one file's typed-AST: every symbol the shallow pass found, each
// annotated with whether its declared type resolves to a known
// declaration elsewhere in the program.
type TAST struct {
	Occurrences []Occurrence
}

// TypeResolver reports whether typeName names a declaration the program
// knows about — implemented by the core over the folded-decl cache.
type TypeResolver func(typeName string) bool

// Infer builds a TAST from one file's shallow declarations. A decl with
// no DeclaredType (e.g. a `var x = 5` with no explicit type) is recorded
// but excluded from the coverage ratio entirely, since there is nothing
// to resolve.
func Infer(decls []shallow.Decl, resolve TypeResolver) *TAST {
	t := &TAST{Occurrences: make([]Occurrence, 0, len(decls))}
	for _, d := range decls {
		if d.DeclaredType == "" {
			t.Occurrences = append(t.Occurrences, Occurrence{Name: d.Name, DeclaredType: ""})
			continue
		}
		t.Occurrences = append(t.Occurrences, Occurrence{
			Name:         d.Name,
			DeclaredType: d.DeclaredType,
			Resolved:     resolve(d.DeclaredType),
		})
	}
	return t
}

// Coverage reports the hit/miss ratio over every occurrence that had a
// declared type to resolve in the first place.
func (t *TAST) Coverage() (hits, total int) {
	for _, occ := range t.Occurrences {
		if occ.DeclaredType == "" {
			continue
		}
		total++
		if occ.Resolved {
			hits++
		}
	}
	return hits, total
}
