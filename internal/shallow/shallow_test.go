package shallow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/langd/internal/naming"
)

func TestExtract_FunctionWithDocComment(t *testing.T) {
	content := "package sample\n\n// NewWidget builds a Widget.\nfunc NewWidget(name string) *Widget {\n\treturn nil\n}\n"
	symbols := []naming.SymbolRecord{{Name: "NewWidget", Kind: "func", StartLine: 4, EndLine: 6}}

	decls := Extract(content, symbols)
	require.Len(t, decls, 1)
	d := decls[0]
	assert.Equal(t, "func NewWidget(name string) *Widget", d.Signature)
	assert.Equal(t, "NewWidget builds a Widget.", d.Doc)
	assert.Equal(t, "*Widget", d.DeclaredType)
}

func TestExtract_TypeDeclaredTypeIsItsOwnName(t *testing.T) {
	content := "package sample\n\ntype Widget struct {\n\tName string\n}\n"
	symbols := []naming.SymbolRecord{{Name: "Widget", Kind: "type", StartLine: 3, EndLine: 5}}

	decls := Extract(content, symbols)
	require.Len(t, decls, 1)
	assert.Equal(t, "Widget", decls[0].DeclaredType)
	assert.Contains(t, decls[0].Body, "Name string")
}

func TestExtract_VarWithExplicitType(t *testing.T) {
	content := "package sample\n\nvar Timeout time.Duration = 5\n"
	symbols := []naming.SymbolRecord{{Name: "Timeout", Kind: "var", StartLine: 3, EndLine: 3}}

	decls := Extract(content, symbols)
	require.Len(t, decls, 1)
	assert.Equal(t, "time.Duration", decls[0].DeclaredType)
}

func TestExtract_VarWithoutExplicitTypeHasNoDeclaredType(t *testing.T) {
	content := "package sample\n\nvar Count = 5\n"
	symbols := []naming.SymbolRecord{{Name: "Count", Kind: "var", StartLine: 3, EndLine: 3}}

	decls := Extract(content, symbols)
	require.Len(t, decls, 1)
	assert.Equal(t, "", decls[0].DeclaredType)
}

func TestExtract_NoLeadingCommentHasEmptyDoc(t *testing.T) {
	content := "package sample\n\nfunc Run() {}\n"
	symbols := []naming.SymbolRecord{{Name: "Run", Kind: "func", StartLine: 3, EndLine: 3}}

	decls := Extract(content, symbols)
	require.Len(t, decls, 1)
	assert.Equal(t, "", decls[0].Doc)
}

func TestExtract_MultipleCommentLinesJoinInOrder(t *testing.T) {
	content := "package sample\n\n// Run does a thing.\n// It returns nothing.\nfunc Run() {}\n"
	symbols := []naming.SymbolRecord{{Name: "Run", Kind: "func", StartLine: 5, EndLine: 5}}

	decls := Extract(content, symbols)
	require.Len(t, decls, 1)
	assert.Equal(t, "Run does a thing.\nIt returns nothing.", decls[0].Doc)
}
