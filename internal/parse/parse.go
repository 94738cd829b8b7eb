// Package parse turns file contents into the naming.FileInfo the Forward
// Naming Table needs, using a tree-sitter Go grammar. It implements
// backlog.Parser directly: the change-backlog processor holds a *Parser as
// its sole parse dependency and never touches tree-sitter itself.
//
// This daemon is Go-only (spec.md §1's scope excludes every other
// language the teacher's parser supports), so unlike a multi-language
// parser there is exactly one grammar, one query, and no file-extension
// dispatch.
package parse

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/standardbeagle/langd/internal/naming"
	"github.com/standardbeagle/langd/internal/pathutil"
)

const goQuery = `
(function_declaration name: (identifier) @function.name) @function
(method_declaration
    receiver: (parameter_list) @method.receiver
    name: (field_identifier) @method.name) @method
(type_declaration
    (type_spec name: (type_identifier) @type.name)) @type
(const_declaration
    (const_spec name: (identifier) @const.name)) @const
(var_declaration
    (var_spec name: (identifier) @var.name)) @var
(import_spec path: (interpreted_string_literal) @import.path) @import
`

// Parser wraps one tree-sitter parser and compiled query for Go source.
// Not safe for concurrent use across goroutines — the daemon's single
// request loop owns it exclusively, same as every other core collaborator.
type Parser struct {
	language *tree_sitter.Language
	inner    *tree_sitter.Parser
	query    *tree_sitter.Query
}

// NewParser compiles the Go grammar and query once. Returns an error if
// either fails, rather than silently disabling Go parsing the way the
// teacher's multi-language setup tolerates a missing grammar.
func NewParser() (*Parser, error) {
	language := tree_sitter.NewLanguage(tree_sitter_go.Language())
	inner := tree_sitter.NewParser()
	if err := inner.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("parse: set go language: %w", err)
	}

	query, err := tree_sitter.NewQuery(language, goQuery)
	if err != nil {
		return nil, fmt.Errorf("parse: compile go query: %w", err)
	}

	return &Parser{language: language, inner: inner, query: query}, nil
}

// Close releases the underlying tree-sitter resources.
func (p *Parser) Close() {
	if p.query != nil {
		p.query.Close()
	}
	if p.inner != nil {
		p.inner.Close()
	}
}

// ParseFileInfo parses contents and extracts the top-level symbols the FNT
// tracks: functions, methods, types, consts, and vars. It implements
// backlog.Parser.
func (p *Parser) ParseFileInfo(path pathutil.Path, contents []byte) (*naming.FileInfo, error) {
	tree := p.inner.Parse(contents, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse: %s: tree-sitter returned no tree", path)
	}
	defer tree.Close()

	records := extractSymbols(p.query, tree.RootNode(), contents)
	return &naming.FileInfo{Path: path, Symbols: records}, nil
}

// ParseTree parses contents and returns the raw tree for callers that need
// more than the top-level symbol list — query handlers set this directly
// on an entrytable.Entry via SetAST. The caller owns the returned tree and
// must Close it once it is evicted or replaced.
func (p *Parser) ParseTree(contents []byte) (*tree_sitter.Tree, error) {
	tree := p.inner.Parse(contents, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse: tree-sitter returned no tree")
	}
	return tree, nil
}

func extractSymbols(query *tree_sitter.Query, root *tree_sitter.Node, content []byte) []naming.SymbolRecord {
	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(query, root, content)
	captureNames := query.CaptureNames()

	var records []naming.SymbolRecord
	names := make(map[string]string, 4)

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		for k := range names {
			delete(names, k)
		}
		for _, c := range match.Captures {
			capName := captureNames[c.Index]
			if isNameCapture(capName) {
				names[capName] = nodeText(c.Node, content)
			}
		}

		for _, c := range match.Captures {
			capName := captureNames[c.Index]
			kind, nameCapture := symbolKindFor(capName)
			if kind == "" {
				continue
			}
			name := names[nameCapture]
			if name == "" {
				continue
			}
			records = append(records, recordFor(&c.Node, kind, name))
		}
	}

	return records
}

func isNameCapture(capName string) bool {
	switch capName {
	case "function.name", "method.name", "type.name", "const.name", "var.name":
		return true
	default:
		return false
	}
}

// symbolKindFor maps a top-level query capture to the naming.SymbolRecord
// kind it produces, plus the name-capture key that holds its identifier.
func symbolKindFor(capName string) (kind, nameCapture string) {
	switch capName {
	case "function":
		return "func", "function.name"
	case "method":
		return "method", "method.name"
	case "type":
		return "type", "type.name"
	case "const":
		return "const", "const.name"
	case "var":
		return "var", "var.name"
	default:
		return "", ""
	}
}

func recordFor(node *tree_sitter.Node, kind, name string) naming.SymbolRecord {
	start := node.StartPosition()
	end := node.EndPosition()
	return naming.SymbolRecord{
		Name:      name,
		Kind:      kind,
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
	}
}

func nodeText(node tree_sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}
