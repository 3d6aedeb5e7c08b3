package declaration

import (
	"context"
	"fmt"
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
)

// ParseOptions controls how syntax errors are handled.
type ParseOptions struct {
	// Strict turns syntax errors into ErrParse instead of a warning.
	// Declaration files are often ambient or incomplete, so the default is lenient.
	Strict bool
}

// SourceUnit is one parsed declaration file: the syntax tree and the exact
// bytes it was parsed from. Comment offsets index Source directly.
type SourceUnit struct {
	Path   string
	Source []byte
	tree   *sitter.Tree
}

// Root returns the root node of the syntax tree.
func (u *SourceUnit) Root() *sitter.Node {
	return u.tree.RootNode()
}

// Text returns the source text spanned by node.
func (u *SourceUnit) Text(node *sitter.Node) string {
	return extractNodeText(node, u.Source)
}

// Close releases the tree. Nodes obtained from the unit are invalid afterwards.
func (u *SourceUnit) Close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}

var tsLanguage = sitter.NewLanguage(typescript.LanguageTypescript())

// Parse reads and parses a TypeScript declaration (.d.ts) or source (.ts) file.
func Parse(ctx context.Context, path string, opts ParseOptions) (*SourceUnit, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("%w: failed to read %s: %s", ErrParse, path, err)
	}
	return ParseSource(ctx, path, source, opts)
}

// ParseSource parses source as if it were read from path.
func ParseSource(ctx context.Context, path string, source []byte, opts ParseOptions) (*SourceUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLanguage); err != nil {
		return nil, errors.Errorf("%w: failed to load typescript grammar: %s", ErrParse, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.Errorf("%w: failed to parse typescript file: %s", ErrParse, path)
	}

	unit := &SourceUnit{Path: path, Source: source, tree: tree}
	root := unit.Root()

	if !hasDeclarations(root) {
		unit.Close()
		return nil, errors.Errorf("%w: no recognizable declarations in %s", ErrParse, path)
	}

	if root.HasError() {
		diagnostics := syntaxDiagnostics(root, path)
		if opts.Strict {
			unit.Close()
			return nil, errors.Errorf("%w: syntax errors for %s:\n%s", ErrParse, path, strings.Join(diagnostics, "\n"))
		}
		slogctx.FromCtx(ctx).WarnContext(ctx, "ignored syntax errors", "path", path, "count", len(diagnostics))
	}

	return unit, nil
}

// hasDeclarations reports whether the tree holds at least one named node
// that is not a comment.
func hasDeclarations(root *sitter.Node) bool {
	for i := uint(0); i < root.NamedChildCount(); i++ {
		if child := root.NamedChild(i); child != nil && child.Kind() != "comment" {
			return true
		}
	}
	return false
}

// syntaxDiagnostics formats every ERROR and MISSING node as path(line,col).
func syntaxDiagnostics(root *sitter.Node, path string) []string {
	var diagnostics []string
	walkTree(root, func(n *sitter.Node) bool {
		switch {
		case n.IsMissing():
			pos := n.StartPosition()
			diagnostics = append(diagnostics, fmt.Sprintf("%s(%d,%d): missing %s", path, pos.Row+1, pos.Column+1, n.Kind()))
			return false
		case n.IsError():
			pos := n.StartPosition()
			diagnostics = append(diagnostics, fmt.Sprintf("%s(%d,%d): unexpected syntax", path, pos.Row+1, pos.Column+1))
			return false
		}
		return n.HasError()
	})
	return diagnostics
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		walkTree(node.Child(i), visitor)
	}
}
