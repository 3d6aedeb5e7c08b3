package declaration

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Kind is a tree-sitter-typescript node kind.
type Kind string

const (
	KindClassDeclaration         Kind = "class_declaration"
	KindAbstractClassDeclaration Kind = "abstract_class_declaration"
	KindClassExpression          Kind = "class"
	KindPropertyDeclaration      Kind = "public_field_definition"
	KindEnumDeclaration          Kind = "enum_declaration"
	KindEnumMember               Kind = "enum_assignment"

	KindInterfaceDeclaration Kind = "interface_declaration"
	KindTypeAlias            Kind = "type_alias_declaration"
	KindFunctionDeclaration  Kind = "function_declaration"
	KindFunctionSignature    Kind = "function_signature"
	KindFunctionExpression   Kind = "function_expression"
	KindArrowFunction        Kind = "arrow_function"
	KindMethodDefinition     Kind = "method_definition"
	KindMethodSignature      Kind = "method_signature"
	KindAbstractMethod       Kind = "abstract_method_signature"
	KindPropertySignature    Kind = "property_signature"
	KindRequiredParameter    Kind = "required_parameter"
	KindOptionalParameter    Kind = "optional_parameter"
	KindTypeParameter        Kind = "type_parameter"
	KindVariableDeclarator   Kind = "variable_declarator"
	KindModule               Kind = "module"
	KindInternalModule       Kind = "internal_module"
	KindImportSpecifier      Kind = "import_specifier"
	KindExportSpecifier      Kind = "export_specifier"
	KindNamespaceImport      Kind = "namespace_import"
	KindPropertyAssignment   Kind = "pair"
	KindParenthesized        Kind = "parenthesized_expression"
)

// KindSet is an allow-list of node kinds.
type KindSet map[Kind]struct{}

// NewKindSet builds a KindSet from kinds.
func NewKindSet(kinds ...Kind) KindSet {
	set := make(KindSet, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}
	return set
}

// Has reports whether kind is in the set.
func (s KindSet) Has(kind Kind) bool {
	_, ok := s[kind]
	return ok
}

var (
	// StaticFieldKinds selects classes and their property declarations.
	StaticFieldKinds = NewKindSet(KindClassDeclaration, KindAbstractClassDeclaration, KindClassExpression, KindPropertyDeclaration)

	// EnumKinds selects enums and their members.
	EnumKinds = NewKindSet(KindEnumDeclaration, KindEnumMember)

	// DeclarationKinds selects every node kind that conventionally carries a
	// doc comment. Without the restriction the same comment would be found
	// for a declaration and for its first token.
	DeclarationKinds = NewKindSet(
		KindClassDeclaration, KindAbstractClassDeclaration, KindClassExpression, KindPropertyDeclaration,
		KindEnumDeclaration, KindEnumMember, KindInterfaceDeclaration, KindTypeAlias,
		KindFunctionDeclaration, KindFunctionSignature, KindFunctionExpression, KindArrowFunction,
		KindMethodDefinition, KindMethodSignature, KindAbstractMethod, KindPropertySignature,
		KindRequiredParameter, KindOptionalParameter, KindTypeParameter, KindVariableDeclarator,
		KindModule, KindInternalModule, KindImportSpecifier, KindExportSpecifier,
		KindNamespaceImport, KindPropertyAssignment,
	)

	// trailingCommentKinds may also take a doc comment placed after the
	// previous token on the same line, e.g. `f(/** doc */ a)`.
	trailingCommentKinds = NewKindSet(
		KindRequiredParameter, KindOptionalParameter, KindTypeParameter,
		KindFunctionExpression, KindArrowFunction, KindParenthesized,
	)

	// wrapperKinds hold a declaration together with its export/declare
	// keywords. The doc comment sits before the wrapper.
	wrapperKinds = NewKindSet("export_statement", "ambient_declaration")
)

// Found is a node of an allowed kind and the doc comment attached to it, if any.
type Found struct {
	Node    *sitter.Node
	Comment *CommentRange
}

// Walk visits root depth-first in document order and returns one Found per
// named node whose kind is in kinds. Children are always visited.
func Walk(root *sitter.Node, source []byte, kinds KindSet) []Found {
	var found []Found
	walkTree(root, func(n *sitter.Node) bool {
		if !n.IsNamed() || !kinds.Has(Kind(n.Kind())) {
			return true
		}

		f := Found{Node: n}
		if comments := docCommentRanges(n, source); len(comments) > 0 {
			comment := comments[0]
			f.Comment = &comment
		}
		found = append(found, f)
		return true
	})
	return found
}

// docCommentRanges returns the "/** */" comments attached to node.
func docCommentRanges(node *sitter.Node, source []byte) []CommentRange {
	anchor := commentAnchor(node)
	pos := fullStart(anchor)

	var ranges []CommentRange
	if trailingCommentKinds.Has(Kind(node.Kind())) {
		ranges = append(ranges, trailingCommentRanges(source, pos)...)
	}
	ranges = append(ranges, leadingCommentRanges(source, pos)...)

	docs := ranges[:0]
	for _, r := range ranges {
		if r.IsDocComment(source) {
			docs = append(docs, r)
		}
	}
	return docs
}

// commentAnchor climbs from node through export/declare wrappers.
func commentAnchor(node *sitter.Node) *sitter.Node {
	anchor := node
	for parent := anchor.Parent(); parent != nil && wrapperKinds.Has(Kind(parent.Kind())); parent = anchor.Parent() {
		anchor = parent
	}
	return anchor
}

// fullStart returns the offset right after the token preceding node,
// skipping comments. That is where the node's leading trivia begins.
func fullStart(node *sitter.Node) int {
	for n := node; n != nil; n = n.Parent() {
		for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
			if !prev.IsExtra() {
				return int(prev.EndByte())
			}
		}
	}
	return 0
}
