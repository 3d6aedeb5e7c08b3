package declaration

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/tsdoc"
)

var (
	staticReadonlyPattern   = regexp.MustCompile(`^(?:(?:public|protected|private)\s+)?static\s+readonly\s+(\w+)\s*[:=]`)
	classDeclarationPattern = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?class\s+(\w+)`)
	enumMemberPattern       = regexp.MustCompile(`^(\w+)\s*=\s*(?:'([^']*)'|"([^"]*)")`)
	enumDeclarationPattern  = regexp.MustCompile(`^(?:export\s+)?(?:declare\s+)?(?:const\s+)?enum\s+(\w+)`)
)

// ExtractStaticFields parses path and returns every `static readonly` field
// of every class, in document order.
func ExtractStaticFields(ctx context.Context, path string, opts ParseOptions) ([]StaticFieldFact, error) {
	unit, err := Parse(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	return StaticFields(unit)
}

// ExtractEnumMembers parses path and returns every string-valued enum member,
// in document order.
func ExtractEnumMembers(ctx context.Context, path string, opts ParseOptions) ([]EnumMemberFact, error) {
	unit, err := Parse(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	return EnumMembers(unit)
}

// StaticFields extracts static field facts from an already parsed unit.
func StaticFields(unit *SourceUnit) ([]StaticFieldFact, error) {
	found := Walk(unit.Root(), unit.Source, StaticFieldKinds)
	if len(found) == 0 {
		return nil, errors.Errorf("%w: no classes in %s", ErrNoDeclarationsFound, unit.Path)
	}

	var facts []StaticFieldFact
	for _, f := range found {
		if Kind(f.Node.Kind()) != KindPropertyDeclaration {
			continue
		}

		fieldMatch := staticReadonlyPattern.FindStringSubmatch(unit.Text(f.Node))
		if fieldMatch == nil {
			continue
		}

		class := enclosingDeclaration(f.Node, KindClassDeclaration, KindAbstractClassDeclaration, KindClassExpression)
		if class == nil {
			continue
		}
		classMatch := classDeclarationPattern.FindStringSubmatch(renderedText(class, unit.Source))
		if classMatch == nil {
			continue
		}

		doc := classify(f.Comment, unit.Source)
		facts = append(facts, StaticFieldFact{
			ClassName:    classMatch[1],
			FieldName:    fieldMatch[1],
			IsDeprecated: doc.Deprecated(),
			FieldValue:   fieldValue(f.Node, unit.Source),
			Summary:      doc.Summary(),
		})
	}

	return mergeFacts(facts, func(f StaticFieldFact) string {
		return f.ClassName + "." + f.FieldName
	}, mergeStaticField), nil
}

// EnumMembers extracts enum member facts from an already parsed unit.
func EnumMembers(unit *SourceUnit) ([]EnumMemberFact, error) {
	found := Walk(unit.Root(), unit.Source, EnumKinds)
	if len(found) == 0 {
		return nil, errors.Errorf("%w: no enums in %s", ErrNoDeclarationsFound, unit.Path)
	}

	var facts []EnumMemberFact
	for _, f := range found {
		if Kind(f.Node.Kind()) != KindEnumMember {
			continue
		}

		memberMatch := enumMemberPattern.FindStringSubmatch(unit.Text(f.Node))
		if memberMatch == nil {
			continue
		}

		enum := enclosingDeclaration(f.Node, KindEnumDeclaration)
		if enum == nil {
			continue
		}
		enumMatch := enumDeclarationPattern.FindStringSubmatch(renderedText(enum, unit.Source))
		if enumMatch == nil {
			continue
		}

		value := memberMatch[2]
		if value == "" {
			value = memberMatch[3]
		}

		doc := classify(f.Comment, unit.Source)
		facts = append(facts, EnumMemberFact{
			EnumName:     enumMatch[1],
			MemberName:   memberMatch[1],
			MemberValue:  value,
			IsDeprecated: doc.Deprecated(),
			Summary:      doc.Summary(),
		})
	}

	return mergeFacts(facts, func(f EnumMemberFact) string {
		return f.EnumName + "." + f.MemberName
	}, mergeEnumMember), nil
}

// classify parses the doc comment, or returns an empty comment when there is none.
func classify(comment *CommentRange, source []byte) *tsdoc.Comment {
	if comment == nil {
		return tsdoc.Parse("")
	}
	return tsdoc.Parse(comment.Text(source))
}

// enclosingDeclaration returns the declaration owning a member: the parent
// of the member's body node (class_body, enum_body).
func enclosingDeclaration(member *sitter.Node, kinds ...Kind) *sitter.Node {
	body := member.Parent()
	if body == nil {
		return nil
	}
	decl := body.Parent()
	if decl == nil {
		return nil
	}
	for _, kind := range kinds {
		if Kind(decl.Kind()) == kind {
			return decl
		}
	}
	return nil
}

// renderedText returns the declaration's text including the export and
// declare keywords held by its wrappers.
func renderedText(decl *sitter.Node, source []byte) string {
	anchor := commentAnchor(decl)
	return string(source[anchor.StartByte():decl.EndByte()])
}

// fieldValue returns the initializer of a field, or its type annotation.
func fieldValue(field *sitter.Node, source []byte) string {
	if value := field.ChildByFieldName("value"); value != nil {
		return extractNodeText(value, source)
	}
	if typ := field.ChildByFieldName("type"); typ != nil {
		return strings.TrimSpace(strings.TrimPrefix(extractNodeText(typ, source), ":"))
	}
	return ""
}
