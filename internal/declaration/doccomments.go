package declaration

import (
	"context"
)

// DocComment is the doc comment of one declaration, as classified by tsdoc.
type DocComment struct {
	Kind         Kind     `yaml:"kind"`
	Name         string   `yaml:"name,omitempty"`
	Line         int      `yaml:"line"`
	IsDeprecated bool     `yaml:"deprecated"`
	Summary      string   `yaml:"summary,omitempty"`
	Modifiers    []string `yaml:"modifiers,omitempty"`
}

// ExtractDocComments parses path and returns the doc comment of every
// declaration that has one, in document order.
func ExtractDocComments(ctx context.Context, path string, opts ParseOptions) ([]DocComment, error) {
	unit, err := Parse(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	defer unit.Close()

	return DocComments(unit), nil
}

// DocComments returns the doc comments of an already parsed unit.
func DocComments(unit *SourceUnit) []DocComment {
	var comments []DocComment
	for _, f := range Walk(unit.Root(), unit.Source, DeclarationKinds) {
		if f.Comment == nil {
			continue
		}

		doc := classify(f.Comment, unit.Source)
		comment := DocComment{
			Kind:         Kind(f.Node.Kind()),
			Line:         int(f.Node.StartPosition().Row) + 1,
			IsDeprecated: doc.Deprecated(),
			Summary:      doc.Summary(),
			Modifiers:    doc.ModifierTags(),
		}
		if name := f.Node.ChildByFieldName("name"); name != nil {
			comment.Name = unit.Text(name)
		}
		comments = append(comments, comment)
	}
	return comments
}
