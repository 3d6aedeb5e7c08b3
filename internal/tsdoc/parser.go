// Package tsdoc classifies the structure of /** */ documentation comments.
//
// Only the section layout is recovered: the summary, the block sections
// introduced by block tags such as @deprecated, and the modifier tags.
// Malformed input never fails; anything that cannot be read as a tag is
// kept as prose.
package tsdoc

import (
	"strings"
)

// Block is a section introduced by a block tag.
type Block struct {
	Tag     string
	Content string
}

// Comment is a classified documentation comment.
type Comment struct {
	summary   string
	blocks    []Block
	modifiers []string
}

// Summary returns the text before the first block tag.
func (c *Comment) Summary() string {
	return c.summary
}

// Blocks returns the block sections in comment order.
func (c *Comment) Blocks() []Block {
	return c.blocks
}

// ModifierTags returns the modifier tags in comment order, without duplicates.
func (c *Comment) ModifierTags() []string {
	return c.modifiers
}

// HasModifier reports whether the comment carries the modifier tag.
func (c *Comment) HasModifier(tag string) bool {
	for _, m := range c.modifiers {
		if m == tag {
			return true
		}
	}
	return false
}

// Block returns the first section introduced by tag.
func (c *Comment) Block(tag string) (Block, bool) {
	for _, b := range c.blocks {
		if b.Tag == tag {
			return b, true
		}
	}
	return Block{}, false
}

// Deprecated reports whether the comment has a @deprecated block.
func (c *Comment) Deprecated() bool {
	_, ok := c.Block(TagDeprecated)
	return ok
}

// DeprecationMessage returns the content of the @deprecated block.
func (c *Comment) DeprecationMessage() string {
	b, _ := c.Block(TagDeprecated)
	return b.Content
}

// Parse classifies a comment. text may include the /** */ delimiters.
func Parse(text string) *Comment {
	p := &parser{comment: &Comment{}}
	p.current = &p.summary

	inFence := false
	for _, line := range contentLines(text) {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			p.writeLine(line)
			continue
		}
		if inFence {
			p.writeLine(line)
			continue
		}
		p.scanLine(line)
	}
	p.flush()

	return p.comment
}

type parser struct {
	comment *Comment

	summary strings.Builder
	section strings.Builder
	tag     string
	current *strings.Builder
}

func (p *parser) writeLine(line string) {
	p.current.WriteString(line)
	p.current.WriteByte('\n')
}

// scanLine splits a line at every block or modifier tag that is not escaped,
// inside an inline tag, or inside a code span.
func (p *parser) scanLine(line string) {
	var text strings.Builder
	inCode := false
	inlineDepth := 0

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			text.WriteByte(c)
			text.WriteByte(line[i+1])
			i++
			continue
		case c == '`':
			inCode = !inCode
		case inCode:
		case c == '{' && i+1 < len(line) && line[i+1] == '@':
			inlineDepth++
		case c == '}' && inlineDepth > 0:
			inlineDepth--
		case c == '@' && inlineDepth == 0 && (i == 0 || isSpace(line[i-1])):
			name := tagName(line[i:])
			if kind, ok := LookupTag(name); ok {
				p.writeText(text.String())
				text.Reset()
				if kind == BlockTag {
					p.startBlock(name)
				} else {
					p.addModifier(name)
				}
				i += len(name) - 1
				continue
			}
		}
		text.WriteByte(c)
	}

	p.writeText(text.String())
	p.endLine()
}

// writeText appends text to the current line of the current section.
func (p *parser) writeText(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	p.current.WriteString(s)
}

func (p *parser) endLine() {
	if p.current.Len() > 0 {
		p.current.WriteByte('\n')
	}
}

func (p *parser) startBlock(tag string) {
	p.flush()
	p.tag = tag
	p.current = &p.section
}

func (p *parser) addModifier(tag string) {
	if !p.comment.HasModifier(tag) {
		p.comment.modifiers = append(p.comment.modifiers, tag)
	}
}

// flush closes the section being written.
func (p *parser) flush() {
	if p.tag == "" {
		p.comment.summary = normalize(p.summary.String())
		return
	}
	p.comment.blocks = append(p.comment.blocks, Block{
		Tag:     p.tag,
		Content: normalize(p.section.String()),
	})
	p.section.Reset()
	p.tag = ""
}

// contentLines strips the comment delimiters and the leading "*" gutter.
func contentLines(text string) []string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/**") && strings.HasSuffix(text, "*/") && len(text) >= 5 {
		text = text[3 : len(text)-2]
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "*") {
			trimmed = strings.TrimPrefix(trimmed[1:], " ")
		} else if i == 0 {
			trimmed = strings.TrimPrefix(line, " ")
		} else {
			trimmed = line
		}
		lines[i] = strings.TrimRight(trimmed, " \t\r")
	}
	return lines
}

// tagName reads "@name" from the start of s. It returns "" when s does not
// hold a well-formed tag name.
func tagName(s string) string {
	end := 1
	for end < len(s) && isTagChar(s[end], end == 1) {
		end++
	}
	if end == 1 {
		return ""
	}
	if end < len(s) && !isSpace(s[end]) && s[end] != '{' {
		return ""
	}
	return s[:end]
}

func isTagChar(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// normalize trims blank lines around a section and trailing space on each line.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
