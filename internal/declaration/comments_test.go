package declaration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for comment range scanning:
// - Leading comments at offset 0 are collected without a preceding newline
// - Leading comments elsewhere start only after the first newline
// - Trailing comments stop at the first newline
// - Line and block comments are both reported with their kind
// - Unterminated block comments run to the end of the source
// - A shebang line is skipped at offset 0
// - IsDocComment() accepts /** and rejects /* and /**/

func TestLeadingCommentRanges_FileStart(t *testing.T) {
	t.Parallel()

	source := []byte("/** doc */ class A {}")
	ranges := leadingCommentRanges(source, 0)

	require.Len(t, ranges, 1)
	assert.Equal(t, "/** doc */", ranges[0].Text(source))
	assert.Equal(t, MultiLineComment, ranges[0].Kind)
	assert.True(t, ranges[0].IsDocComment(source))
}

func TestLeadingCommentRanges_AfterNewline(t *testing.T) {
	t.Parallel()

	source := []byte("a; /* same line */\n// line\n/** doc */\nb;")
	ranges := leadingCommentRanges(source, 2)

	require.Len(t, ranges, 2)
	assert.Equal(t, "// line", ranges[0].Text(source))
	assert.Equal(t, SingleLineComment, ranges[0].Kind)
	assert.True(t, ranges[0].HasTrailingNewLine)
	assert.Equal(t, "/** doc */", ranges[1].Text(source))
}

func TestTrailingCommentRanges(t *testing.T) {
	t.Parallel()

	source := []byte("a /** one */ /* two */\n/** three */ b")
	ranges := trailingCommentRanges(source, 1)

	require.Len(t, ranges, 2)
	assert.Equal(t, "/** one */", ranges[0].Text(source))
	assert.Equal(t, "/* two */", ranges[1].Text(source))
}

func TestLeadingCommentRanges_Unterminated(t *testing.T) {
	t.Parallel()

	source := []byte("/** never closed")
	ranges := leadingCommentRanges(source, 0)

	require.Len(t, ranges, 1)
	assert.Equal(t, len(source), ranges[0].End)
}

func TestLeadingCommentRanges_Shebang(t *testing.T) {
	t.Parallel()

	source := []byte("#!/usr/bin/env node\n/** doc */\nfoo();")
	ranges := leadingCommentRanges(source, 0)

	require.Len(t, ranges, 1)
	assert.Equal(t, "/** doc */", ranges[0].Text(source))
}

func TestIsDocComment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want bool
	}{
		{"/** doc */", true},
		{"/***/", true},
		{"/**/", false},
		{"/* plain */", false},
		{"// line", false},
	}

	for _, tt := range tests {
		source := []byte(tt.text)
		r := CommentRange{Pos: 0, End: len(source)}
		assert.Equal(t, tt.want, r.IsDocComment(source), tt.text)
	}
}
