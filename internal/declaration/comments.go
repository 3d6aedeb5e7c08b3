package declaration

import (
	"unicode"
	"unicode/utf8"
)

// CommentKind distinguishes // comments from /* */ comments.
type CommentKind int

const (
	SingleLineComment CommentKind = iota
	MultiLineComment
)

// CommentRange is an unparsed comment located in the raw source buffer.
// Pos and End are byte offsets, End exclusive.
type CommentRange struct {
	Pos                int
	End                int
	Kind               CommentKind
	HasTrailingNewLine bool
}

// Text returns the comment text from the buffer it was found in.
func (r CommentRange) Text(source []byte) string {
	return string(source[r.Pos:r.End])
}

// IsDocComment reports whether the comment starts with "/**" and is not the
// immediately closed "/**/".
func (r CommentRange) IsDocComment(source []byte) bool {
	return isDocComment(source, r.Pos)
}

func isDocComment(source []byte, pos int) bool {
	if pos < 0 || pos+2 >= len(source) {
		return false
	}
	if source[pos] != '/' || source[pos+1] != '*' || source[pos+2] != '*' {
		return false
	}
	return pos+3 >= len(source) || source[pos+3] != '/'
}

// leadingCommentRanges returns the comments between pos and the next token
// that start after the first line break. At pos 0 every comment is leading
// and a shebang line is skipped.
func leadingCommentRanges(source []byte, pos int) []CommentRange {
	return iterateCommentRanges(source, pos, false)
}

// trailingCommentRanges returns the comments after pos that sit on the same
// line, stopping at the first line break.
func trailingCommentRanges(source []byte, pos int) []CommentRange {
	return iterateCommentRanges(source, pos, true)
}

func iterateCommentRanges(source []byte, pos int, trailing bool) []CommentRange {
	var ranges []CommentRange

	if pos < 0 || pos > len(source) {
		return nil
	}

	collecting := trailing || pos == 0
	if pos == 0 {
		pos = skipShebang(source)
	}

	var pending *CommentRange

scan:
	for pos < len(source) {
		ch := source[pos]
		switch ch {
		case '\r':
			if pos+1 < len(source) && source[pos+1] == '\n' {
				pos++
			}
			fallthrough
		case '\n':
			pos++
			if trailing {
				break scan
			}
			collecting = true
			if pending != nil {
				pending.HasTrailingNewLine = true
			}
			continue
		case '\t', '\v', '\f', ' ':
			pos++
			continue
		case '/':
			if pos+1 >= len(source) {
				break scan
			}
			next := source[pos+1]
			if next != '/' && next != '*' {
				break scan
			}

			start := pos
			kind := SingleLineComment
			pos += 2
			if next == '/' {
				for pos < len(source) && source[pos] != '\n' && source[pos] != '\r' {
					pos++
				}
			} else {
				kind = MultiLineComment
				closed := false
				for pos+1 < len(source) {
					if source[pos] == '*' && source[pos+1] == '/' {
						pos += 2
						closed = true
						break
					}
					pos++
				}
				if !closed {
					pos = len(source)
				}
			}

			if collecting {
				if pending != nil {
					ranges = append(ranges, *pending)
				}
				pending = &CommentRange{Pos: start, End: pos, Kind: kind}
			}
			continue
		default:
			if ch >= utf8.RuneSelf {
				r, size := utf8.DecodeRune(source[pos:])
				if unicode.IsSpace(r) || r == '\uFEFF' {
					if r == '\u2028' || r == '\u2029' {
						if trailing {
							break scan
						}
						collecting = true
						if pending != nil {
							pending.HasTrailingNewLine = true
						}
					}
					pos += size
					continue
				}
			}
			break scan
		}
	}

	if pending != nil {
		ranges = append(ranges, *pending)
	}
	return ranges
}

func skipShebang(source []byte) int {
	if len(source) < 2 || source[0] != '#' || source[1] != '!' {
		return 0
	}
	pos := 2
	for pos < len(source) && source[pos] != '\n' && source[pos] != '\r' {
		pos++
	}
	return pos
}
