package runner

import (
	"context"
	"regexp"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
)

// Pattern reconstructs a value from the submatches of Regexp.
type Pattern[T any] struct {
	Regexp *regexp.Regexp
	Build  func(match []string) (T, bool)
}

// Decoder turns a declared name into a version value. It tries, in order,
// the symbol table, the initializer patterns, the summary patterns and the
// naming convention fallback.
type Decoder[T any] struct {
	Symbols      map[string]T
	Initializers []Pattern[T]
	Summaries    []Pattern[T]
	Fallback     func(name string) (T, bool)
}

// Decode reconstructs the value of name. ok is false when nothing matched;
// the fact is then logged and should be skipped.
func (d Decoder[T]) Decode(ctx context.Context, name, initializer, summary string) (v T, ok bool) {
	logger := slogctx.FromCtx(ctx)

	if v, ok := d.Symbols[name]; ok {
		return v, true
	}
	if v, ok := matchPatterns(d.Initializers, initializer); ok {
		logger.DebugContext(ctx, "decoded from initializer", "name", name, "initializer", initializer)
		return v, true
	}
	if v, ok := matchPatterns(d.Summaries, summary); ok {
		logger.DebugContext(ctx, "decoded from summary", "name", name, "summary", summary)
		return v, true
	}

	err := errors.Errorf("%w: %s", ErrUnknownIdentifierPattern, name)
	if d.Fallback != nil {
		if v, ok := d.Fallback(name); ok {
			logger.WarnContext(ctx, "decoded from naming convention", "name", name, "error", err)
			return v, true
		}
	}

	logger.WarnContext(ctx, "skipping undecodable declaration", "name", name, "initializer", initializer, "error", err)
	return v, false
}

func matchPatterns[T any](patterns []Pattern[T], text string) (T, bool) {
	var zero T
	if text == "" {
		return zero, false
	}
	for _, p := range patterns {
		if m := p.Regexp.FindStringSubmatch(text); m != nil {
			if v, ok := p.Build(m); ok {
				return v, true
			}
		}
	}
	return zero, false
}

// StaticFieldVersions decodes the fields of className.
func StaticFieldVersions[T any](ctx context.Context, facts []declaration.StaticFieldFact, className string, d Decoder[T]) []DeprecableVersion[T] {
	var versions []DeprecableVersion[T]
	for _, f := range facts {
		if f.ClassName != className {
			continue
		}
		v, ok := d.Decode(ctx, f.FieldName, f.FieldValue, f.Summary)
		if !ok {
			continue
		}
		versions = append(versions, DeprecableVersion[T]{Version: v, IsDeprecated: f.IsDeprecated})
	}
	return versions
}

// EnumMemberVersions converts the members of enumName with convert.
// Members convert rejects are skipped.
func EnumMemberVersions[T any](facts []declaration.EnumMemberFact, enumName string, convert func(declaration.EnumMemberFact) (T, bool)) []DeprecableVersion[T] {
	var versions []DeprecableVersion[T]
	for _, f := range facts {
		if f.EnumName != enumName {
			continue
		}
		v, ok := convert(f)
		if !ok {
			continue
		}
		versions = append(versions, DeprecableVersion[T]{Version: v, IsDeprecated: f.IsDeprecated})
	}
	return versions
}
