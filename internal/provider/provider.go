// Package provider binds each CDK version family to its declaration file and
// to the AWS API listing the live versions.
package provider

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/singleflight"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// Deps are shared by every runner.
type Deps struct {
	Clients  *Clients
	Cache    *declaration.Cache
	Resolver cdkpath.Resolver
	// Now is used for date based deprecation. Defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) staticFields(ctx context.Context, p cdkpath.Path) ([]declaration.StaticFieldFact, error) {
	return d.Cache.StaticFields(ctx, d.Resolver.Resolve(p))
}

func (d Deps) enumMembers(ctx context.Context, p cdkpath.Path) ([]declaration.EnumMemberFact, error) {
	return d.Cache.EnumMembers(ctx, d.Resolver.Resolve(p))
}

var nonIdentifierChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// constantName turns an identifier such as "Windows_Server-2022-English" into
// the upper snake case name CDK declares it under.
func constantName(id string) string {
	return strings.Trim(nonIdentifierChars.ReplaceAllString(strings.ToUpper(id), "_"), "_")
}

// enumSnippet renders an enum member declaration.
func enumSnippet(value string, deprecated bool) string {
	line := constantName(value) + " = '" + value + "',"
	if deprecated {
		return "/** @deprecated */\n" + line
	}
	return line
}

// dedupe keeps the first version of each id.
func dedupe[T any](versions []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(versions))
	out := versions[:0:0]
	for _, v := range versions {
		k := id(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// sharedCall runs fetch at most once for every runner of a family. The
// fetch does not inherit the cancellation of the caller that starts it and
// each caller stops waiting when its own context is done. Cancellations are
// not kept.
type sharedCall[T any] struct {
	group singleflight.Group

	mu    sync.Mutex
	done  bool
	value T
	err   error
}

func (s *sharedCall[T]) get(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	s.mu.Lock()
	if s.done {
		defer s.mu.Unlock()
		return s.value, s.err
	}
	s.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan("", func() (any, error) {
		s.mu.Lock()
		if s.done {
			defer s.mu.Unlock()
			return s.value, s.err
		}
		s.mu.Unlock()

		value, err := fetch(detached)
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.mu.Lock()
			s.done, s.value, s.err = true, value, err
			s.mu.Unlock()
		}
		return value, err
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		value, _ := res.Val.(T)
		return value, res.Err
	}
}

func versionString(v runner.DeprecableVersion[string]) string {
	return v.Version
}
