package runner

import (
	"context"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// Runner reconciles one version family.
type Runner interface {
	Name() string
	Run(ctx context.Context) (*Report, error)
}

// Entry is one reconciled version.
type Entry struct {
	Action       Action `yaml:"action"`
	ID           string `yaml:"id"`
	IsDeprecated bool   `yaml:"deprecated"`
	Snippet      string `yaml:"snippet,omitempty"`
}

// Report is the outcome of a run, with entries grouped by action in the
// order of Actions.
type Report struct {
	Name     string        `yaml:"name"`
	Declared int           `yaml:"declared"`
	Live     int           `yaml:"live"`
	Entries  []Entry       `yaml:"entries"`
	Duration time.Duration `yaml:"-"`
}

// Count returns the number of entries reconciled to action.
func (r *Report) Count(action Action) int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// Empty reports whether the declaration is in sync with the service.
func (r *Report) Empty() bool {
	return len(r.Entries) == 0
}

type runner[T any] struct {
	name    string
	adapter Adapter[T]
}

// New creates a runner named name over adapter.
func New[T any](name string, adapter Adapter[T]) Runner {
	return &runner[T]{name: name, adapter: adapter}
}

func (r *runner[T]) Name() string {
	return r.name
}

// Run fetches the live versions while the declaration is parsed, then
// reconciles both lists.
func (r *runner[T]) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	logger := slogctx.FromCtx(ctx)

	var declared, live []DeprecableVersion[T]

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		versions, err := r.adapter.LiveVersions(gctx)
		if err != nil {
			return errors.Errorf("failed to fetch live versions: %w", err)
		}
		live = versions
		return nil
	})
	g.Go(func() error {
		versions, err := r.adapter.DeclaredVersions(gctx)
		if err != nil {
			return errors.Errorf("failed to read declared versions: %w", err)
		}
		declared = versions
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if filter, ok := r.adapter.(Filter[T]); ok {
		kept := live[:0:0]
		for _, v := range live {
			if !filter.Ignore(v) {
				kept = append(kept, v)
			}
		}
		live = kept
	}

	results := Reconcile(declared, live, r.adapter.Identity)

	report := &Report{
		Name:     r.name,
		Declared: len(declared),
		Live:     len(live),
	}
	snippeter, hasSnippets := r.adapter.(Snippeter[T])
	for _, action := range Actions {
		for _, v := range results.Bucket(action) {
			entry := Entry{
				Action:       action,
				ID:           r.adapter.ID(v.Version),
				IsDeprecated: v.IsDeprecated,
			}
			if hasSnippets {
				// Removed versions are rendered as the deprecation to apply.
				if action == ActionRemove {
					v.IsDeprecated = true
				}
				entry.Snippet = snippeter.Snippet(v)
			}
			report.Entries = append(report.Entries, entry)
		}
	}
	report.Duration = time.Since(start)

	logger.DebugContext(ctx, "runner finished",
		"runner", r.name,
		"declared", report.Declared,
		"live", report.Live,
		"changes", len(report.Entries),
		"duration", report.Duration,
	)

	return report, nil
}
