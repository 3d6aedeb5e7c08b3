package runner

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// Test Plan for Runner:
// - Run() reconciles declared and live versions into ordered entries
// - Run() applies the adapter's live filter before reconciling
// - Run() renders snippets when the adapter provides them
// - Run() fetches live versions while the declaration is read
// - Run() returns declared-side and live-side failures
// - RunAll() runs sequentially and isolates failures by default
// - RunAll() stops at the first failure when ContinueOnError is false
// - RunAll() runs in parallel and keeps runner order
// - RunAll() in parallel reports only the failure that stopped the batch, not the runners it skipped or interrupted
// - RunAll() calls the progress hooks for every runner

type fakeAdapter struct {
	declared []DeprecableVersion[string]
	live     []DeprecableVersion[string]

	declaredErr error
	liveErr     error

	// barrier makes each side wait for the other to have started.
	barrier *rendezvous
}

type rendezvous struct {
	started atomic.Int32
}

func (s *rendezvous) arrive(ctx context.Context) error {
	s.started.Add(1)
	for s.started.Load() < 2 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil
}

func (a *fakeAdapter) DeclaredVersions(ctx context.Context) ([]DeprecableVersion[string], error) {
	if a.barrier != nil {
		if err := a.barrier.arrive(ctx); err != nil {
			return nil, err
		}
	}
	return a.declared, a.declaredErr
}

func (a *fakeAdapter) LiveVersions(ctx context.Context) ([]DeprecableVersion[string], error) {
	if a.barrier != nil {
		if err := a.barrier.arrive(ctx); err != nil {
			return nil, err
		}
	}
	return a.live, a.liveErr
}

func (a *fakeAdapter) Identity(declared, live string) bool { return declared == live }

func (a *fakeAdapter) ID(v string) string { return v }

type snippetAdapter struct {
	*fakeAdapter
}

func (a snippetAdapter) Snippet(v DeprecableVersion[string]) string {
	snippet := "VER_" + strings.ReplaceAll(v.Version, ".", "_")
	if v.IsDeprecated {
		snippet += " @deprecated"
	}
	return snippet
}

func (a snippetAdapter) Ignore(v DeprecableVersion[string]) bool {
	return strings.HasPrefix(v.Version, "9.4")
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{
		declared: []DeprecableVersion[string]{dv("1.0", false), dv("2.0", false), dv("3.0", true)},
		live:     []DeprecableVersion[string]{dv("2.0", true), dv("4.0", false), dv("5.0", true)},
	}

	report, err := New[string]("test", adapter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test", report.Name)
	assert.Equal(t, 3, report.Declared)
	assert.Equal(t, 3, report.Live)
	assert.Equal(t, []Entry{
		{Action: ActionAdd, ID: "4.0"},
		{Action: ActionAddDeprecated, ID: "5.0", IsDeprecated: true},
		{Action: ActionUpdateDeprecated, ID: "2.0", IsDeprecated: true},
		{Action: ActionRemove, ID: "1.0"},
	}, report.Entries)
	assert.Equal(t, 1, report.Count(ActionRemove))
	assert.False(t, report.Empty())
}

func TestRunner_FilterAndSnippets(t *testing.T) {
	t.Parallel()

	adapter := snippetAdapter{&fakeAdapter{
		live: []DeprecableVersion[string]{dv("9.4.1", false), dv("16.3", false)},
	}}

	report, err := New[string]("postgres", adapter).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Live)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "16.3", report.Entries[0].ID)
	assert.Equal(t, "VER_16_3", report.Entries[0].Snippet)
}

func TestRunner_RemovedSnippetsAreDeprecated(t *testing.T) {
	t.Parallel()

	adapter := snippetAdapter{&fakeAdapter{
		declared: []DeprecableVersion[string]{dv("10.1", false)},
	}}

	report, err := New[string]("postgres", adapter).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, ActionRemove, report.Entries[0].Action)
	assert.False(t, report.Entries[0].IsDeprecated)
	assert.Equal(t, "VER_10_1 @deprecated", report.Entries[0].Snippet)
}

func TestRunner_OverlapsLiveAndDeclared(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	adapter := &fakeAdapter{barrier: &rendezvous{}}
	report, err := New[string]("overlap", adapter).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestRunner_Errors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	_, err := New[string]("live", &fakeAdapter{liveErr: boom}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "live versions")

	_, err = New[string]("declared", &fakeAdapter{declaredErr: boom}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "declared versions")
}
