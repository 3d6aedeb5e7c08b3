package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// Test Plan for watch mode:
// - pendingChanges merges files and never blocks
// - watchRuns fails when no declaration file was read
// - A changed file is invalidated and a new round sees its new content
// - Cancelling the context ends the loop without error

func TestPendingChanges(t *testing.T) {
	t.Parallel()

	p := newPendingChanges()
	p.add([]string{"a.d.ts"})
	p.add([]string{"b.d.ts", "a.d.ts"})

	select {
	case <-p.notify:
	default:
		t.Fatal("no notification")
	}
	assert.ElementsMatch(t, []string{"a.d.ts", "b.d.ts"}, p.take())
	assert.Empty(t, p.take())
}

func TestWatchRuns_NothingToWatch(t *testing.T) {
	t.Parallel()

	cache, err := declaration.NewCache(0, declaration.ParseOptions{})
	require.NoError(t, err)
	defer cache.Close()

	err = watchRuns(context.Background(), cache, nil, nil, 0)
	assert.Error(t, err)
}

func TestWatchRuns_RerunsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "version.d.ts")
	require.NoError(t, os.WriteFile(path, []byte("export declare class V {\n    static readonly A: V;\n}\n"), 0644))

	cache, err := declaration.NewCache(0, declaration.ParseOptions{})
	require.NoError(t, err)
	defer cache.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	facts, err := cache.StaticFields(ctx, path)
	require.NoError(t, err)
	require.Len(t, facts, 1)

	counts := make(chan int, 10)
	selectRunners := func() ([]runner.Runner, error) { return nil, nil }
	round := func([]runner.Runner) error {
		facts, err := cache.StaticFields(ctx, path)
		if err != nil {
			return err
		}
		counts <- len(facts)
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- watchRuns(ctx, cache, selectRunners, round, 50*time.Millisecond) }()

	// Wait for watcher to initialize
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("export declare class V {\n    static readonly A: V;\n    static readonly B: V;\n}\n"), 0644))

	select {
	case n := <-counts:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no round after change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}
