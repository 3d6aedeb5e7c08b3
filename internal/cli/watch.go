package cli

import (
	"context"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
	"github.com/nmussy/cdk-sdk-versions/internal/watcher"
)

// pendingChanges merges the files reported by the watcher until the next
// round picks them up. add never blocks.
type pendingChanges struct {
	mu     sync.Mutex
	files  map[string]struct{}
	notify chan struct{}
}

func newPendingChanges() *pendingChanges {
	return &pendingChanges{files: make(map[string]struct{}), notify: make(chan struct{}, 1)}
}

func (p *pendingChanges) add(files []string) {
	p.mu.Lock()
	for _, file := range files {
		p.files[file] = struct{}{}
	}
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *pendingChanges) take() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	files := make([]string, 0, len(p.files))
	for file := range p.files {
		files = append(files, file)
	}
	clear(p.files)
	return files
}

// watchRuns runs a new round every time a declaration file read by the
// previous rounds changes, until ctx is cancelled. Round failures are
// reported by the round itself and do not stop the loop.
func watchRuns(
	ctx context.Context,
	cache *declaration.Cache,
	selectRunners func() ([]runner.Runner, error),
	round func([]runner.Runner) error,
	debounce time.Duration,
) error {
	logger := slogctx.FromCtx(ctx)

	paths := cache.Paths()
	if len(paths) == 0 {
		return errors.New("no declaration file to watch")
	}

	w, err := watcher.New(paths, debounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	pending := newPendingChanges()
	if err := w.Start(ctx, pending.add); err != nil {
		return err
	}
	logger.InfoContext(ctx, "watching declaration files", "files", len(paths))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending.notify:
		}

		changed := pending.take()
		if len(changed) == 0 {
			continue
		}
		logger.InfoContext(ctx, "declaration files changed", "files", changed)
		cache.Invalidate(changed...)

		runners, err := selectRunners()
		if err != nil {
			return err
		}

		w.Pause()
		if err := round(runners); err != nil {
			logger.WarnContext(ctx, "round failed", "error", err)
		}
		w.Resume()
	}
}
