package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxParallel bounds parallel batches when no bound is configured.
const DefaultMaxParallel = 4

// BatchOptions controls RunAll.
type BatchOptions struct {
	// Parallel runs up to MaxParallel runners at once.
	Parallel    bool
	MaxParallel int
	// ContinueOnError keeps running the remaining runners after a failure.
	// When false the first failure stops the batch.
	ContinueOnError bool

	// OnStart and OnDone are called around every runner, possibly
	// concurrently when Parallel is set.
	OnStart func(name string)
	OnDone  func(name string, report *Report, err error)
}

// RunAll runs every runner and returns the reports of the successful ones in
// the order of runners. Failures are aggregated, each prefixed with the
// runner name.
func RunAll(ctx context.Context, runners []Runner, opts BatchOptions) ([]*Report, error) {
	if opts.Parallel {
		return runParallel(ctx, runners, opts)
	}

	var (
		reports []*Report
		result  *multierror.Error
	)
	for _, r := range runners {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}

		report, err := runOne(ctx, r, opts)
		if err != nil {
			result = multierror.Append(result, err)
			if !opts.ContinueOnError {
				break
			}
			continue
		}
		reports = append(reports, report)
	}

	return reports, result.ErrorOrNil()
}

func runParallel(parent context.Context, runners []Runner, opts BatchOptions) ([]*Report, error) {
	limit := opts.MaxParallel
	if limit <= 0 {
		limit = DefaultMaxParallel
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sem := semaphore.NewWeighted(int64(limit))
	slots := make([]*Report, len(runners))

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		result      *multierror.Error
		stopped     bool
		interrupted bool
	)
	for i, r := range runners {
		if err := sem.Acquire(ctx, 1); err != nil {
			interrupted = true
			break
		}
		if ctx.Err() != nil {
			sem.Release(1)
			interrupted = true
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			report, err := runOne(ctx, r, opts)
			if err != nil {
				mu.Lock()
				defer mu.Unlock()
				if stopped && parent.Err() == nil && errors.Is(err, context.Canceled) {
					slogctx.FromCtx(ctx).DebugContext(ctx, "runner interrupted by an earlier failure", "runner", r.Name())
					return
				}
				result = multierror.Append(result, err)
				if !opts.ContinueOnError {
					stopped = true
					cancel()
				}
				return
			}
			slots[i] = report
		}()
	}
	wg.Wait()

	// Runners skipped after a fail-fast stop are not failures. Only an
	// outer cancellation is reported.
	if err := parent.Err(); interrupted && err != nil {
		result = multierror.Append(result, err)
	}

	reports := make([]*Report, 0, len(slots))
	for _, report := range slots {
		if report != nil {
			reports = append(reports, report)
		}
	}

	return reports, result.ErrorOrNil()
}

func runOne(ctx context.Context, r Runner, opts BatchOptions) (*Report, error) {
	ctx = slogctx.With(ctx, slog.String("runner", r.Name()))

	if opts.OnStart != nil {
		opts.OnStart(r.Name())
	}

	report, err := r.Run(ctx)
	if err != nil {
		err = errors.Errorf("%s: %w", r.Name(), err)
		slogctx.FromCtx(ctx).ErrorContext(ctx, "runner failed", "error", err)
	}

	if opts.OnDone != nil {
		opts.OnDone(r.Name(), report, err)
	}
	return report, err
}
