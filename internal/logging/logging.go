// Package logging sets up the structured logger carried in contexts.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	slogctx "github.com/veqryn/slog-context"
)

// Options controls the logger.
type Options struct {
	// Writer defaults to os.Stderr.
	Writer io.Writer
	// Verbose lowers the level to debug.
	Verbose bool
	// NoColor disables colors even on a terminal.
	NoColor bool
}

// Setup installs a tint logger wrapped by slogctx in ctx and as the slog
// default. Every record carries the run ID, which is returned.
func Setup(ctx context.Context, opts Options) (context.Context, string) {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		AddSource:  opts.Verbose,
		NoColor:    opts.NoColor || !IsTerminal(w),
	})

	logger := slog.New(slogctx.NewHandler(handler, nil))
	slog.SetDefault(logger)

	runID := uuid.NewString()
	ctx = slogctx.NewCtx(ctx, logger)
	ctx = slogctx.With(ctx, slog.String("run", runID))
	return ctx, runID
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
