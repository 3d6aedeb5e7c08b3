package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// CLIProgressReporter shows the runners in flight on a progress bar.
// Its callbacks may be called concurrently.
type CLIProgressReporter struct {
	quiet bool
	bar   *progressbar.ProgressBar

	mu      sync.Mutex
	running []string
	failed  int
}

// NewCLIProgressReporter creates a reporter for total runners writing to w.
func NewCLIProgressReporter(w io.Writer, total int, quiet bool) *CLIProgressReporter {
	c := &CLIProgressReporter{quiet: quiet}
	if quiet {
		return c
	}

	c.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Starting"),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return c
}

// OnStart marks name as running.
func (c *CLIProgressReporter) OnStart(name string) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.running = append(c.running, name)
	c.bar.Describe(c.description())
}

// OnDone marks name as finished.
func (c *CLIProgressReporter) OnDone(name string, _ *runner.Report, err error) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := slices.Index(c.running, name); i >= 0 {
		c.running = slices.Delete(c.running, i, i+1)
	}
	if err != nil {
		c.failed++
	}
	c.bar.Describe(c.description())
	_ = c.bar.Add(1)
}

// Finish clears the bar so that the report starts on a clean line.
func (c *CLIProgressReporter) Finish() {
	if c.quiet {
		return
	}
	_ = c.bar.Finish()
}

// description must be called with mu held.
func (c *CLIProgressReporter) description() string {
	var b strings.Builder
	if len(c.running) == 0 {
		b.WriteString("Waiting")
	} else {
		b.WriteString("Running ")
		b.WriteString(strings.Join(c.running, ", "))
	}
	if c.failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", c.failed)
	}
	return b.String()
}

// Hooks wires the reporter into batch options.
func (c *CLIProgressReporter) Hooks(opts runner.BatchOptions) runner.BatchOptions {
	opts.OnStart = c.OnStart
	opts.OnDone = c.OnDone
	return opts
}
