package cli

import (
	"context"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/config"
	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/logging"
	"github.com/nmussy/cdk-sdk-versions/internal/provider"
	"github.com/nmussy/cdk-sdk-versions/internal/report"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// ErrRunnersFailed is returned when at least one runner failed.
var ErrRunnersFailed = errors.Base("runners failed")

var (
	oneLineFlag  bool
	formatFlag   string
	parallelFlag bool
	failFastFlag bool
	noColorFlag  bool
	modeFlag     string
	quietFlag    bool
	watchFlag    bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [runner|group|pattern ...]",
	Short: "Compare CDK declarations with the live AWS versions",
	Long: `Run scrapes the versions declared by AWS CDK, lists the versions
currently offered by the AWS APIs and prints the differences.

Every runner is selected by default. Runners can be selected by name,
by group or with a glob pattern.

Examples:
  # Every runner
  cdk-sdk-versions run

  # The RDS runners, snippets on one line
  cdk-sdk-versions run rds --one-line

  # CodeBuild Linux runners as YAML, in parallel
  cdk-sdk-versions run 'codebuild-linux*' --format yaml --parallel

  # Read the sources of a local aws-cdk clone, re-running on changes
  cdk-sdk-versions run --mode local --watch
`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&oneLineFlag, "one-line", false, "Print the declaration snippet on the same line as its entry")
	runCmd.Flags().StringVarP(&formatFlag, "format", "f", string(report.FormatText), "Output format (text|yaml)")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", false, "Run runners concurrently")
	runCmd.Flags().BoolVar(&failFastFlag, "fail-fast", false, "Stop at the first failing runner")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colors")
	runCmd.Flags().StringVar(&modeFlag, "mode", "", "Where declarations are read from (dependency|local)")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable the progress bar")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Run again when a declaration file changes")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, _ := logging.Setup(cmd.Context(), logging.Options{
		Writer:  cmd.ErrOrStderr(),
		Verbose: verbose,
		NoColor: noColorFlag,
	})

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	format, err := report.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	sess, err := provider.NewSession(provider.AWSOptions{Region: cfg.AWS.Region, Profile: cfg.AWS.Profile})
	if err != nil {
		return err
	}

	cache, err := declaration.NewCache(cfg.Cache.Capacity, declaration.ParseOptions{Strict: cfg.Strict})
	if err != nil {
		return errors.Errorf("failed to create declaration cache: %w", err)
	}
	defer cache.Close()

	deps := provider.Deps{
		Clients:  provider.NewClients(sess),
		Cache:    cache,
		Resolver: cfg.Resolver(),
	}
	// Each round gets fresh runners so that shared live calls are made again.
	selectRunners := func() ([]runner.Runner, error) {
		return provider.NewRegistry(deps).Select(args...)
	}
	runners, err := selectRunners()
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	writer := report.NewWriter(stdout, report.Options{
		Format:  format,
		OneLine: oneLineFlag,
		Color:   !noColorFlag && logging.IsTerminal(stdout),
	})

	stderr := cmd.ErrOrStderr()
	round := func(runners []runner.Runner) error {
		progress := NewCLIProgressReporter(stderr, len(runners), quietFlag || !logging.IsTerminal(stderr))
		slogctx.FromCtx(ctx).DebugContext(ctx, "running", "runners", len(runners), "mode", cfg.Mode, "parallel", cfg.Runner.Parallel)
		return runBatch(ctx, runners, progress.Hooks(cfg.BatchOptions()), progress, writer, stderr)
	}

	err = round(runners)
	if !watchFlag {
		return err
	}
	return watchRuns(ctx, cache, selectRunners, round, 0)
}

// applyRunFlags lets flags set on the command line override the configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		if _, err := cdkpath.ParseMode(modeFlag); err != nil {
			return err
		}
		cfg.Mode = modeFlag
	}
	if flags.Changed("parallel") {
		cfg.Runner.Parallel = parallelFlag
	}
	if flags.Changed("fail-fast") {
		cfg.Runner.ContinueOnError = !failFastFlag
	}
	return nil
}

// runBatch runs runners and writes their reports. Failures are written to
// errOut and turned into ErrRunnersFailed.
func runBatch(ctx context.Context, runners []runner.Runner, opts runner.BatchOptions, progress *CLIProgressReporter, w *report.Writer, errOut io.Writer) error {
	start := time.Now()
	reports, runErr := runner.RunAll(ctx, runners, opts)
	progress.Finish()

	if err := w.Write(reports); err != nil {
		return errors.Errorf("failed to write reports: %w", err)
	}

	errWriter := report.NewWriter(errOut, report.Options{Color: !noColorFlag && logging.IsTerminal(errOut)})

	failed := 0
	if runErr != nil {
		failed = 1
		var merr *multierror.Error
		if errors.As(runErr, &merr) {
			failed = len(merr.Errors)
		}

		if err := errWriter.WriteErrors(runErr); err != nil {
			return errors.Errorf("failed to write errors: %w", err)
		}
	}

	if err := errWriter.Summary(reports, failed, time.Since(start)); err != nil {
		return errors.Errorf("failed to write summary: %w", err)
	}

	if failed > 0 {
		return errors.Errorf("%w: %d of %d", ErrRunnersFailed, failed, len(runners))
	}
	return nil
}
