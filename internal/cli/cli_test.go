package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/config"
	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/provider"
	"github.com/nmussy/cdk-sdk-versions/internal/report"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// Test Plan for CLI commands:
// - runBatch writes every report and a summary, and succeeds without failures
// - runBatch writes failures with their runner name and returns ErrRunnersFailed
// - runBatch with ContinueOnError false stops at the first failure
// - runBatch drives the progress reporter hooks
// - applyRunFlags overrides only the flags that were set
// - inspect prints static fields, enum members and doc comments
// - inspect encodes facts as YAML
// - listRunners prints every runner and group
// - version prints the build information

type fakeRunner struct {
	name   string
	report *runner.Report
	err    error
	runs   int
}

func (f *fakeRunner) Name() string { return f.name }

func (f *fakeRunner) Run(context.Context) (*runner.Report, error) {
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func declarationPath(name string) string {
	return filepath.Join("..", "declaration", "testdata", name)
}

func TestRunBatch_WritesReportsAndSummary(t *testing.T) {
	t.Parallel()

	runners := []runner.Runner{
		&fakeRunner{name: "kafka", report: &runner.Report{Name: "kafka", Entries: []runner.Entry{
			{Action: runner.ActionAdd, ID: "3.6.0"},
		}}},
		&fakeRunner{name: "bedrock", report: &runner.Report{Name: "bedrock"}},
	}

	var out, errOut bytes.Buffer
	w := report.NewWriter(&out, report.Options{Format: report.FormatText})
	progress := NewCLIProgressReporter(io.Discard, len(runners), true)

	err := runBatch(context.Background(), runners, runner.BatchOptions{ContinueOnError: true}, progress, w, &errOut)

	require.NoError(t, err)
	assert.Equal(t, "kafka results:\n\n[+] 3.6.0 not @deprecated\n\nbedrock results:\n\n  no changes\n\n", out.String())
	assert.True(t, strings.HasPrefix(errOut.String(), "2 runners, 1 change in "), errOut.String())
}

func TestRunBatch_ReportsFailures(t *testing.T) {
	t.Parallel()

	runners := []runner.Runner{
		&fakeRunner{name: "kafka", err: errors.New("access denied")},
		&fakeRunner{name: "bedrock", report: &runner.Report{Name: "bedrock"}},
	}

	var out, errOut bytes.Buffer
	w := report.NewWriter(&out, report.Options{})
	progress := NewCLIProgressReporter(io.Discard, len(runners), true)

	err := runBatch(context.Background(), runners, runner.BatchOptions{ContinueOnError: true}, progress, w, &errOut)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunnersFailed))
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out.String(), "bedrock results:")
	assert.Contains(t, errOut.String(), "!!! kafka: access denied\n")
	assert.Contains(t, errOut.String(), ", 1 failed")
}

func TestRunBatch_FailFast(t *testing.T) {
	t.Parallel()

	second := &fakeRunner{name: "bedrock", report: &runner.Report{Name: "bedrock"}}
	runners := []runner.Runner{
		&fakeRunner{name: "kafka", err: errors.New("boom")},
		second,
	}

	var out, errOut bytes.Buffer
	w := report.NewWriter(&out, report.Options{})
	progress := NewCLIProgressReporter(io.Discard, len(runners), true)

	err := runBatch(context.Background(), runners, runner.BatchOptions{ContinueOnError: false}, progress, w, &errOut)

	require.Error(t, err)
	assert.Zero(t, second.runs)
	assert.Empty(t, out.String())
}

func TestRunBatch_DrivesProgress(t *testing.T) {
	t.Parallel()

	runners := []runner.Runner{
		&fakeRunner{name: "kafka", report: &runner.Report{Name: "kafka"}},
		&fakeRunner{name: "bedrock", err: errors.New("boom")},
	}

	var bar bytes.Buffer
	progress := NewCLIProgressReporter(&bar, len(runners), false)

	var started, done []string
	opts := progress.Hooks(runner.BatchOptions{ContinueOnError: true})
	onStart, onDone := opts.OnStart, opts.OnDone
	opts.OnStart = func(name string) {
		started = append(started, name)
		onStart(name)
	}
	opts.OnDone = func(name string, r *runner.Report, err error) {
		done = append(done, name)
		onDone(name, r, err)
	}

	w := report.NewWriter(io.Discard, report.Options{})
	err := runBatch(context.Background(), runners, opts, progress, w, io.Discard)

	require.Error(t, err)
	assert.Equal(t, []string{"kafka", "bedrock"}, started)
	assert.Equal(t, []string{"kafka", "bedrock"}, done)
	assert.Equal(t, "Waiting (1 failed)", progress.description())
}

func TestProgress_Description(t *testing.T) {
	t.Parallel()

	progress := NewCLIProgressReporter(io.Discard, 3, false)

	progress.OnStart("rds-mysql")
	progress.OnStart("kafka")
	assert.Equal(t, "Running rds-mysql, kafka", progress.description())

	progress.OnDone("rds-mysql", nil, errors.New("boom"))
	assert.Equal(t, "Running kafka (1 failed)", progress.description())
}

func TestProgress_QuietWritesNothing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	progress := NewCLIProgressReporter(&buf, 1, true)
	progress.OnStart("kafka")
	progress.OnDone("kafka", nil, nil)
	progress.Finish()

	assert.Empty(t, buf.String())
}

func TestApplyRunFlags(t *testing.T) {
	// Note: Cannot use t.Parallel() because the flags are package variables

	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{Use: "run"}
		cmd.Flags().StringVar(&modeFlag, "mode", "", "")
		cmd.Flags().BoolVar(&parallelFlag, "parallel", false, "")
		cmd.Flags().BoolVar(&failFastFlag, "fail-fast", false, "")
		return cmd
	}

	t.Run("unset flags keep the configuration", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.ParseFlags(nil))

		cfg := config.Default()
		cfg.Runner.Parallel = true
		require.NoError(t, applyRunFlags(cmd, cfg))

		assert.Equal(t, "dependency", cfg.Mode)
		assert.True(t, cfg.Runner.Parallel)
		assert.True(t, cfg.Runner.ContinueOnError)
	})

	t.Run("set flags override", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--mode", "local", "--parallel", "--fail-fast"}))

		cfg := config.Default()
		require.NoError(t, applyRunFlags(cmd, cfg))

		assert.Equal(t, cdkpath.ModeLocal, cfg.Resolver().Mode)
		assert.True(t, cfg.Runner.Parallel)
		assert.False(t, cfg.Runner.ContinueOnError)
	})

	t.Run("invalid mode", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--mode", "staging"}))

		err := applyRunFlags(cmd, config.Default())
		assert.True(t, errors.Is(err, cdkpath.ErrInvalidMode))
	})
}

func TestInspect_StaticFields(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := inspect(context.Background(), &out, declarationPath("engine-version.d.ts"), inspectOptions{format: report.FormatText})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "MysqlEngineVersion.VER_5_7: MysqlEngineVersion", lines[0])
	assert.Equal(t, "MysqlEngineVersion.VER_5_7_16: MysqlEngineVersion @deprecated", lines[1])
	assert.Equal(t, "PostgresEngineVersion.VER_11_22: PostgresEngineVersion", lines[5])
}

func TestInspect_EnumMembers(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := inspect(context.Background(), &out, declarationPath("enums.d.ts"), inspectOptions{enums: true, format: report.FormatText})
	require.NoError(t, err)

	facts, err := declaration.ExtractEnumMembers(context.Background(), declarationPath("enums.d.ts"), declaration.ParseOptions{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(facts))
	assert.True(t, strings.HasPrefix(lines[0], facts[0].EnumName+"."+facts[0].MemberName+" = "))
}

func TestInspect_AllComments(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := inspect(context.Background(), &out, declarationPath("engine-version.d.ts"), inspectOptions{allComments: true, format: report.FormatText})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "4: class_declaration MysqlEngineVersion\n")
	assert.Contains(t, out.String(), "11: public_field_definition VER_5_7_16 @deprecated\n")
}

func TestInspect_YAML(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	err := inspect(context.Background(), &out, declarationPath("engine-version.d.ts"), inspectOptions{format: report.FormatYAML})
	require.NoError(t, err)

	var facts []declaration.StaticFieldFact
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &facts))
	require.Len(t, facts, 6)
	assert.Equal(t, "VER_5_7_16", facts[1].FieldName)
	assert.True(t, facts[1].IsDeprecated)
}

func TestInspect_MissingFile(t *testing.T) {
	t.Parallel()

	err := inspect(context.Background(), io.Discard, declarationPath("absent.d.ts"), inspectOptions{})
	assert.True(t, errors.Is(err, declaration.ErrParse))
}

func TestListRunners(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, listRunners(&out, provider.NewRegistry(provider.Deps{})))

	assert.Contains(t, out.String(), "Runners:\n  rds-mysql\n")
	assert.Contains(t, out.String(), "  eks-alb-controller\n")
	assert.Contains(t, out.String(), "  codebuild    codebuild-windows, codebuild-linux, codebuild-linux-arm, codebuild-linux-lambda, codebuild-linux-arm-lambda\n")
	assert.Contains(t, out.String(), "  kafka        kafka\n")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	assert.Equal(t, "cdk-sdk-versions dev\nGit commit: none\nBuild date: unknown\n", out.String())
}
