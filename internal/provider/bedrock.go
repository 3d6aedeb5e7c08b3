package provider

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/bedrock"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

var bedrockModelPath = cdkpath.Lib("aws-bedrock/lib/foundation-model.d.ts")

var (
	bedrockIdentifierPattern = regexp.MustCompile(`new FoundationModelIdentifier\('([\w.:-]+)'\)`)
	bedrockSummaryPattern    = regexp.MustCompile(`"([\w.:-]+)"`)
)

type bedrockAdapter struct {
	deps    Deps
	decoder runner.Decoder[string]
}

func newBedrockAdapter(deps Deps) *bedrockAdapter {
	first := func(m []string) (string, bool) { return m[1], true }
	return &bedrockAdapter{
		deps: deps,
		// Model ids cannot be recovered from their constant names.
		decoder: runner.Decoder[string]{
			Initializers: []runner.Pattern[string]{{Regexp: bedrockIdentifierPattern, Build: first}},
			Summaries:    []runner.Pattern[string]{{Regexp: bedrockSummaryPattern, Build: first}},
		},
	}
}

func (a *bedrockAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	facts, err := a.deps.staticFields(ctx, bedrockModelPath)
	if err != nil {
		return nil, err
	}
	return runner.StaticFieldVersions(ctx, facts, "FoundationModelIdentifier", a.decoder), nil
}

func (a *bedrockAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	out, err := a.deps.Clients.Bedrock.ListFoundationModelsWithContext(ctx, &bedrock.ListFoundationModelsInput{})
	if err != nil {
		return nil, errors.Errorf("failed to list foundation models: %w", err)
	}

	var versions []runner.DeprecableVersion[string]
	for _, m := range out.ModelSummaries {
		id := aws.StringValue(m.ModelId)
		if id == "" {
			continue
		}
		status := ""
		if m.ModelLifecycle != nil {
			status = aws.StringValue(m.ModelLifecycle.Status)
		}
		versions = append(versions, runner.Live(id, status != bedrock.FoundationModelLifecycleStatusActive))
	}
	return versions, nil
}

func (a *bedrockAdapter) Identity(declared, live string) bool { return declared == live }

func (a *bedrockAdapter) ID(v string) string { return v }

func (a *bedrockAdapter) Snippet(v runner.DeprecableVersion[string]) string {
	comment := fmt.Sprintf("/** Base model %q. */", v.Version)
	if v.IsDeprecated {
		comment = fmt.Sprintf("/**\n * Base model %q.\n * @deprecated use latest version of the model\n */", v.Version)
	}
	return fmt.Sprintf("%s\npublic static readonly %s = new FoundationModelIdentifier('%s');", comment, constantName(v.Version), v.Version)
}
