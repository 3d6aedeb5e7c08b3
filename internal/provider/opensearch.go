package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/opensearchservice"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

var openSearchVersionPath = cdkpath.Lib("aws-opensearchservice/lib/version.d.ts")

var (
	openSearchFactoryPattern = regexp.MustCompile(`EngineVersion\.(\w+)\('([\w.-]+)'\)`)
	openSearchSummaryPattern = regexp.MustCompile(`(?i)\b(opensearch|elasticsearch) (\d+(?:\.\d+)+)`)
	openSearchNamePattern    = regexp.MustCompile(`^(OPENSEARCH|ELASTICSEARCH)_(\d+(?:_\d+)*)$`)
)

// openSearchEngines maps the lower cased engine to the prefix ListVersions
// reports, such as OpenSearch_2.11.
var openSearchEngines = map[string]string{
	"opensearch":    "OpenSearch",
	"elasticsearch": "Elasticsearch",
}

func openSearchVersion(engine, number string) (string, bool) {
	prefix, ok := openSearchEngines[strings.ToLower(engine)]
	if !ok {
		return "", false
	}
	return prefix + "_" + number, true
}

type openSearchAdapter struct {
	deps    Deps
	decoder runner.Decoder[string]
}

func newOpenSearchAdapter(deps Deps) *openSearchAdapter {
	build := func(m []string) (string, bool) { return openSearchVersion(m[1], m[2]) }
	return &openSearchAdapter{
		deps: deps,
		decoder: runner.Decoder[string]{
			Initializers: []runner.Pattern[string]{{Regexp: openSearchFactoryPattern, Build: build}},
			Summaries:    []runner.Pattern[string]{{Regexp: openSearchSummaryPattern, Build: build}},
			Fallback: func(name string) (string, bool) {
				m := openSearchNamePattern.FindStringSubmatch(name)
				if m == nil {
					return "", false
				}
				return openSearchVersion(m[1], strings.ReplaceAll(m[2], "_", "."))
			},
		},
	}
}

func (a *openSearchAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	facts, err := a.deps.staticFields(ctx, openSearchVersionPath)
	if err != nil {
		return nil, err
	}
	return runner.StaticFieldVersions(ctx, facts, "EngineVersion", a.decoder), nil
}

func (a *openSearchAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	var versions []runner.DeprecableVersion[string]
	err := a.deps.Clients.OpenSearch.ListVersionsPagesWithContext(ctx, &opensearchservice.ListVersionsInput{
		MaxResults: aws.Int64(100),
	}, func(page *opensearchservice.ListVersionsOutput, _ bool) bool {
		for _, v := range aws.StringValueSlice(page.Versions) {
			versions = append(versions, runner.Live(v, false))
		}
		return true
	})
	if err != nil {
		return nil, errors.Errorf("failed to list opensearch versions: %w", err)
	}
	return versions, nil
}

func (a *openSearchAdapter) Identity(declared, live string) bool { return declared == live }

func (a *openSearchAdapter) ID(v string) string { return v }

func (a *openSearchAdapter) Snippet(v runner.DeprecableVersion[string]) string {
	engine, number, _ := strings.Cut(v.Version, "_")
	factory := "openSearch"
	if engine == "Elasticsearch" {
		factory = "elasticsearch"
	}

	comment := fmt.Sprintf("/** AWS %s %s */", engine, number)
	if v.IsDeprecated {
		comment = fmt.Sprintf("/**\n * AWS %s %s\n * @deprecated\n */", engine, number)
	}
	return fmt.Sprintf("%s\npublic static readonly %s = EngineVersion.%s('%s');", comment, constantName(v.Version), factory, number)
}
