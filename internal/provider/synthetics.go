package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/synthetics"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

var syntheticsRuntimePath = cdkpath.Lib("aws-synthetics/lib/runtime.d.ts")

// SyntheticsRuntime is a canary runtime.
type SyntheticsRuntime struct {
	Name   string
	Family string
}

var (
	syntheticsRuntimePattern = regexp.MustCompile(`new Runtime\('([\w.-]+)', RuntimeFamily\.(\w+)\)`)
	syntheticsSummaryPattern = regexp.MustCompile("`(syn-[\\w.-]+)`")
)

// syntheticsFamily infers the RuntimeFamily member of a runtime name.
func syntheticsFamily(name string) string {
	switch {
	case strings.Contains(name, "nodejs"):
		return "NODEJS"
	case strings.Contains(name, "python"):
		return "PYTHON"
	default:
		return "OTHER"
	}
}

// syntheticsNameFromField turns SYNTHETICS_NODEJS_PUPPETEER_6_2 into
// syn-nodejs-puppeteer-6.2.
func syntheticsNameFromField(field string) (SyntheticsRuntime, bool) {
	rest, ok := strings.CutPrefix(field, "SYNTHETICS_")
	if !ok {
		return SyntheticsRuntime{}, false
	}

	var words, numbers []string
	for _, part := range strings.Split(strings.ToLower(rest), "_") {
		if part != "" && part[0] >= '0' && part[0] <= '9' {
			numbers = append(numbers, part)
		} else if len(numbers) == 0 {
			words = append(words, part)
		} else {
			return SyntheticsRuntime{}, false
		}
	}
	if len(numbers) == 0 {
		return SyntheticsRuntime{}, false
	}

	name := strings.Join(append(append([]string{"syn"}, words...), strings.Join(numbers, ".")), "-")
	return SyntheticsRuntime{Name: name, Family: syntheticsFamily(name)}, true
}

type syntheticsAdapter struct {
	deps    Deps
	decoder runner.Decoder[SyntheticsRuntime]
}

func newSyntheticsAdapter(deps Deps) *syntheticsAdapter {
	return &syntheticsAdapter{
		deps: deps,
		decoder: runner.Decoder[SyntheticsRuntime]{
			Initializers: []runner.Pattern[SyntheticsRuntime]{{
				Regexp: syntheticsRuntimePattern,
				Build: func(m []string) (SyntheticsRuntime, bool) {
					return SyntheticsRuntime{Name: m[1], Family: m[2]}, true
				},
			}},
			Summaries: []runner.Pattern[SyntheticsRuntime]{{
				Regexp: syntheticsSummaryPattern,
				Build: func(m []string) (SyntheticsRuntime, bool) {
					return SyntheticsRuntime{Name: m[1], Family: syntheticsFamily(m[1])}, true
				},
			}},
			Fallback: syntheticsNameFromField,
		},
	}
}

func (a *syntheticsAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[SyntheticsRuntime], error) {
	facts, err := a.deps.staticFields(ctx, syntheticsRuntimePath)
	if err != nil {
		return nil, err
	}
	return runner.StaticFieldVersions(ctx, facts, "Runtime", a.decoder), nil
}

func (a *syntheticsAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[SyntheticsRuntime], error) {
	now := a.deps.now()

	var (
		versions []runner.DeprecableVersion[SyntheticsRuntime]
		token    *string
	)
	for {
		page, err := a.deps.Clients.Synthetics.DescribeRuntimeVersionsWithContext(ctx, &synthetics.DescribeRuntimeVersionsInput{
			MaxResults: aws.Int64(100),
			NextToken:  token,
		})
		if err != nil {
			return nil, errors.Errorf("failed to describe synthetics runtime versions: %w", err)
		}

		for _, v := range page.RuntimeVersions {
			name := aws.StringValue(v.VersionName)
			if name == "" {
				continue
			}
			deprecated := v.DeprecationDate != nil && v.DeprecationDate.Before(now)
			versions = append(versions, runner.Live(SyntheticsRuntime{Name: name, Family: syntheticsFamily(name)}, deprecated))
		}

		token = page.NextToken
		if aws.StringValue(token) == "" {
			return versions, nil
		}
	}
}

func (a *syntheticsAdapter) Identity(declared, live SyntheticsRuntime) bool {
	return declared.Name == live.Name
}

func (a *syntheticsAdapter) ID(v SyntheticsRuntime) string { return v.Name }

func (a *syntheticsAdapter) Snippet(v runner.DeprecableVersion[SyntheticsRuntime]) string {
	field := "SYNTHETICS_" + constantName(strings.TrimPrefix(v.Version.Name, "syn-"))
	comment := fmt.Sprintf("/** `%s` */", v.Version.Name)
	if v.IsDeprecated {
		comment = fmt.Sprintf("/**\n * `%s`\n * @deprecated Legacy runtime no longer supported by AWS Lambda.\n */", v.Version.Name)
	}
	return fmt.Sprintf("%s\npublic static readonly %s = new Runtime('%s', RuntimeFamily.%s);", comment, field, v.Version.Name, v.Version.Family)
}
