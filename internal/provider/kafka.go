package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kafka"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

var kafkaVersionPath = cdkpath.Module("@aws-cdk/aws-msk-alpha", "lib/cluster-version.d.ts")

var (
	kafkaOfPattern      = regexp.MustCompile(`KafkaVersion\.of\('([\w.]+)'\)`)
	kafkaSummaryPattern = regexp.MustCompile(`[Vv]ersion (\d+(?:\.\w+)+)`)
)

type kafkaAdapter struct {
	deps    Deps
	decoder runner.Decoder[string]
}

func newKafkaAdapter(deps Deps) *kafkaAdapter {
	first := func(m []string) (string, bool) { return m[1], true }
	return &kafkaAdapter{
		deps: deps,
		decoder: runner.Decoder[string]{
			Initializers: []runner.Pattern[string]{{Regexp: kafkaOfPattern, Build: first}},
			Summaries:    []runner.Pattern[string]{{Regexp: kafkaSummaryPattern, Build: first}},
			Fallback:     kafkaVersionFromName,
		},
	}
}

// kafkaVersionFromName turns V3_5_1 into 3.5.1 and V2_8_2_TIERED into 2.8.2.tiered.
func kafkaVersionFromName(name string) (string, bool) {
	if len(name) < 2 || name[0] != 'V' || name[1] < '0' || name[1] > '9' {
		return "", false
	}
	return strings.ToLower(strings.ReplaceAll(name[1:], "_", ".")), true
}

func (a *kafkaAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	facts, err := a.deps.staticFields(ctx, kafkaVersionPath)
	if err != nil {
		return nil, err
	}
	return runner.StaticFieldVersions(ctx, facts, "KafkaVersion", a.decoder), nil
}

func (a *kafkaAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	var versions []runner.DeprecableVersion[string]
	err := a.deps.Clients.Kafka.ListKafkaVersionsPagesWithContext(ctx, &kafka.ListKafkaVersionsInput{
		MaxResults: aws.Int64(100),
	}, func(page *kafka.ListKafkaVersionsOutput, _ bool) bool {
		for _, v := range page.KafkaVersions {
			if aws.StringValue(v.Version) == "" {
				continue
			}
			versions = append(versions, runner.Live(
				aws.StringValue(v.Version),
				aws.StringValue(v.Status) != kafka.KafkaVersionStatusActive,
			))
		}
		return true
	})
	if err != nil {
		return nil, errors.Errorf("failed to list kafka versions: %w", err)
	}
	return versions, nil
}

func (a *kafkaAdapter) Identity(declared, live string) bool { return declared == live }

func (a *kafkaAdapter) ID(v string) string { return v }

func (a *kafkaAdapter) Snippet(v runner.DeprecableVersion[string]) string {
	comment := fmt.Sprintf("/** Kafka version %s */", v.Version)
	if v.IsDeprecated {
		comment = fmt.Sprintf("/**\n * Kafka version %s\n *\n * @deprecated use the latest runtime instead\n */", v.Version)
	}
	return fmt.Sprintf("%s\npublic static readonly V%s = KafkaVersion.of('%s');", comment, constantName(v.Version), v.Version)
}
