package provider

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/bedrock"
	"github.com/aws/aws-sdk-go/service/bedrock/bedrockiface"
	"github.com/aws/aws-sdk-go/service/codebuild"
	"github.com/aws/aws-sdk-go/service/codebuild/codebuildiface"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
	"github.com/aws/aws-sdk-go/service/ecr"
	"github.com/aws/aws-sdk-go/service/ecr/ecriface"
	"github.com/aws/aws-sdk-go/service/kafka"
	"github.com/aws/aws-sdk-go/service/kafka/kafkaiface"
	"github.com/aws/aws-sdk-go/service/opensearchservice"
	"github.com/aws/aws-sdk-go/service/opensearchservice/opensearchserviceiface"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/aws/aws-sdk-go/service/synthetics"
	"github.com/aws/aws-sdk-go/service/synthetics/syntheticsiface"
	"github.com/stretchr/testify/require"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// testNow is the fixed clock of every test.
var testNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestDeps(t *testing.T, clients *Clients) Deps {
	t.Helper()

	cache, err := declaration.NewCache(0, declaration.ParseOptions{})
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	return Deps{
		Clients: clients,
		Cache:   cache,
		Resolver: cdkpath.Resolver{
			Mode:        cdkpath.ModeDependency,
			NodeModules: "testdata/node_modules",
		},
		Now: func() time.Time { return testNow },
	}
}

// runNamed runs the registered runner called name.
func runNamed(t *testing.T, deps Deps, name string) *runner.Report {
	t.Helper()

	runners, err := NewRegistry(deps).Select(name)
	require.NoError(t, err)
	require.Len(t, runners, 1)

	report, err := runners[0].Run(context.Background())
	require.NoError(t, err)
	return report
}

// entries renders a report as "ACTION id" lines.
func entries(report *runner.Report) []string {
	lines := make([]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		lines = append(lines, string(e.Action)+" "+e.ID)
	}
	return lines
}

type mockRDS struct {
	rdsiface.RDSAPI
	versions map[string][]*rds.DBEngineVersion
	engines  []string
}

func (m *mockRDS) DescribeDBEngineVersionsPagesWithContext(_ aws.Context, in *rds.DescribeDBEngineVersionsInput, fn func(*rds.DescribeDBEngineVersionsOutput, bool) bool, _ ...request.Option) error {
	engine := aws.StringValue(in.Engine)
	m.engines = append(m.engines, engine)
	fn(&rds.DescribeDBEngineVersionsOutput{DBEngineVersions: m.versions[engine]}, true)
	return nil
}

func rdsVersion(full, major, status string) *rds.DBEngineVersion {
	return &rds.DBEngineVersion{
		EngineVersion:      aws.String(full),
		MajorEngineVersion: aws.String(major),
		Status:             aws.String(status),
	}
}

type mockKafka struct {
	kafkaiface.KafkaAPI
	versions []*kafka.KafkaVersion
	err      error
}

func (m *mockKafka) ListKafkaVersionsPagesWithContext(_ aws.Context, _ *kafka.ListKafkaVersionsInput, fn func(*kafka.ListKafkaVersionsOutput, bool) bool, _ ...request.Option) error {
	if m.err != nil {
		return m.err
	}
	fn(&kafka.ListKafkaVersionsOutput{KafkaVersions: m.versions}, true)
	return nil
}

type mockOpenSearch struct {
	opensearchserviceiface.OpenSearchServiceAPI
	versions []string
}

func (m *mockOpenSearch) ListVersionsPagesWithContext(_ aws.Context, _ *opensearchservice.ListVersionsInput, fn func(*opensearchservice.ListVersionsOutput, bool) bool, _ ...request.Option) error {
	// Two pages, to make sure every page is read.
	half := len(m.versions) / 2
	if !fn(&opensearchservice.ListVersionsOutput{Versions: aws.StringSlice(m.versions[:half])}, false) {
		return nil
	}
	fn(&opensearchservice.ListVersionsOutput{Versions: aws.StringSlice(m.versions[half:])}, true)
	return nil
}

type mockSynthetics struct {
	syntheticsiface.SyntheticsAPI
	pages [][]*synthetics.RuntimeVersion
}

func (m *mockSynthetics) DescribeRuntimeVersionsWithContext(_ aws.Context, in *synthetics.DescribeRuntimeVersionsInput, _ ...request.Option) (*synthetics.DescribeRuntimeVersionsOutput, error) {
	page := 0
	if in.NextToken != nil {
		page = 1
	}
	out := &synthetics.DescribeRuntimeVersionsOutput{RuntimeVersions: m.pages[page]}
	if page+1 < len(m.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

type mockCodeBuild struct {
	codebuildiface.CodeBuildAPI
	platforms []*codebuild.EnvironmentPlatform
	calls     atomic.Int32
	// latency delays the response unless ctx is done first.
	latency time.Duration
}

func (m *mockCodeBuild) ListCuratedEnvironmentImagesWithContext(ctx aws.Context, _ *codebuild.ListCuratedEnvironmentImagesInput, _ ...request.Option) (*codebuild.ListCuratedEnvironmentImagesOutput, error) {
	m.calls.Add(1)
	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &codebuild.ListCuratedEnvironmentImagesOutput{Platforms: m.platforms}, nil
}

func codeBuildPlatform(platform string, images ...string) *codebuild.EnvironmentPlatform {
	envImages := make([]*codebuild.EnvironmentImage, 0, len(images))
	for _, image := range images {
		envImages = append(envImages, &codebuild.EnvironmentImage{Name: aws.String(image)})
	}
	return &codebuild.EnvironmentPlatform{
		Platform:  aws.String(platform),
		Languages: []*codebuild.EnvironmentLanguage{{Language: aws.String("STANDARD"), Images: envImages}},
	}
}

type mockEC2 struct {
	ec2iface.EC2API
	images        [][]*ec2.Image
	instanceTypes []string
	typeCalls     atomic.Int32
}

func (m *mockEC2) DescribeImagesWithContext(_ aws.Context, in *ec2.DescribeImagesInput, _ ...request.Option) (*ec2.DescribeImagesOutput, error) {
	page := 0
	if in.NextToken != nil {
		page = 1
	}
	out := &ec2.DescribeImagesOutput{Images: m.images[page]}
	if page+1 < len(m.images) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func (m *mockEC2) DescribeInstanceTypesPagesWithContext(_ aws.Context, _ *ec2.DescribeInstanceTypesInput, fn func(*ec2.DescribeInstanceTypesOutput, bool) bool, _ ...request.Option) error {
	m.typeCalls.Add(1)
	infos := make([]*ec2.InstanceTypeInfo, 0, len(m.instanceTypes))
	for _, name := range m.instanceTypes {
		infos = append(infos, &ec2.InstanceTypeInfo{InstanceType: aws.String(name)})
	}
	fn(&ec2.DescribeInstanceTypesOutput{InstanceTypes: infos}, true)
	return nil
}

type mockSSM struct {
	ssmiface.SSMAPI
	names []string
}

func (m *mockSSM) GetParametersByPathPagesWithContext(_ aws.Context, _ *ssm.GetParametersByPathInput, fn func(*ssm.GetParametersByPathOutput, bool) bool, _ ...request.Option) error {
	params := make([]*ssm.Parameter, 0, len(m.names))
	for _, name := range m.names {
		params = append(params, &ssm.Parameter{Name: aws.String(name)})
	}
	fn(&ssm.GetParametersByPathOutput{Parameters: params}, true)
	return nil
}

type mockBedrock struct {
	bedrockiface.BedrockAPI
	models [][2]string
}

func (m *mockBedrock) ListFoundationModelsWithContext(_ aws.Context, _ *bedrock.ListFoundationModelsInput, _ ...request.Option) (*bedrock.ListFoundationModelsOutput, error) {
	out := &bedrock.ListFoundationModelsOutput{}
	for _, model := range m.models {
		out.ModelSummaries = append(out.ModelSummaries, &bedrock.FoundationModelSummary{
			ModelId:        aws.String(model[0]),
			ModelLifecycle: &bedrock.FoundationModelLifecycle{Status: aws.String(model[1])},
		})
	}
	return out, nil
}

type mockECR struct {
	ecriface.ECRAPI
	tags []string
	in   *ecr.ListImagesInput
}

func (m *mockECR) ListImagesPagesWithContext(_ aws.Context, in *ecr.ListImagesInput, fn func(*ecr.ListImagesOutput, bool) bool, _ ...request.Option) error {
	m.in = in
	ids := make([]*ecr.ImageIdentifier, 0, len(m.tags))
	for _, tag := range m.tags {
		ids = append(ids, &ecr.ImageIdentifier{ImageTag: aws.String(tag)})
	}
	fn(&ecr.ListImagesOutput{ImageIds: ids}, true)
	return nil
}

func dv[T any](v T, deprecated bool) runner.DeprecableVersion[T] {
	return runner.DeprecableVersion[T]{Version: v, IsDeprecated: deprecated}
}
