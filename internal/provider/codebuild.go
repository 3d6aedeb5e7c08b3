package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/codebuild"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// BuildImageClass is one of the CDK build image classes.
type BuildImageClass string

const (
	WindowsBuildImage        BuildImageClass = "WindowsBuildImage"
	LinuxBuildImage          BuildImageClass = "LinuxBuildImage"
	LinuxArmBuildImage       BuildImageClass = "LinuxArmBuildImage"
	LinuxLambdaBuildImage    BuildImageClass = "LinuxLambdaBuildImage"
	LinuxArmLambdaBuildImage BuildImageClass = "LinuxArmLambdaBuildImage"
)

// BuildImageClasses lists the classes in runner order.
var BuildImageClasses = []BuildImageClass{
	WindowsBuildImage,
	LinuxBuildImage,
	LinuxArmBuildImage,
	LinuxLambdaBuildImage,
	LinuxArmLambdaBuildImage,
}

var codeBuildImagePaths = map[BuildImageClass]cdkpath.Path{
	WindowsBuildImage:        cdkpath.Lib("aws-codebuild/lib/project.d.ts"),
	LinuxBuildImage:          cdkpath.Lib("aws-codebuild/lib/project.d.ts"),
	LinuxArmBuildImage:       cdkpath.Lib("aws-codebuild/lib/linux-arm-build-image.d.ts"),
	LinuxLambdaBuildImage:    cdkpath.Lib("aws-codebuild/lib/linux-lambda-build-image.d.ts"),
	LinuxArmLambdaBuildImage: cdkpath.Lib("aws-codebuild/lib/linux-arm-lambda-build-image.d.ts"),
}

// Platforms reported by ListCuratedEnvironmentImages.
const (
	platformAmazonLinux       = "AMAZON_LINUX"
	platformAmazonLinux2      = "AMAZON_LINUX_2"
	platformUbuntu            = "UBUNTU"
	platformWindowsServer2019 = "WINDOWS_SERVER_2019"
	platformWindowsServer2022 = "WINDOWS_SERVER_2022"
)

var (
	codeBuildFactoryPattern     = regexp.MustCompile(`\w+\.fromCodeBuildImageId\('([\w/.:-]+)'\)`)
	codeBuildConstructorPattern = regexp.MustCompile(`(?m)^\s*imageId: '([\w/.:-]+)'`)
	codeBuildSummaryPattern     = regexp.MustCompile(`(aws/codebuild/[\w/.:-]+)`)
)

// codeBuildImages holds the curated images of every class. It is fetched
// once for all the CodeBuild runners.
type codeBuildImages struct {
	call sharedCall[map[BuildImageClass][]string]
}

func (c *codeBuildImages) get(ctx context.Context, deps Deps) (map[BuildImageClass][]string, error) {
	return c.call.get(ctx, func(ctx context.Context) (map[BuildImageClass][]string, error) {
		out, err := deps.Clients.CodeBuild.ListCuratedEnvironmentImagesWithContext(ctx, &codebuild.ListCuratedEnvironmentImagesInput{})
		if err != nil {
			return nil, errors.Errorf("failed to list curated environment images: %w", err)
		}
		return classifyBuildImages(out.Platforms)
	})
}

// classifyBuildImages sorts curated images into the CDK class able to
// declare them.
func classifyBuildImages(platforms []*codebuild.EnvironmentPlatform) (map[BuildImageClass][]string, error) {
	images := make(map[BuildImageClass][]string, len(BuildImageClasses))
	for _, platform := range platforms {
		name := aws.StringValue(platform.Platform)
		for _, language := range platform.Languages {
			for _, image := range language.Images {
				id := aws.StringValue(image.Name)
				if id == "" {
					continue
				}

				class, ok, err := buildImageClass(name, id)
				if err != nil {
					return nil, err
				}
				if ok {
					images[class] = append(images[class], id)
				}
			}
		}
	}
	return images, nil
}

func buildImageClass(platform, id string) (BuildImageClass, bool, error) {
	arm := strings.Contains(id, "aarch64")
	lambda := strings.Contains(id, "lambda")

	switch platform {
	case platformWindowsServer2019, platformWindowsServer2022:
		return WindowsBuildImage, true, nil
	case platformUbuntu, platformAmazonLinux2, platformAmazonLinux:
	default:
		return "", false, errors.Errorf("unknown platform %q for image %s", platform, id)
	}

	switch {
	case lambda && arm:
		return LinuxArmLambdaBuildImage, true, nil
	case lambda:
		return LinuxLambdaBuildImage, true, nil
	case platform == platformAmazonLinux:
		// Only the lambda images of Amazon Linux 1 are supported by the CDK.
		return "", false, nil
	case arm:
		return LinuxArmBuildImage, true, nil
	default:
		return LinuxBuildImage, true, nil
	}
}

type codeBuildAdapter struct {
	deps    Deps
	class   BuildImageClass
	images  *codeBuildImages
	decoder runner.Decoder[string]
}

func newCodeBuildAdapter(deps Deps, class BuildImageClass, images *codeBuildImages) *codeBuildAdapter {
	first := func(m []string) (string, bool) { return m[1], true }
	return &codeBuildAdapter{
		deps:   deps,
		class:  class,
		images: images,
		decoder: runner.Decoder[string]{
			Initializers: []runner.Pattern[string]{
				{Regexp: codeBuildFactoryPattern, Build: first},
				{Regexp: codeBuildConstructorPattern, Build: first},
			},
			Summaries: []runner.Pattern[string]{{
				Regexp: codeBuildSummaryPattern,
				Build: func(m []string) (string, bool) {
					return strings.TrimRight(m[1], "."), true
				},
			}},
		},
	}
}

func (a *codeBuildAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	facts, err := a.deps.staticFields(ctx, codeBuildImagePaths[a.class])
	if err != nil {
		return nil, err
	}
	return runner.StaticFieldVersions(ctx, facts, string(a.class), a.decoder), nil
}

func (a *codeBuildAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	images, err := a.images.get(ctx, a.deps)
	if err != nil {
		return nil, err
	}

	versions := make([]runner.DeprecableVersion[string], 0, len(images[a.class]))
	for _, id := range images[a.class] {
		versions = append(versions, runner.Live(id, false))
	}
	return versions, nil
}

func (a *codeBuildAdapter) Identity(declared, live string) bool { return declared == live }

func (a *codeBuildAdapter) ID(v string) string { return v }

func (a *codeBuildAdapter) Snippet(v runner.DeprecableVersion[string]) string {
	name := v.Version[strings.LastIndex(v.Version, "/")+1:]
	comment := fmt.Sprintf("/** The `%s` build image. */", v.Version)
	if v.IsDeprecated {
		comment = fmt.Sprintf("/**\n * The `%s` build image.\n * @deprecated No longer supported by AWS CodeBuild.\n */", v.Version)
	}
	return fmt.Sprintf("%s\npublic static readonly %s: IBuildImage = %s.fromCodeBuildImageId('%s');", comment, constantName(name), a.class, v.Version)
}
