package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ecr"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

var albControllerPath = cdkpath.Lib("aws-eks/lib/alb-controller.d.ts")

// The AWS Load Balancer Controller images are published to the EKS registry.
const (
	albControllerRepository = "amazon/aws-load-balancer-controller"
	albControllerRegistry   = "602401143452"
)

// AlbControllerVersion is an AWS Load Balancer Controller image tag and the
// Helm chart version CDK installs it with. Helm is empty for live versions.
type AlbControllerVersion struct {
	Version string
	Helm    string
}

var (
	albControllerConstructorPattern = regexp.MustCompile(`new AlbControllerVersion\('([\w.-]+)', '([\w.-]+)',\s*false\)`)
	albControllerSummaryPattern     = regexp.MustCompile(`\b(v\d+\.\d+\.\d+)\b`)

	// Tags such as v2.0.0-rc5 or v2.4.2-linux_amd64 are not releases.
	albControllerTagPattern = regexp.MustCompile(`^v\d+\.\d+\.\d+$`)
)

// albControllerFromName turns V2_8_2 into v2.8.2.
func albControllerFromName(name string) (AlbControllerVersion, bool) {
	if len(name) < 2 || name[0] != 'V' {
		return AlbControllerVersion{}, false
	}
	version := "v" + strings.ReplaceAll(name[1:], "_", ".")
	if !albControllerTagPattern.MatchString(version) {
		return AlbControllerVersion{}, false
	}
	return AlbControllerVersion{Version: version}, true
}

type albControllerAdapter struct {
	deps    Deps
	decoder runner.Decoder[AlbControllerVersion]
}

func newAlbControllerAdapter(deps Deps) *albControllerAdapter {
	return &albControllerAdapter{
		deps: deps,
		decoder: runner.Decoder[AlbControllerVersion]{
			Initializers: []runner.Pattern[AlbControllerVersion]{{
				Regexp: albControllerConstructorPattern,
				Build: func(m []string) (AlbControllerVersion, bool) {
					return AlbControllerVersion{Version: m[1], Helm: m[2]}, true
				},
			}},
			Summaries: []runner.Pattern[AlbControllerVersion]{{
				Regexp: albControllerSummaryPattern,
				Build: func(m []string) (AlbControllerVersion, bool) {
					return AlbControllerVersion{Version: m[1]}, true
				},
			}},
			Fallback: albControllerFromName,
		},
	}
}

func (a *albControllerAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[AlbControllerVersion], error) {
	facts, err := a.deps.staticFields(ctx, albControllerPath)
	if err != nil {
		return nil, err
	}
	return runner.StaticFieldVersions(ctx, facts, "AlbControllerVersion", a.decoder), nil
}

func (a *albControllerAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[AlbControllerVersion], error) {
	var versions []runner.DeprecableVersion[AlbControllerVersion]
	err := a.deps.Clients.ECR.ListImagesPagesWithContext(ctx, &ecr.ListImagesInput{
		RepositoryName: aws.String(albControllerRepository),
		RegistryId:     aws.String(albControllerRegistry),
		MaxResults:     aws.Int64(1000),
	}, func(page *ecr.ListImagesOutput, _ bool) bool {
		for _, image := range page.ImageIds {
			tag := aws.StringValue(image.ImageTag)
			if !albControllerTagPattern.MatchString(tag) {
				continue
			}
			versions = append(versions, runner.Live(AlbControllerVersion{Version: tag}, false))
		}
		return true
	})
	if err != nil {
		return nil, errors.Errorf("failed to list %s images: %w", albControllerRepository, err)
	}
	return dedupe(versions, func(v runner.DeprecableVersion[AlbControllerVersion]) string { return v.Version.Version }), nil
}

func (a *albControllerAdapter) Identity(declared, live AlbControllerVersion) bool {
	return declared.Version == live.Version
}

func (a *albControllerAdapter) ID(v AlbControllerVersion) string { return v.Version }

func (a *albControllerAdapter) Snippet(v runner.DeprecableVersion[AlbControllerVersion]) string {
	comment := fmt.Sprintf("/** %s */", v.Version.Version)
	if v.IsDeprecated {
		comment = fmt.Sprintf("/**\n * %s\n * @deprecated\n */", v.Version.Version)
	}

	value := fmt.Sprintf("AlbControllerVersion.of('%s')", v.Version.Version)
	if v.Version.Helm != "" {
		value = fmt.Sprintf("AlbControllerVersion.of('%s', '%s')", v.Version.Version, v.Version.Helm)
	}
	return fmt.Sprintf("%s\npublic static readonly %s = %s;", comment, "V"+constantName(strings.TrimPrefix(v.Version.Version, "v")), value)
}
