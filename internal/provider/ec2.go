package provider

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ssm"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/declaration"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

var (
	windowsVersionsPath = cdkpath.Lib("aws-ec2/lib/windows-versions.d.ts")
	instanceTypesPath   = cdkpath.Lib("aws-ec2/lib/instance-types.d.ts")
)

const windowsLatestParameterPath = "/aws/service/ami-windows-latest"

// windowsDatedPattern matches the AMI names pinned to a release date.
var windowsDatedPattern = regexp.MustCompile(`\d{4}\.\d{2}\.\d{2}$`)

// windowsVersionAdapter reconciles the WindowsVersion members tracking the
// latest AMI. Dated members are handled by windowsSpecificVersionAdapter.
type windowsVersionAdapter struct {
	deps Deps
}

func windowsVersions(ctx context.Context, deps Deps, dated bool) ([]runner.DeprecableVersion[string], error) {
	facts, err := deps.enumMembers(ctx, windowsVersionsPath)
	if err != nil {
		return nil, err
	}
	return runner.EnumMemberVersions(facts, "WindowsVersion", func(f declaration.EnumMemberFact) (string, bool) {
		return f.MemberValue, f.MemberValue != "" && windowsDatedPattern.MatchString(f.MemberValue) == dated
	}), nil
}

func (a *windowsVersionAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	return windowsVersions(ctx, a.deps, false)
}

func (a *windowsVersionAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	prefix := windowsLatestParameterPath + "/"

	var versions []runner.DeprecableVersion[string]
	err := a.deps.Clients.SSM.GetParametersByPathPagesWithContext(ctx, &ssm.GetParametersByPathInput{
		Path:       aws.String(windowsLatestParameterPath),
		MaxResults: aws.Int64(10),
	}, func(page *ssm.GetParametersByPathOutput, _ bool) bool {
		for _, p := range page.Parameters {
			name, ok := strings.CutPrefix(aws.StringValue(p.Name), prefix)
			if !ok || !strings.HasPrefix(name, "Windows_Server") {
				continue
			}
			versions = append(versions, runner.Live(name, false))
		}
		return true
	})
	if err != nil {
		return nil, errors.Errorf("failed to get windows ami parameters: %w", err)
	}
	return dedupe(versions, versionString), nil
}

func (a *windowsVersionAdapter) Identity(declared, live string) bool { return declared == live }

func (a *windowsVersionAdapter) ID(v string) string { return v }

func (a *windowsVersionAdapter) Snippet(v runner.DeprecableVersion[string]) string {
	return enumSnippet(v.Version, v.IsDeprecated)
}

// windowsSpecificVersionAdapter reconciles the dated WindowsVersion members
// against the AMIs published by Amazon.
type windowsSpecificVersionAdapter struct {
	deps Deps
}

func (a *windowsSpecificVersionAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	return windowsVersions(ctx, a.deps, true)
}

func (a *windowsSpecificVersionAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	now := a.deps.now()

	var (
		versions []runner.DeprecableVersion[string]
		token    *string
	)
	for {
		page, err := a.deps.Clients.EC2.DescribeImagesWithContext(ctx, &ec2.DescribeImagesInput{
			Owners: aws.StringSlice([]string{"amazon"}),
			Filters: []*ec2.Filter{{
				Name:   aws.String("name"),
				Values: aws.StringSlice([]string{"Windows_Server*"}),
			}},
			MaxResults: aws.Int64(1000),
			NextToken:  token,
		})
		if err != nil {
			return nil, errors.Errorf("failed to describe windows images: %w", err)
		}

		for _, image := range page.Images {
			name := aws.StringValue(image.Name)
			if !windowsDatedPattern.MatchString(name) {
				continue
			}
			versions = append(versions, runner.Live(name, imageDeprecated(image, now)))
		}

		token = page.NextToken
		if aws.StringValue(token) == "" {
			return dedupe(versions, versionString), nil
		}
	}
}

// imageDeprecated reports whether the deprecation time of image has passed.
func imageDeprecated(image *ec2.Image, now time.Time) bool {
	deprecation := aws.StringValue(image.DeprecationTime)
	if deprecation == "" {
		return false
	}
	t, err := time.Parse(time.RFC3339, deprecation)
	return err == nil && t.Before(now)
}

func (a *windowsSpecificVersionAdapter) Identity(declared, live string) bool { return declared == live }

func (a *windowsSpecificVersionAdapter) ID(v string) string { return v }

func (a *windowsSpecificVersionAdapter) Snippet(v runner.DeprecableVersion[string]) string {
	return enumSnippet(v.Version, v.IsDeprecated)
}

// ignoredInstanceClasses are either declared by CDK but never listed in
// us-east-1, or previous generations CDK never declared.
var ignoredInstanceClasses = map[string]struct{}{
	"x2g":   {},
	"p4de":  {},
	"hpc6a": {},
	"t1":    {},
	"c1":    {},
	"m1":    {},
	"m2":    {},
	"i2":    {},
}

// instanceTypes holds every instance type name, fetched once for the class
// and size runners.
type instanceTypes struct {
	call sharedCall[[]string]
}

func (t *instanceTypes) get(ctx context.Context, deps Deps) ([]string, error) {
	return t.call.get(ctx, func(ctx context.Context) ([]string, error) {
		var names []string
		err := deps.Clients.EC2.DescribeInstanceTypesPagesWithContext(ctx, &ec2.DescribeInstanceTypesInput{
			MaxResults: aws.Int64(100),
		}, func(page *ec2.DescribeInstanceTypesOutput, _ bool) bool {
			for _, info := range page.InstanceTypes {
				names = append(names, aws.StringValue(info.InstanceType))
			}
			return true
		})
		if err != nil {
			return nil, errors.Errorf("failed to describe instance types: %w", err)
		}
		return names, nil
	})
}

// splitInstanceType splits "m5.xlarge" into its class and size.
func splitInstanceType(name string) (class, size string, err error) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("cannot parse instance class and size of %q", name)
	}
	return parts[0], parts[1], nil
}

type instanceComponent int

const (
	instanceClassComponent instanceComponent = iota
	instanceSizeComponent
)

// instanceTypeAdapter reconciles one of the InstanceClass or InstanceSize enums.
type instanceTypeAdapter struct {
	deps      Deps
	component instanceComponent
	types     *instanceTypes
}

func (a *instanceTypeAdapter) enumName() string {
	if a.component == instanceClassComponent {
		return "InstanceClass"
	}
	return "InstanceSize"
}

func (a *instanceTypeAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	facts, err := a.deps.enumMembers(ctx, instanceTypesPath)
	if err != nil {
		return nil, err
	}

	if a.component == instanceClassComponent {
		facts = instanceClassLiterals(facts)
	}
	versions := runner.EnumMemberVersions(facts, a.enumName(), func(f declaration.EnumMemberFact) (string, bool) {
		return f.MemberValue, f.MemberValue != ""
	})
	return dedupe(versions, versionString), nil
}

// instanceClassLiterals keeps the literal members of InstanceClass, e.g. M5
// out of STANDARD5 and M5. A symbolic alias is declared right before its
// literal member with the same doc summary. A member without such a
// neighbour stands for itself. Ignored classes are dropped.
func instanceClassLiterals(facts []declaration.EnumMemberFact) []declaration.EnumMemberFact {
	var members []declaration.EnumMemberFact
	for _, f := range facts {
		if f.EnumName == "InstanceClass" {
			members = append(members, f)
		}
	}

	var literals []declaration.EnumMemberFact
	for i := 0; i < len(members); i++ {
		member := members[i]
		if next := i + 1; next < len(members) && member.Summary != "" && members[next].Summary == member.Summary {
			alias := member
			member = members[next]
			member.IsDeprecated = member.IsDeprecated || alias.IsDeprecated
			i = next
		}
		if _, ignored := ignoredInstanceClasses[member.MemberValue]; ignored {
			continue
		}
		literals = append(literals, member)
	}
	return literals
}

func (a *instanceTypeAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[string], error) {
	names, err := a.types.get(ctx, a.deps)
	if err != nil {
		return nil, err
	}

	var versions []runner.DeprecableVersion[string]
	for _, name := range names {
		class, size, err := splitInstanceType(name)
		if err != nil {
			return nil, err
		}
		v := size
		if a.component == instanceClassComponent {
			v = class
		}
		versions = append(versions, runner.Live(v, false))
	}
	return dedupe(versions, versionString), nil
}

func (a *instanceTypeAdapter) Ignore(v runner.DeprecableVersion[string]) bool {
	if a.component != instanceClassComponent {
		return false
	}
	_, ignored := ignoredInstanceClasses[v.Version]
	return ignored
}

func (a *instanceTypeAdapter) Identity(declared, live string) bool { return declared == live }

func (a *instanceTypeAdapter) ID(v string) string { return v }

func (a *instanceTypeAdapter) Snippet(v runner.DeprecableVersion[string]) string {
	return enumSnippet(v.Version, v.IsDeprecated)
}
