package provider

import (
	"strings"

	"github.com/gobwas/glob"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// GroupAll selects every runner.
const GroupAll = "all"

// Groups lists the runner groups. A group holds the runner of the same name
// and every runner prefixed with "<group>-".
var Groups = []string{"rds", "kafka", "opensearch", "synthetics", "codebuild", "ec2", "bedrock", "eks", GroupAll}

var codeBuildRunnerNames = map[BuildImageClass]string{
	WindowsBuildImage:        "codebuild-windows",
	LinuxBuildImage:          "codebuild-linux",
	LinuxArmBuildImage:       "codebuild-linux-arm",
	LinuxLambdaBuildImage:    "codebuild-linux-lambda",
	LinuxArmLambdaBuildImage: "codebuild-linux-arm-lambda",
}

// Registry holds every runner, in report order.
type Registry struct {
	runners []runner.Runner
}

// NewRegistry builds every runner on top of deps. Runners of the same family
// share their live calls.
func NewRegistry(deps Deps) *Registry {
	var runners []runner.Runner
	for _, engine := range rdsEngines {
		runners = append(runners, runner.New[EngineVersion](engine.name, newRDSAdapter(deps, engine)))
	}

	runners = append(runners,
		runner.New[string]("kafka", newKafkaAdapter(deps)),
		runner.New[string]("opensearch", newOpenSearchAdapter(deps)),
		runner.New[SyntheticsRuntime]("synthetics", newSyntheticsAdapter(deps)),
	)

	images := &codeBuildImages{}
	for _, class := range BuildImageClasses {
		runners = append(runners, runner.New[string](codeBuildRunnerNames[class], newCodeBuildAdapter(deps, class, images)))
	}

	types := &instanceTypes{}
	runners = append(runners,
		runner.New[string]("ec2-windows-version", &windowsVersionAdapter{deps: deps}),
		runner.New[string]("ec2-windows-specific-version", &windowsSpecificVersionAdapter{deps: deps}),
		runner.New[string]("ec2-instance-class", &instanceTypeAdapter{deps: deps, component: instanceClassComponent, types: types}),
		runner.New[string]("ec2-instance-size", &instanceTypeAdapter{deps: deps, component: instanceSizeComponent, types: types}),
		runner.New[string]("bedrock", newBedrockAdapter(deps)),
		runner.New[AlbControllerVersion]("eks-alb-controller", newAlbControllerAdapter(deps)),
	)

	return &Registry{runners: runners}
}

// Names returns the runner names in report order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.runners))
	for i, rn := range r.runners {
		names[i] = rn.Name()
	}
	return names
}

// Group returns the names of the runners in group.
func (r *Registry) Group(group string) []string {
	var names []string
	for _, name := range r.Names() {
		if inGroup(group, name) {
			names = append(names, name)
		}
	}
	return names
}

func inGroup(group, name string) bool {
	return group == GroupAll || name == group || strings.HasPrefix(name, group+"-")
}

func isGroup(selector string) bool {
	for _, g := range Groups {
		if g == selector {
			return true
		}
	}
	return false
}

// Select returns the runners matching any selector, in report order. A
// selector is a runner name, a group or a glob such as "rds-*". No selector
// selects every runner.
func (r *Registry) Select(selectors ...string) ([]runner.Runner, error) {
	if len(selectors) == 0 {
		return r.runners, nil
	}

	matchers := make([]func(string) bool, 0, len(selectors))
	for _, selector := range selectors {
		if isGroup(selector) {
			group := selector
			matchers = append(matchers, func(name string) bool { return inGroup(group, name) })
			continue
		}

		g, err := glob.Compile(selector)
		if err != nil {
			return nil, errors.Errorf("%w: invalid pattern %q: %s", ErrUnknownRunner, selector, err)
		}
		if !r.any(g.Match) {
			return nil, errors.Errorf("%w: %s", ErrUnknownRunner, selector)
		}
		matchers = append(matchers, g.Match)
	}

	var selected []runner.Runner
	for _, rn := range r.runners {
		for _, match := range matchers {
			if match(rn.Name()) {
				selected = append(selected, rn)
				break
			}
		}
	}
	return selected, nil
}

func (r *Registry) any(match func(string) bool) bool {
	for _, rn := range r.runners {
		if match(rn.Name()) {
			return true
		}
	}
	return false
}
