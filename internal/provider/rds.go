package provider

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"gitlab.com/tozd/go/errors"

	"github.com/nmussy/cdk-sdk-versions/internal/cdkpath"
	"github.com/nmussy/cdk-sdk-versions/internal/runner"
)

// EngineVersion is an RDS engine version, as passed to <Engine>EngineVersion.of().
type EngineVersion struct {
	Full  string
	Major string
}

type rdsSnippetStyle int

const (
	rdsInstanceStyle rdsSnippetStyle = iota
	rdsPostgresStyle
	rdsAuroraMysqlStyle
)

// rdsEngine describes one engine version class of aws-rds.
type rdsEngine struct {
	name    string
	class   string
	human   string
	engines []string
	path    cdkpath.Path
	style   rdsSnippetStyle
}

var (
	rdsInstanceEnginePath = cdkpath.Lib("aws-rds/lib/instance-engine.d.ts")
	rdsClusterEnginePath  = cdkpath.Lib("aws-rds/lib/cluster-engine.d.ts")
)

var rdsEngines = []rdsEngine{
	{name: "rds-mysql", class: "MysqlEngineVersion", human: "MySQL", engines: []string{"mysql"}, path: rdsInstanceEnginePath},
	{name: "rds-mariadb", class: "MariaDbEngineVersion", human: "MariaDB", engines: []string{"mariadb"}, path: rdsInstanceEnginePath},
	{name: "rds-postgres", class: "PostgresEngineVersion", human: "PostgreSQL", engines: []string{"postgres"}, path: rdsInstanceEnginePath, style: rdsPostgresStyle},
	{
		name:    "rds-oracle",
		class:   "OracleEngineVersion",
		human:   "Oracle",
		engines: []string{"oracle-se2", "oracle-se2-cdb", "oracle-ee", "oracle-ee-cdb"},
		path:    rdsInstanceEnginePath,
	},
	{
		name:    "rds-sqlserver",
		class:   "SqlServerEngineVersion",
		human:   "SQL Server",
		engines: []string{"sqlserver-se", "sqlserver-ex", "sqlserver-web", "sqlserver-ee"},
		path:    rdsInstanceEnginePath,
	},
	{name: "rds-aurora-mysql", class: "AuroraMysqlEngineVersion", human: "Aurora MySQL", engines: []string{"aurora-mysql"}, path: rdsClusterEnginePath, style: rdsAuroraMysqlStyle},
	{name: "rds-aurora-postgres", class: "AuroraPostgresEngineVersion", human: "Aurora PostgreSQL", engines: []string{"aurora-postgresql"}, path: rdsClusterEnginePath, style: rdsPostgresStyle},
}

var (
	rdsOfPattern          = regexp.MustCompile(`\.of\(\s*'([^']+)'\s*,\s*'([^']+)'`)
	rdsBuiltInPattern     = regexp.MustCompile(`\.builtIn_(\d+)_(\d+)\(\s*'([^']+)'`)
	rdsSummaryPattern     = regexp.MustCompile(`Version "([^"]+)"`)
	rdsMajorOnlyPattern   = regexp.MustCompile(`Version "([^"]+)" \(only a major version`)
	rdsOracleRUPattern    = regexp.MustCompile(`\.(\d{4})\.(\d{2})\.[rR](\w+)$`)
	rdsOracleRUKeyPattern = regexp.MustCompile(`RU.+RUR[_-]`)
)

type rdsAdapter struct {
	deps    Deps
	engine  rdsEngine
	decoder runner.Decoder[EngineVersion]
}

func newRDSAdapter(deps Deps, engine rdsEngine) *rdsAdapter {
	return &rdsAdapter{
		deps:   deps,
		engine: engine,
		decoder: runner.Decoder[EngineVersion]{
			Initializers: []runner.Pattern[EngineVersion]{
				{Regexp: rdsOfPattern, Build: func(m []string) (EngineVersion, bool) {
					return EngineVersion{Full: m[1], Major: m[2]}, true
				}},
				{Regexp: rdsBuiltInPattern, Build: func(m []string) (EngineVersion, bool) {
					builtIn := m[1] + "." + m[2]
					return EngineVersion{Full: builtIn + ".mysql_aurora." + m[3], Major: builtIn}, true
				}},
			},
			Summaries: []runner.Pattern[EngineVersion]{
				{Regexp: rdsMajorOnlyPattern, Build: func(m []string) (EngineVersion, bool) {
					return EngineVersion{Full: m[1], Major: m[1]}, true
				}},
				{Regexp: rdsSummaryPattern, Build: func(m []string) (EngineVersion, bool) {
					return EngineVersion{Full: m[1], Major: rdsMajorVersion(engine.class, m[1])}, true
				}},
			},
			Fallback: func(name string) (EngineVersion, bool) {
				return rdsVersionFromName(engine.class, name)
			},
		},
	}
}

// rdsMajorVersion derives the major version CDK pairs with a full version.
func rdsMajorVersion(class, full string) string {
	parts := strings.Split(full, ".")
	n := len(parts) - 1
	switch class {
	case "OracleEngineVersion":
		n = 1
	case "SqlServerEngineVersion", "AuroraMysqlEngineVersion":
		n = 2
	}
	if n <= 0 || n > len(parts) {
		return full
	}
	return strings.Join(parts[:n], ".")
}

// rdsVersionFromName reconstructs a version from a VER_x_y field name.
func rdsVersionFromName(class, name string) (EngineVersion, bool) {
	if !strings.HasPrefix(name, "VER_") {
		return EngineVersion{}, false
	}
	full := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(name, "VER_"), "_", "."))

	if class == "OracleEngineVersion" {
		full = rdsOracleRUPattern.ReplaceAllString(full, ".ru-${1}-${2}.rur-${1}-${2}.r${3}")
	}
	major := rdsMajorVersion(class, full)

	if class == "AuroraMysqlEngineVersion" {
		builtIn := "8.0"
		if first, err := strconv.Atoi(strings.Split(full, ".")[0]); err == nil && first <= 2 {
			builtIn = "5.7"
		}
		full = builtIn + ".mysql_aurora." + full
		major = builtIn
	}

	return EngineVersion{Full: full, Major: major}, true
}

func (a *rdsAdapter) DeclaredVersions(ctx context.Context) ([]runner.DeprecableVersion[EngineVersion], error) {
	facts, err := a.deps.staticFields(ctx, a.engine.path)
	if err != nil {
		return nil, err
	}

	var versions []runner.DeprecableVersion[EngineVersion]
	for _, v := range runner.StaticFieldVersions(ctx, facts, a.engine.class, a.decoder) {
		// Major only constants never match a live version.
		if v.Version.Full == v.Version.Major {
			continue
		}
		versions = append(versions, v)
	}
	return versions, nil
}

func (a *rdsAdapter) LiveVersions(ctx context.Context) ([]runner.DeprecableVersion[EngineVersion], error) {
	var versions []runner.DeprecableVersion[EngineVersion]
	for _, engine := range a.engine.engines {
		input := &rds.DescribeDBEngineVersionsInput{
			Engine:     aws.String(engine),
			IncludeAll: aws.Bool(true),
			MaxRecords: aws.Int64(100),
		}
		err := a.deps.Clients.RDS.DescribeDBEngineVersionsPagesWithContext(ctx, input, func(page *rds.DescribeDBEngineVersionsOutput, _ bool) bool {
			for _, v := range page.DBEngineVersions {
				full := aws.StringValue(v.EngineVersion)
				if full == "" {
					continue
				}
				versions = append(versions, runner.DeprecableVersion[EngineVersion]{
					Version:      EngineVersion{Full: full, Major: aws.StringValue(v.MajorEngineVersion)},
					IsDeprecated: aws.StringValue(v.Status) != "available",
				})
			}
			return true
		})
		if err != nil {
			return nil, errors.Errorf("failed to describe %s engine versions: %w", engine, err)
		}
	}

	// Editions of the same engine share versions.
	return dedupe(versions, func(v runner.DeprecableVersion[EngineVersion]) string { return v.Version.Full }), nil
}

func (a *rdsAdapter) Identity(declared, live EngineVersion) bool {
	return declared.Full == live.Full
}

func (a *rdsAdapter) ID(v EngineVersion) string {
	return a.engine.class + ".VER_" + strings.ReplaceAll(strings.ToUpper(v.Full), ".", "_")
}

// Ignore drops PostgreSQL 9.4, which was deprecated before CDK supported it.
func (a *rdsAdapter) Ignore(v runner.DeprecableVersion[EngineVersion]) bool {
	return a.engine.class == "PostgresEngineVersion" && strings.HasPrefix(v.Version.Full, "9.4.")
}

func (a *rdsAdapter) Snippet(v runner.DeprecableVersion[EngineVersion]) string {
	full, major := v.Version.Full, v.Version.Major

	var comment string
	if v.IsDeprecated {
		comment = fmt.Sprintf("/**\n * Version %q\n * @deprecated %s %s is no longer supported by Amazon RDS.\n */", full, a.engine.human, full)
	} else {
		comment = fmt.Sprintf("/** Version %q. */", full)
	}

	var field string
	switch a.engine.style {
	case rdsPostgresStyle:
		field = fmt.Sprintf("public static readonly VER_%s = %s.of('%s', '%s'%s);",
			strings.ReplaceAll(full, ".", "_"), a.engine.class, full, major, postgresFeatures(full))
	case rdsAuroraMysqlStyle:
		if parts := strings.Split(full, "."); len(parts) > 3 {
			field = fmt.Sprintf("public static readonly VER_%s = %s.builtIn_%s_%s('%s');",
				strings.Join(parts[len(parts)-3:], "_"), a.engine.class, parts[0], parts[1], strings.Join(parts[3:], "."))
			break
		}
		fallthrough
	default:
		key := strings.NewReplacer(".", "_", "-", "_").Replace(strings.ToUpper(full))
		key = rdsOracleRUKeyPattern.ReplaceAllString(key, "")
		field = fmt.Sprintf("public static readonly VER_%s = %s.of('%s', '%s');", key, a.engine.class, full, major)
	}

	return comment + "\n" + field
}

// postgresFeatures returns the engine features PostgreSQL supports from a
// given version on.
func postgresFeatures(full string) string {
	parts := strings.Split(full, ".")
	if len(parts) < 2 {
		return ""
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return ""
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return ""
	}

	switch {
	case major <= 9 || major == 10 && minor <= 6:
		return ""
	case major == 10 && minor <= 13, major == 11 && minor <= 8, major == 12 && minor <= 3:
		return ", { s3Import: true }"
	default:
		return ", { s3Import: true, s3Export: true }"
	}
}
