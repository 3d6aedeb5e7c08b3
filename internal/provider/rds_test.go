package provider

import (
	"testing"

	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the RDS runners:
// - Declared versions come from doc summaries and major-only constants are dropped
// - Live versions of every edition are merged and deduplicated
// - Non "available" live versions are deprecated
// - PostgreSQL 9.4 is ignored on the live side
// - Snippets follow the per-engine declaration style
// - Field names decode through the naming convention when nothing else matches

func TestRDS_MySQL(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t, &Clients{RDS: &mockRDS{versions: map[string][]*rds.DBEngineVersion{
		"mysql": {
			rdsVersion("5.7.44", "5.7", "deprecated"),
			rdsVersion("8.0.35", "8.0", "available"),
			rdsVersion("8.0.40", "8.0", "available"),
		},
	}}})

	report := runNamed(t, deps, "rds-mysql")

	assert.Equal(t, 3, report.Declared)
	assert.Equal(t, 3, report.Live)
	assert.Equal(t, []string{
		"ADD MysqlEngineVersion.VER_8_0_40",
		"REMOVE MysqlEngineVersion.VER_8_0_36",
	}, entries(report))

	assert.Equal(t,
		"/** Version \"8.0.40\". */\npublic static readonly VER_8_0_40 = MysqlEngineVersion.of('8.0.40', '8.0');",
		report.Entries[0].Snippet)
	assert.Equal(t,
		"/**\n * Version \"8.0.36\"\n * @deprecated MySQL 8.0.36 is no longer supported by Amazon RDS.\n */\npublic static readonly VER_8_0_36 = MysqlEngineVersion.of('8.0.36', '8.0');",
		report.Entries[1].Snippet)
}

func TestRDS_Postgres(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t, &Clients{RDS: &mockRDS{versions: map[string][]*rds.DBEngineVersion{
		"postgres": {
			rdsVersion("9.4.26", "9.4", "available"),
			rdsVersion("15.5", "15", "deprecated"),
			rdsVersion("16.2", "16", "available"),
			rdsVersion("16.3", "16", "available"),
		},
	}}})

	report := runNamed(t, deps, "rds-postgres")

	assert.Equal(t, 3, report.Live)
	assert.Equal(t, []string{
		"ADD PostgresEngineVersion.VER_16_3",
		"UPDATE_DEPRECATED PostgresEngineVersion.VER_15_5",
	}, entries(report))
	assert.Equal(t,
		"/** Version \"16.3\". */\npublic static readonly VER_16_3 = PostgresEngineVersion.of('16.3', '16', { s3Import: true, s3Export: true });",
		report.Entries[0].Snippet)
}

func TestRDS_OracleEditionsAreMerged(t *testing.T) {
	t.Parallel()

	current := rdsVersion("19.0.0.0.ru-2024-01.rur-2024-01.r1", "19", "available")
	mock := &mockRDS{versions: map[string][]*rds.DBEngineVersion{
		"oracle-se2": {current},
		"oracle-ee": {
			current,
			rdsVersion("19.0.0.0.ru-2024-04.rur-2024-04.r1", "19", "available"),
		},
	}}
	deps := newTestDeps(t, &Clients{RDS: mock})

	report := runNamed(t, deps, "rds-oracle")

	assert.Equal(t, []string{"oracle-se2", "oracle-se2-cdb", "oracle-ee", "oracle-ee-cdb"}, mock.engines)
	assert.Equal(t, 1, report.Declared)
	assert.Equal(t, 2, report.Live)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "ADD OracleEngineVersion.VER_19_0_0_0_RU-2024-04_RUR-2024-04_R1", entries(report)[0])
	assert.Contains(t, report.Entries[0].Snippet,
		"public static readonly VER_19_0_0_0_2024_04_R1 = OracleEngineVersion.of('19.0.0.0.ru-2024-04.rur-2024-04.r1', '19');")
}

func TestRDS_AuroraMySQL(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t, &Clients{RDS: &mockRDS{versions: map[string][]*rds.DBEngineVersion{
		"aurora-mysql": {
			rdsVersion("8.0.mysql_aurora.3.05.2", "8.0", "available"),
			rdsVersion("8.0.mysql_aurora.3.06.0", "8.0", "available"),
		},
	}}})

	report := runNamed(t, deps, "rds-aurora-mysql")

	assert.Equal(t, []string{"ADD AuroraMysqlEngineVersion.VER_8_0_MYSQL_AURORA_3_06_0"}, entries(report))
	assert.Equal(t,
		"/** Version \"8.0.mysql_aurora.3.06.0\". */\npublic static readonly VER_3_06_0 = AuroraMysqlEngineVersion.builtIn_8_0('3.06.0');",
		report.Entries[0].Snippet)
}

func TestRDSVersionFromName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class string
		name  string
		want  EngineVersion
		ok    bool
	}{
		{"MysqlEngineVersion", "VER_8_0_35", EngineVersion{Full: "8.0.35", Major: "8.0"}, true},
		{"PostgresEngineVersion", "VER_16_3", EngineVersion{Full: "16.3", Major: "16"}, true},
		{"OracleEngineVersion", "VER_19_0_0_0_2024_01_R1", EngineVersion{Full: "19.0.0.0.ru-2024-01.rur-2024-01.r1", Major: "19"}, true},
		{"SqlServerEngineVersion", "VER_16_00_4095_4_V1", EngineVersion{Full: "16.00.4095.4.v1", Major: "16.00"}, true},
		{"AuroraMysqlEngineVersion", "VER_3_05_2", EngineVersion{Full: "8.0.mysql_aurora.3.05.2", Major: "8.0"}, true},
		{"AuroraMysqlEngineVersion", "VER_2_11_2", EngineVersion{Full: "5.7.mysql_aurora.2.11.2", Major: "5.7"}, true},
		{"MysqlEngineVersion", "LATEST", EngineVersion{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.class+"/"+tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := rdsVersionFromName(tt.class, tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgresFeatures(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", postgresFeatures("9.6.1"))
	assert.Equal(t, "", postgresFeatures("10.5"))
	assert.Equal(t, ", { s3Import: true }", postgresFeatures("10.13"))
	assert.Equal(t, ", { s3Import: true }", postgresFeatures("12.3"))
	assert.Equal(t, ", { s3Import: true, s3Export: true }", postgresFeatures("12.4"))
	assert.Equal(t, ", { s3Import: true, s3Export: true }", postgresFeatures("16.3"))
	assert.Equal(t, "", postgresFeatures("16"))
}
