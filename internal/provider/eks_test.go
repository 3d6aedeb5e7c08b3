package provider

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the EKS ALB controller runner:
// - Only vX.Y.Z image tags of the controller repository are live versions
// - Duplicate tags are listed once
// - Declared versions come from summaries and field names
// - Removed versions render as deprecated declarations

func TestAlbController(t *testing.T) {
	t.Parallel()

	mock := &mockECR{tags: []string{
		"v2.6.2", "v2.8.2", "v2.8.2", "v2.9.0", "v2.9.0-linux_amd64", "v2.0.0-rc5", "latest",
	}}
	deps := newTestDeps(t, &Clients{ECR: mock})

	report := runNamed(t, deps, "eks-alb-controller")

	require.NotNil(t, mock.in)
	assert.Equal(t, albControllerRepository, aws.StringValue(mock.in.RepositoryName))
	assert.Equal(t, albControllerRegistry, aws.StringValue(mock.in.RegistryId))

	assert.Equal(t, 3, report.Declared)
	assert.Equal(t, 3, report.Live)
	assert.Equal(t, []string{"ADD v2.9.0", "REMOVE v2.0.0"}, entries(report))
	assert.Equal(t, "/** v2.9.0 */\npublic static readonly V2_9_0 = AlbControllerVersion.of('v2.9.0');", report.Entries[0].Snippet)
	assert.Equal(t, "/**\n * v2.0.0\n * @deprecated\n */\npublic static readonly V2_0_0 = AlbControllerVersion.of('v2.0.0');", report.Entries[1].Snippet)
}

func TestAlbControllerFromName(t *testing.T) {
	t.Parallel()

	v, ok := albControllerFromName("V2_8_2")
	assert.True(t, ok)
	assert.Equal(t, AlbControllerVersion{Version: "v2.8.2"}, v)

	_, ok = albControllerFromName("V2_8")
	assert.False(t, ok)

	_, ok = albControllerFromName("LATEST")
	assert.False(t, ok)
}

func TestAlbController_Snippet(t *testing.T) {
	t.Parallel()

	a := newAlbControllerAdapter(Deps{})
	snippet := a.Snippet(dv(AlbControllerVersion{Version: "v2.4.1", Helm: "1.4.1"}, false))
	assert.Equal(t, "/** v2.4.1 */\npublic static readonly V2_4_1 = AlbControllerVersion.of('v2.4.1', '1.4.1');", snippet)
}
