package provider

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// Test Plan for the Kafka runner:
// - Declared versions come from the summaries, live versions from ListKafkaVersions
// - Non ACTIVE live versions are deprecated
// - Field names such as V2_8_2_TIERED decode to 2.8.2.tiered
// - Live failures are returned to the caller

func kafkaVersion(version, status string) *kafka.KafkaVersion {
	return &kafka.KafkaVersion{Version: aws.String(version), Status: aws.String(status)}
}

func TestKafka(t *testing.T) {
	t.Parallel()

	deps := newTestDeps(t, &Clients{Kafka: &mockKafka{versions: []*kafka.KafkaVersion{
		kafkaVersion("2.8.0", kafka.KafkaVersionStatusDeprecated),
		kafkaVersion("3.5.1", kafka.KafkaVersionStatusActive),
		kafkaVersion("3.7.x", kafka.KafkaVersionStatusActive),
	}}})

	report := runNamed(t, deps, "kafka")

	assert.Equal(t, 3, report.Declared)
	assert.Equal(t, []string{"ADD 3.7.x", "REMOVE 3.6.0"}, entries(report))
	assert.Equal(t, "/** Kafka version 3.7.x */\npublic static readonly V3_7_X = KafkaVersion.of('3.7.x');", report.Entries[0].Snippet)
	assert.Contains(t, report.Entries[1].Snippet, "@deprecated use the latest runtime instead")
}

func TestKafka_LiveError(t *testing.T) {
	t.Parallel()

	boom := errors.New("throttled")
	deps := newTestDeps(t, &Clients{Kafka: &mockKafka{err: boom}})

	runners, err := NewRegistry(deps).Select("kafka")
	require.NoError(t, err)

	_, err = runners[0].Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestKafkaVersionFromName(t *testing.T) {
	t.Parallel()

	v, ok := kafkaVersionFromName("V3_5_1")
	assert.True(t, ok)
	assert.Equal(t, "3.5.1", v)

	v, ok = kafkaVersionFromName("V2_8_2_TIERED")
	assert.True(t, ok)
	assert.Equal(t, "2.8.2.tiered", v)

	_, ok = kafkaVersionFromName("VERSION")
	assert.False(t, ok)
}
