package provider

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
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
	"gitlab.com/tozd/go/errors"
)

// Clients holds the service clients the runners list live versions with.
type Clients struct {
	RDS        rdsiface.RDSAPI
	Kafka      kafkaiface.KafkaAPI
	OpenSearch opensearchserviceiface.OpenSearchServiceAPI
	Synthetics syntheticsiface.SyntheticsAPI
	CodeBuild  codebuildiface.CodeBuildAPI
	EC2        ec2iface.EC2API
	SSM        ssmiface.SSMAPI
	Bedrock    bedrockiface.BedrockAPI
	ECR        ecriface.ECRAPI
}

// AWSOptions selects the credentials and region of the session.
type AWSOptions struct {
	Region  string
	Profile string
}

// NewSession creates a session from the shared AWS configuration.
func NewSession(opts AWSOptions) (*session.Session, error) {
	cfg := aws.Config{}
	if opts.Region != "" {
		cfg.Region = aws.String(opts.Region)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		Profile:           opts.Profile,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, errors.Errorf("failed to create AWS session: %w", err)
	}
	return sess, nil
}

// NewClients creates every service client from sess.
func NewClients(sess *session.Session) *Clients {
	return &Clients{
		RDS:        rds.New(sess),
		Kafka:      kafka.New(sess),
		OpenSearch: opensearchservice.New(sess),
		Synthetics: synthetics.New(sess),
		CodeBuild:  codebuild.New(sess),
		EC2:        ec2.New(sess),
		SSM:        ssm.New(sess),
		Bedrock:    bedrock.New(sess),
		ECR:        ecr.New(sess),
	}
}
