package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// AWSClients bundles all service clients for convenience.
type AWSClients struct {
	DynamoDB      DynamoDBAPI
	DynamoDBAdmin TableAdminAPI
	SQS           SQSAPI
	CloudWatch    CloudWatchAPI
}

// NewAWSClients loads AWS config and returns concrete service clients that implement our interfaces.
// The clients are safe for concurrent use and are shared by every consumer and the HTTP handlers.
func NewAWSClients(ctx context.Context) (*AWSClients, error) {
	cfg, err := LoadAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	ddb := dynamodb.NewFromConfig(cfg)
	return &AWSClients{
		DynamoDB:      ddb,
		DynamoDBAdmin: ddb,
		SQS:           sqs.NewFromConfig(cfg),
		CloudWatch:    cloudwatch.NewFromConfig(cfg),
	}, nil
}
