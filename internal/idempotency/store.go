package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
)

// KeyAttribute is the hash key of the applied-events table.
const KeyAttribute = "event_id"

// ErrAlreadyApplied is returned by MarkApplied when a record for the event already exists.
var ErrAlreadyApplied = errors.New("event already marked applied")

// Store records which event ids have been applied.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore returns a Store backed by the given table.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// IsApplied reports whether a record exists for eventID.
func (s *Store) IsApplied(ctx context.Context, eventID string) (bool, error) {
	rec, err := s.Get(ctx, eventID)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Get retrieves the record for eventID. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, eventID string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			KeyAttribute: &types.AttributeValueMemberS{Value: eventID},
		},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// MarkApplied inserts the record for eventID. It returns ErrAlreadyApplied when
// another writer got there first; any other error is a storage failure.
func (s *Store) MarkApplied(ctx context.Context, eventID string) error {
	item, err := attributevalue.MarshalMap(Record{
		EventID:   eventID,
		AppliedAt: s.nowFunc().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(" + KeyAttribute + ")"),
	})
	if err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return fmt.Errorf("%w: %s", ErrAlreadyApplied, eventID)
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
func awsBool(b bool) *bool       { return &b }
