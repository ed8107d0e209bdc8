package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/go-idempotent-catalogsync/internal/aws"
)

// Store encapsulates operations on the users and products tables.
// Every write is a single-item UpdateItem, so it is atomic per entity and
// creates the item when it does not exist yet.
type Store struct {
	client        aws.DynamoDBAPI
	usersTable    string
	productsTable string
}

// NewStore creates a new catalog Store.
func NewStore(client aws.DynamoDBAPI, usersTable, productsTable string) *Store {
	return &Store{
		client:        client,
		usersTable:    usersTable,
		productsTable: productsTable,
	}
}

type field struct {
	name  string
	value any
}

// setFields issues "SET #f0 = :v0, ..." against the item keyed by id.
// nil values are stored as NULL so that a replace clears stale attributes.
func (s *Store) setFields(ctx context.Context, table, key, id string, fields []field) error {
	names := make(map[string]string, len(fields))
	values := make(map[string]types.AttributeValue, len(fields))
	clauses := make([]string, 0, len(fields))
	for i, f := range fields {
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(f.value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", f.name, err)
		}
		names[n] = f.name
		values[v] = av
		clauses = append(clauses, n+" = "+v)
	}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: &table,
		Key: map[string]types.AttributeValue{
			key: &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          awsString("SET " + strings.Join(clauses, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// softDeleteFields touches only the deletion metadata.
func softDeleteFields(eventID, occurredAt string) []field {
	return []field{
		{"is_deleted", true},
		{"deleted_at", optional(occurredAt)},
		{"last_event_id", eventID},
	}
}

// getItem fetches an item by key. Returns (nil, nil) if not found.
func getItem[T any](ctx context.Context, client aws.DynamoDBAPI, table, key, id string) (*T, error) {
	out, err := client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &table,
		Key: map[string]types.AttributeValue{
			key: &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var v T
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &v, nil
}

// listActive scans for items that are not soft-deleted. DynamoDB applies Limit
// before the filter, so it keeps paging until it has limit items or the table
// is exhausted. limit <= 0 means no limit.
func listActive[T any](ctx context.Context, client aws.DynamoDBAPI, table string, limit int) ([]T, error) {
	items := []T{}
	var startKey map[string]types.AttributeValue
	for {
		in := &dyn.ScanInput{
			TableName:        &table,
			FilterExpression: awsString("attribute_not_exists(is_deleted) OR is_deleted <> :deleted"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":deleted": &types.AttributeValueMemberBOOL{Value: true},
			},
			ExclusiveStartKey: startKey,
		}
		if limit > 0 {
			page := int32(math.MaxInt32)
			if remaining := limit - len(items); remaining < math.MaxInt32 {
				page = int32(remaining)
			}
			in.Limit = &page
		}

		out, err := client.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var page []T
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal items: %w", err)
		}
		items = append(items, page...)

		if len(out.LastEvaluatedKey) == 0 || (limit > 0 && len(items) >= limit) {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// optional maps the empty string to NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func awsString(s string) *string { return &s }
