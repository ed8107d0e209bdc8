// Package awstest provides small in-memory fakes of the AWS client interfaces
// for unit tests. They understand only the expressions this repository issues.
package awstest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	key   string
	items map[string]map[string]types.AttributeValue
}

// Dynamo is an in-memory DynamoDB supporting GetItem, PutItem, UpdateItem (SET only)
// and Scan with an is_deleted filter.
type Dynamo struct {
	mu     sync.Mutex
	tables map[string]*table

	// Inject errors per operation.
	GetErr    error
	PutErr    error
	UpdateErr error
	ScanErr   error

	PutCalls    int
	UpdateCalls int
	ScanCalls   int
}

// NewDynamo returns an empty fake.
func NewDynamo() *Dynamo {
	return &Dynamo{tables: map[string]*table{}}
}

// CreateTable registers a table keyed by a single string attribute.
func (d *Dynamo) CreateTable(name, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tables[name] = &table{key: key, items: map[string]map[string]types.AttributeValue{}}
}

// Item returns a copy of the stored item, or nil.
func (d *Dynamo) Item(tableName, pk string) map[string]types.AttributeValue {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tables[tableName]
	if !ok {
		return nil
	}
	item, ok := t.items[pk]
	if !ok {
		return nil
	}
	return copyItem(item)
}

// Len returns the number of items in a table.
func (d *Dynamo) Len(tableName string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.tables[tableName]; ok {
		return len(t.items)
	}
	return 0
}

func (d *Dynamo) lookup(name *string) (*table, error) {
	if name == nil {
		return nil, errors.New("missing table name")
	}
	t, ok := d.tables[*name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: name}
	}
	return t, nil
}

func keyValue(t *table, attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs[t.key].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("missing key attribute %s", t.key)
	}
	return v.Value, nil
}

func (d *Dynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetErr != nil {
		return nil, d.GetErr
	}
	t, err := d.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := keyValue(t, params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(item)}, nil
}

func (d *Dynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.PutCalls++
	if d.PutErr != nil {
		return nil, d.PutErr
	}
	t, err := d.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := keyValue(t, params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && strings.HasPrefix(*params.ConditionExpression, "attribute_not_exists(") {
		if _, exists := t.items[pk]; exists {
			msg := "The conditional request failed"
			return nil, &types.ConditionalCheckFailedException{Message: &msg}
		}
	}
	t.items[pk] = copyItem(params.Item)
	return &dyn.PutItemOutput{}, nil
}

// UpdateItem applies "SET a = :x, #b = :y" expressions, creating the item when missing.
func (d *Dynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.UpdateCalls++
	if d.UpdateErr != nil {
		return nil, d.UpdateErr
	}
	t, err := d.lookup(params.TableName)
	if err != nil {
		return nil, err
	}
	pk, err := keyValue(t, params.Key)
	if err != nil {
		return nil, err
	}
	if params.UpdateExpression == nil || !strings.HasPrefix(*params.UpdateExpression, "SET ") {
		return nil, errors.New("only SET update expressions are supported")
	}

	item, ok := t.items[pk]
	if !ok {
		item = copyItem(params.Key)
	}
	for _, clause := range strings.Split(strings.TrimPrefix(*params.UpdateExpression, "SET "), ",") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("bad clause %q", clause)
		}
		name := strings.TrimSpace(parts[0])
		if strings.HasPrefix(name, "#") {
			name = params.ExpressionAttributeNames[name]
		}
		val, ok := params.ExpressionAttributeValues[strings.TrimSpace(parts[1])]
		if !ok {
			return nil, fmt.Errorf("missing value for %q", clause)
		}
		item[name] = val
	}
	t.items[pk] = item
	return &dyn.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

// Scan walks items in key order. Limit counts evaluated items, as DynamoDB does,
// so a filtered page can come back short with a LastEvaluatedKey.
func (d *Dynamo) Scan(ctx context.Context, params *dyn.ScanInput, optFns ...func(*dyn.Options)) (*dyn.ScanOutput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ScanCalls++
	if d.ScanErr != nil {
		return nil, d.ScanErr
	}
	if params.Limit != nil && *params.Limit < 1 {
		return nil, fmt.Errorf("ValidationException: Limit must be greater than or equal to 1, got %d", *params.Limit)
	}
	t, err := d.lookup(params.TableName)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if params.ExclusiveStartKey != nil {
		after, err := keyValue(t, params.ExclusiveStartKey)
		if err != nil {
			return nil, err
		}
		start = sort.SearchStrings(keys, after)
		if start < len(keys) && keys[start] == after {
			start++
		}
	}

	filterDeleted := params.FilterExpression != nil && strings.Contains(*params.FilterExpression, "is_deleted")
	out := &dyn.ScanOutput{}
	evaluated := 0
	for i := start; i < len(keys); i++ {
		if params.Limit != nil && evaluated == int(*params.Limit) {
			out.LastEvaluatedKey = map[string]types.AttributeValue{
				t.key: &types.AttributeValueMemberS{Value: keys[i-1]},
			}
			break
		}
		evaluated++
		item := t.items[keys[i]]
		if filterDeleted {
			if del, ok := item["is_deleted"].(*types.AttributeValueMemberBOOL); ok && del.Value {
				continue
			}
		}
		out.Items = append(out.Items, copyItem(item))
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = int32(evaluated)
	return out, nil
}

func copyItem(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
