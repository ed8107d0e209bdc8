package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableSpec describes a table with a single string hash key.
type TableSpec struct {
	Name    string
	HashKey string
}

// tableActiveTimeout bounds the wait for a new table to leave CREATING.
var tableActiveTimeout = 5 * time.Minute

// tableWaiterOptions tunes the TableExists waiter's polling delays.
var tableWaiterOptions = func(*dynamodb.TableExistsWaiterOptions) {}

// EnsureTables creates every table that does not exist yet, using on-demand
// billing, and waits until each one it had to create is ACTIVE. It returns the
// names of the tables it created.
func EnsureTables(ctx context.Context, client TableAdminAPI, specs ...TableSpec) ([]string, error) {
	var created, pending []string
	for _, spec := range specs {
		_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &spec.Name})
		if err == nil {
			continue
		}
		var nf *types.ResourceNotFoundException
		if !errors.As(err, &nf) {
			return created, fmt.Errorf("describe table %s: %w", spec.Name, err)
		}

		_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: &spec.Name,
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: &spec.HashKey, AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: &spec.HashKey, KeyType: types.KeyTypeHash},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil {
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				// another process is creating it
				pending = append(pending, spec.Name)
				continue
			}
			return created, fmt.Errorf("create table %s: %w", spec.Name, err)
		}
		created = append(created, spec.Name)
		pending = append(pending, spec.Name)
	}

	waiter := dynamodb.NewTableExistsWaiter(client, tableWaiterOptions)
	for _, name := range pending {
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: &name}, tableActiveTimeout); err != nil {
			return created, fmt.Errorf("wait for table %s: %w", name, err)
		}
	}
	return created, nil
}
