package storage

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/snapbin/snapbin/models"
)

// DynamoStore implements PasteStore using DynamoDB. UpdateItem with an ADD
// expression and ReturnValues=UPDATED_NEW supplies the atomic decrement.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoStore creates a new DynamoDB storage backend.
func NewDynamoStore(tableName, region string) (*DynamoStore, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(cfg)

	return &DynamoStore{
		client:    client,
		tableName: tableName,
	}, nil
}

// Put saves a paste to DynamoDB.
func (d *DynamoStore) Put(ctx context.Context, paste *models.Paste) error {
	item := map[string]types.AttributeValue{
		"id":         &types.AttributeValueMemberS{Value: paste.ID},
		"content":    &types.AttributeValueMemberS{Value: paste.Content},
		"created_at": &types.AttributeValueMemberN{Value: strconv.FormatInt(paste.CreatedAt, 10)},
	}
	if paste.ExpiresAt != nil {
		item["expires_at"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(*paste.ExpiresAt, 10)}
	}
	if paste.MaxViews != nil {
		item["max_views"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(*paste.MaxViews, 10)}
	}
	if paste.RemainingViews != nil {
		item["remaining_views"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(*paste.RemainingViews, 10)}
	}

	_, err := d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})

	return err
}

// Get retrieves a paste by its ID. A strongly consistent read so a caller
// observes its own just-created record.
func (d *DynamoStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, err
	}

	if result.Item == nil {
		return nil, nil // Not found
	}

	return itemToPaste(result.Item)
}

// IncrViews atomically adjusts the remaining-views counter and returns the
// new value. ADD on an absent item materializes a counter-only stub, the
// same self-healing behavior as Redis HINCRBY.
func (d *DynamoStore) IncrViews(ctx context.Context, id string, delta int64) (int64, error) {
	result, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression: aws.String("ADD remaining_views :delta"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: strconv.FormatInt(delta, 10)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}

	attr, ok := result.Attributes["remaining_views"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("remaining_views missing from update result for paste %s", id)
	}
	return strconv.ParseInt(attr.Value, 10, 64)
}

// Delete removes a paste from DynamoDB. DeleteItem on an absent key succeeds.
func (d *DynamoStore) Delete(ctx context.Context, id string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})

	return err
}

// Ping probes the table so /healthz reflects real backend reachability.
func (d *DynamoStore) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	return err
}

// Close is a no-op for DynamoDB.
func (d *DynamoStore) Close() error {
	return nil
}

// itemToPaste converts a DynamoDB item to a Paste model.
func itemToPaste(item map[string]types.AttributeValue) (*models.Paste, error) {
	paste := &models.Paste{}

	if id, ok := item["id"].(*types.AttributeValueMemberS); ok {
		paste.ID = id.Value
	}

	if content, ok := item["content"].(*types.AttributeValueMemberS); ok {
		paste.Content = content.Value
	}

	if createdAt, ok := item["created_at"].(*types.AttributeValueMemberN); ok {
		ts, err := strconv.ParseInt(createdAt.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at for paste %s: %w", paste.ID, err)
		}
		paste.CreatedAt = ts
	}

	if expiresAt, ok := item["expires_at"].(*types.AttributeValueMemberN); ok {
		ts, err := strconv.ParseInt(expiresAt.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt expires_at for paste %s: %w", paste.ID, err)
		}
		paste.ExpiresAt = &ts
	}

	if maxViews, ok := item["max_views"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.ParseInt(maxViews.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt max_views for paste %s: %w", paste.ID, err)
		}
		paste.MaxViews = &n
	}

	if remaining, ok := item["remaining_views"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.ParseInt(remaining.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt remaining_views for paste %s: %w", paste.ID, err)
		}
		paste.RemainingViews = &n
	}

	return paste, nil
}
