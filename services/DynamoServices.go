package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"tripmate_server/logging"
	"tripmate_server/metrics"
	"tripmate_server/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoService.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoService implements DocumentStore on DynamoDB. Every table has a string
// partition key "id"; attribute queries go through a GSI named "<attribute>-index".
type DynamoService struct {
	Client DynamoAPI
}

// LoadAWSConfig loads the default AWS config for region, with an optional endpoint
// override (DynamoDB Local, LocalStack).
func LoadAWSConfig(ctx context.Context, region, endpoint string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(endpoint))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// NewDynamoService creates a DynamoService from an AWS config
func NewDynamoService(cfg aws.Config) *DynamoService {
	return &DynamoService{Client: dynamodb.NewFromConfig(cfg)}
}

// GetDocument reads a document with a strongly consistent read so a swipe written
// a moment ago is visible to the reciprocal check.
func (ds *DynamoService) GetDocument(ctx context.Context, tableName, id string, out interface{}) (bool, error) {
	start := time.Now()
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(tableName),
		Key:            utils.IDKey(id),
		ConsistentRead: aws.Bool(true),
	})
	metrics.ObserveStoreOperation("get", tableName, start, err)
	if err != nil {
		return false, fmt.Errorf("failed to get item from table '%s': %w", tableName, err)
	}

	if output.Item == nil {
		return false, nil
	}

	if err := attributevalue.UnmarshalMap(output.Item, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal item from table '%s': %w", tableName, err)
	}
	return true, nil
}

func (ds *DynamoService) PutDocument(ctx context.Context, tableName, id string, doc interface{}) error {
	item, err := marshalDocument(id, doc)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	metrics.ObserveStoreOperation("put", tableName, start, err)
	if err != nil {
		return fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return nil
}

// PutDocumentIfAbsent relies on a conditional write, which DynamoDB serialises per
// key, so concurrent callers racing on the same id see exactly one success.
func (ds *DynamoService) PutDocumentIfAbsent(ctx context.Context, tableName, id string, doc interface{}) (bool, error) {
	item, err := marshalDocument(id, doc)
	if err != nil {
		return false, err
	}

	start := time.Now()
	_, err = ds.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": utils.IDAttribute},
	})

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		metrics.ObserveStoreOperation("put_if_absent", tableName, start, nil)
		logging.Debug().Str("table", tableName).Str("id", id).Msg("ℹ️ conditional put lost, document already exists")
		return false, nil
	}
	metrics.ObserveStoreOperation("put_if_absent", tableName, start, err)
	if err != nil {
		return false, fmt.Errorf("failed to put item in table '%s': %w", tableName, err)
	}
	return true, nil
}

func (ds *DynamoService) UpdateFields(ctx context.Context, tableName, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return errors.New("update failed: no fields to update")
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	expressionAttributeNames := map[string]string{"#id": utils.IDAttribute}
	expressionAttributeValues := make(map[string]types.AttributeValue, len(fields))
	assignments := make([]string, 0, len(fields))
	for i, name := range names {
		placeholder := fmt.Sprintf(":v%d", i)
		attributeName := fmt.Sprintf("#f%d", i)

		value, err := attributevalue.Marshal(fields[name])
		if err != nil {
			return fmt.Errorf("failed to marshal field '%s': %w", name, err)
		}
		expressionAttributeNames[attributeName] = name
		expressionAttributeValues[placeholder] = value
		assignments = append(assignments, attributeName+" = "+placeholder)
	}

	start := time.Now()
	_, err := ds.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(tableName),
		Key:                       utils.IDKey(id),
		UpdateExpression:          aws.String("SET " + strings.Join(assignments, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  expressionAttributeNames,
		ExpressionAttributeValues: expressionAttributeValues,
	})

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		metrics.ObserveStoreOperation("update", tableName, start, nil)
		return ErrNotFound
	}
	metrics.ObserveStoreOperation("update", tableName, start, err)
	if err != nil {
		return fmt.Errorf("failed to update item in table '%s': %w", tableName, err)
	}
	return nil
}

// QueryByAttribute queries the "<attribute>-index" GSI and follows pagination.
func (ds *DynamoService) QueryByAttribute(ctx context.Context, tableName, attribute, value string, out interface{}) error {
	indexName := attribute + "-index"
	input := &dynamodb.QueryInput{
		TableName:                aws.String(tableName),
		IndexName:                aws.String(indexName),
		KeyConditionExpression:   aws.String("#attr = :value"),
		ExpressionAttributeNames: map[string]string{"#attr": attribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":value": &types.AttributeValueMemberS{Value: value},
		},
	}

	start := time.Now()
	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(ds.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			metrics.ObserveStoreOperation("query", tableName, start, err)
			return fmt.Errorf("failed to query GSI '%s': %w", indexName, err)
		}
		items = append(items, page.Items...)
	}
	metrics.ObserveStoreOperation("query", tableName, start, nil)

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal query result: %w", err)
	}
	return nil
}

func (ds *DynamoService) AddToSet(ctx context.Context, tableName, id, attribute, value string) error {
	start := time.Now()
	_, err := ds.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(tableName),
		Key:                      utils.IDKey(id),
		UpdateExpression:         aws.String("ADD #attr :value"),
		ExpressionAttributeNames: map[string]string{"#attr": attribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":value": &types.AttributeValueMemberSS{Value: []string{value}},
		},
	})
	metrics.ObserveStoreOperation("add_to_set", tableName, start, err)
	if err != nil {
		return fmt.Errorf("failed to add to %s set: %w", attribute, err)
	}
	return nil
}

func (ds *DynamoService) RemoveFromSet(ctx context.Context, tableName, id, attribute, value string) error {
	start := time.Now()
	_, err := ds.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                aws.String(tableName),
		Key:                      utils.IDKey(id),
		UpdateExpression:         aws.String("DELETE #attr :value"),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#attr": attribute, "#id": utils.IDAttribute},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":value": &types.AttributeValueMemberSS{Value: []string{value}},
		},
	})

	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		metrics.ObserveStoreOperation("remove_from_set", tableName, start, nil)
		return nil
	}
	metrics.ObserveStoreOperation("remove_from_set", tableName, start, err)
	if err != nil {
		return fmt.Errorf("failed to remove from %s set: %w", attribute, err)
	}
	return nil
}

func marshalDocument(id string, doc interface{}) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	item[utils.IDAttribute] = &types.AttributeValueMemberS{Value: id}
	return item, nil
}
