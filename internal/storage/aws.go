// Package storage persists the console's entities in a single DynamoDB
// table and archives resolved audiences in S3.
//
// Every entity collection lives under a fixed partition key (CONTACTS,
// SEGMENTS, CAMPAIGNS, TEMPLATES) with an entity sort key, except segment
// members which partition by segment so a member listing is one Query.
// Rich documents are stored as JSON in the Data attribute so they
// round-trip exactly like the HTTP API payloads.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AWSStorage provides AWS-backed storage using DynamoDB and S3
type AWSStorage struct {
	dynamoDB  *dynamodb.Client
	s3Client  *s3.Client
	tableName string
	bucket    string
	region    string
}

// DynamoDBItem represents an item stored in DynamoDB. Status is only
// populated for campaigns so the send worker can filter queued work
// without parsing every document.
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Data      string `dynamodbav:"Data"`
	Status    string `dynamodbav:"Status,omitempty"`
	Timestamp string `dynamodbav:"Timestamp"`
}

// NewAWSStorage creates a new AWS storage instance
func NewAWSStorage(ctx context.Context, tableName, bucket, region, profile string) (*AWSStorage, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &AWSStorage{
		dynamoDB:  dynamodb.NewFromConfig(cfg),
		s3Client:  s3.NewFromConfig(cfg),
		tableName: tableName,
		bucket:    bucket,
		region:    region,
	}, nil
}

// putJSON stores an entity as a JSON document under the given key.
func (s *AWSStorage) putJSON(ctx context.Context, pk, sk string, entity any, status string) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshaling entity: %w", err)
	}

	item := DynamoDBItem{
		PK:        pk,
		SK:        sk,
		Data:      string(data),
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}

	_, err = s.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}

	return nil
}

// getJSON loads a JSON document into target. The second return reports
// whether the item exists.
func (s *AWSStorage) getJSON(ctx context.Context, pk, sk string, target any) (bool, error) {
	result, err := s.dynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(pk, sk),
	})
	if err != nil {
		return false, fmt.Errorf("getting item from DynamoDB: %w", err)
	}
	if result.Item == nil {
		return false, nil
	}

	var item DynamoDBItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return false, fmt.Errorf("unmarshaling item: %w", err)
	}
	if err := json.Unmarshal([]byte(item.Data), target); err != nil {
		return false, fmt.Errorf("unmarshaling item data: %w", err)
	}
	return true, nil
}

// deleteItem removes a single item by key.
func (s *AWSStorage) deleteItem(ctx context.Context, pk, sk string) error {
	_, err := s.dynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       itemKey(pk, sk),
	})
	if err != nil {
		return fmt.Errorf("deleting item from DynamoDB: %w", err)
	}
	return nil
}

// queryPartitionJSON loads every JSON document in a partition, following
// pagination to the end.
func (s *AWSStorage) queryPartitionJSON(ctx context.Context, pk string, each func(item DynamoDBItem) error) error {
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.dynamoDB.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("querying DynamoDB: %w", err)
		}

		for _, raw := range result.Items {
			var item DynamoDBItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				continue
			}
			if err := each(item); err != nil {
				return err
			}
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return nil
}

// countPartition counts the items in a partition without loading them.
func (s *AWSStorage) countPartition(ctx context.Context, pk string) (int, error) {
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.dynamoDB.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: pk},
			},
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return 0, fmt.Errorf("counting items in DynamoDB: %w", err)
		}

		total += int(result.Count)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return total, nil
}

func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}
