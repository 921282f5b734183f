package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ignite/audience-console/internal/segmentation"
)

const (
	memberPKPrefix = "SEGMENT#"
	memberSKPrefix = "MEMBER#"

	// DynamoDB caps BatchWriteItem at 25 requests per call.
	batchWriteSize = 25

	memberPageSize = 500
)

// memberItem is stored with native attributes instead of a JSON blob;
// a member row carries nothing but its key and timestamp.
type memberItem struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	AddedAt string `dynamodbav:"AddedAt"`
}

// MemberStore implements static segment membership on top of the shared
// table. Members partition by segment (SEGMENT#<id> / MEMBER#<email>),
// so listing a segment is one Query and emails come back sorted.
// Writes are idempotent puts and deletes keyed by email.
type MemberStore struct {
	aws *AWSStorage
}

// NewMemberStore creates a member store.
func NewMemberStore(aws *AWSStorage) *MemberStore {
	return &MemberStore{aws: aws}
}

// Add upserts the given emails as members.
func (s *MemberStore) Add(ctx context.Context, segmentID string, emails []string, addedAt time.Time) error {
	requests := make([]types.WriteRequest, 0, len(emails))
	for _, email := range emails {
		av, err := attributevalue.MarshalMap(memberItem{
			PK:      memberPKPrefix + segmentID,
			SK:      memberSKPrefix + email,
			AddedAt: addedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("marshaling member item: %w", err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: av},
		})
	}
	return s.batchWrite(ctx, requests)
}

// Remove deletes the given emails from the member set.
func (s *MemberStore) Remove(ctx context.Context, segmentID string, emails []string) error {
	requests := make([]types.WriteRequest, 0, len(emails))
	for _, email := range emails {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: itemKey(memberPKPrefix+segmentID, memberSKPrefix+email),
			},
		})
	}
	return s.batchWrite(ctx, requests)
}

// List returns a page of members ordered by email.
func (s *MemberStore) List(ctx context.Context, segmentID, cursor string, limit int) ([]segmentation.SegmentMember, string, error) {
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	result, err := s.aws.dynamoDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.aws.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: memberPKPrefix + segmentID},
		},
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("querying members: %w", err)
	}

	members := make([]segmentation.SegmentMember, 0, len(result.Items))
	for _, raw := range result.Items {
		var item memberItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		member := segmentation.SegmentMember{
			SegmentID: segmentID,
			Email:     strings.TrimPrefix(item.SK, memberSKPrefix),
		}
		if t, err := time.Parse(time.RFC3339, item.AddedAt); err == nil {
			member.AddedAt = t
		}
		members = append(members, member)
	}

	return members, encodeCursor(result.LastEvaluatedKey), nil
}

// ListAllEmails returns every member email, paging internally.
func (s *MemberStore) ListAllEmails(ctx context.Context, segmentID string) ([]string, error) {
	emails := []string{}
	cursor := ""
	for {
		members, next, err := s.List(ctx, segmentID, cursor, memberPageSize)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			emails = append(emails, m.Email)
		}
		if next == "" {
			return emails, nil
		}
		cursor = next
	}
}

// Count returns the current member count.
func (s *MemberStore) Count(ctx context.Context, segmentID string) (int, error) {
	return s.aws.countPartition(ctx, memberPKPrefix+segmentID)
}

// DeleteAll removes every member of a segment.
func (s *MemberStore) DeleteAll(ctx context.Context, segmentID string) error {
	emails, err := s.ListAllEmails(ctx, segmentID)
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		return nil
	}
	return s.Remove(ctx, segmentID, emails)
}

// batchWrite sends write requests in chunks, retrying unprocessed items.
// DynamoDB returns unprocessed requests under throttling rather than
// failing the call.
func (s *MemberStore) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for start := 0; start < len(requests); start += batchWriteSize {
		end := start + batchWriteSize
		if end > len(requests) {
			end = len(requests)
		}

		pending := requests[start:end]
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt >= 5 {
				return fmt.Errorf("batch write: %d requests still unprocessed after %d attempts", len(pending), attempt)
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
				}
			}

			result, err := s.aws.dynamoDB.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{
					s.aws.tableName: pending,
				},
			})
			if err != nil {
				return fmt.Errorf("batch writing members: %w", err)
			}
			pending = result.UnprocessedItems[s.aws.tableName]
		}
	}
	return nil
}
