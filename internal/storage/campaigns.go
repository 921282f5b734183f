package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/service/campaign"
)

const (
	campaignsPK      = "CAMPAIGNS"
	campaignSKPrefix = "CAMPAIGN#"
)

// CampaignStore implements campaign.Repository. Campaign documents carry
// a top-level Status attribute alongside the JSON blob so the send worker
// can poll queued work with a filtered query instead of unmarshaling the
// whole partition.
type CampaignStore struct {
	aws *AWSStorage
}

// NewCampaignStore creates a campaign store.
func NewCampaignStore(aws *AWSStorage) *CampaignStore {
	return &CampaignStore{aws: aws}
}

// Get returns a single campaign.
func (s *CampaignStore) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	var c domain.Campaign
	found, err := s.aws.getJSON(ctx, campaignsPK, campaignSKPrefix+id, &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, campaign.ErrNotFound
	}
	return &c, nil
}

// List returns campaigns matching the filter, newest first, plus the
// total count before pagination.
func (s *CampaignStore) List(ctx context.Context, filter campaign.ListFilter) ([]domain.Campaign, int, error) {
	all := []domain.Campaign{}
	err := s.aws.queryPartitionJSON(ctx, campaignsPK, func(item DynamoDBItem) error {
		var c domain.Campaign
		if err := json.Unmarshal([]byte(item.Data), &c); err != nil {
			return nil
		}
		if filter.Status != "" && string(c.Status) != filter.Status {
			return nil
		}
		all = append(all, c)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return []domain.Campaign{}, total, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, total, nil
}

// ListByStatus returns every campaign in the given status. The filter
// runs server side against the top-level Status attribute; pages are
// walked to completion because filtered queries can return empty pages
// while more data remains.
func (s *CampaignStore) ListByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error) {
	campaigns := []domain.Campaign{}
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.aws.dynamoDB.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.aws.tableName),
			KeyConditionExpression: aws.String("PK = :pk"),
			FilterExpression:       aws.String("#status = :status"),
			ExpressionAttributeNames: map[string]string{
				"#status": "Status",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk":     &types.AttributeValueMemberS{Value: campaignsPK},
				":status": &types.AttributeValueMemberS{Value: string(status)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("querying campaigns by status: %w", err)
		}

		for _, raw := range result.Items {
			var item DynamoDBItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				continue
			}
			var c domain.Campaign
			if err := json.Unmarshal([]byte(item.Data), &c); err != nil {
				continue
			}
			campaigns = append(campaigns, c)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.Before(campaigns[j].CreatedAt)
	})
	return campaigns, nil
}

// Create inserts a new campaign.
func (s *CampaignStore) Create(ctx context.Context, c *domain.Campaign) error {
	return s.aws.putJSON(ctx, campaignsPK, campaignSKPrefix+c.ID, c, string(c.Status))
}

// Update replaces a stored campaign.
func (s *CampaignStore) Update(ctx context.Context, c *domain.Campaign) error {
	return s.aws.putJSON(ctx, campaignsPK, campaignSKPrefix+c.ID, c, string(c.Status))
}

// Delete removes a campaign.
func (s *CampaignStore) Delete(ctx context.Context, id string) error {
	var c domain.Campaign
	found, err := s.aws.getJSON(ctx, campaignsPK, campaignSKPrefix+id, &c)
	if err != nil {
		return err
	}
	if !found {
		return campaign.ErrNotFound
	}
	return s.aws.deleteItem(ctx, campaignsPK, campaignSKPrefix+id)
}
