package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/service/contact"
)

const (
	contactsPK      = "CONTACTS"
	contactSKPrefix = "CONTACT#"
	contactEmailPK  = "CONTACT_EMAIL"
)

// ContactStore implements the contact repository and the segmentation
// engine's contact source on top of the shared table.
//
// Contacts are stored twice: the document under CONTACTS/CONTACT#<id>,
// plus a lookup ref under CONTACT_EMAIL/<email> holding the id. The ref
// is written with a not-exists condition so two concurrent creates of
// the same address cannot both succeed.
type ContactStore struct {
	aws *AWSStorage
}

// NewContactStore creates a contact store.
func NewContactStore(aws *AWSStorage) *ContactStore {
	return &ContactStore{aws: aws}
}

// Get returns a single contact by id.
func (s *ContactStore) Get(ctx context.Context, id string) (*domain.Contact, error) {
	var c domain.Contact
	found, err := s.aws.getJSON(ctx, contactsPK, contactSKPrefix+id, &c)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, contact.ErrNotFound
	}
	return &c, nil
}

// GetByEmail resolves the email ref and loads the contact.
func (s *ContactStore) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	var id string
	found, err := s.aws.getJSON(ctx, contactEmailPK, email, &id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, contact.ErrNotFound
	}
	return s.Get(ctx, id)
}

// List returns a page of contacts ordered by id.
func (s *ContactStore) List(ctx context.Context, cursor string, limit int) ([]domain.Contact, string, error) {
	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	result, err := s.aws.dynamoDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.aws.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: contactsPK},
		},
		Limit:             aws.Int32(int32(limit)),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("querying contacts: %w", err)
	}

	contacts := make([]domain.Contact, 0, len(result.Items))
	for _, raw := range result.Items {
		var item DynamoDBItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		var c domain.Contact
		if err := json.Unmarshal([]byte(item.Data), &c); err != nil {
			continue
		}
		contacts = append(contacts, c)
	}

	return contacts, encodeCursor(result.LastEvaluatedKey), nil
}

// ListContacts satisfies the segmentation engine's contact source.
func (s *ContactStore) ListContacts(ctx context.Context, cursor string, limit int) ([]domain.Contact, string, error) {
	return s.List(ctx, cursor, limit)
}

// Create stores the contact and claims its email ref. Returns
// ErrDuplicateEmail when another contact already holds the address.
func (s *ContactStore) Create(ctx context.Context, c *domain.Contact) error {
	if err := s.putEmailRef(ctx, c.Email, c.ID); err != nil {
		return err
	}
	return s.aws.putJSON(ctx, contactsPK, contactSKPrefix+c.ID, c, "")
}

// Update replaces the stored contact document. The email is immutable so
// the ref needs no maintenance.
func (s *ContactStore) Update(ctx context.Context, c *domain.Contact) error {
	if _, err := s.Get(ctx, c.ID); err != nil {
		return err
	}
	return s.aws.putJSON(ctx, contactsPK, contactSKPrefix+c.ID, c, "")
}

// Delete removes the contact and releases its email ref.
func (s *ContactStore) Delete(ctx context.Context, id string) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.aws.deleteItem(ctx, contactsPK, contactSKPrefix+id); err != nil {
		return err
	}
	return s.aws.deleteItem(ctx, contactEmailPK, c.Email)
}

// Count returns the total number of contacts.
func (s *ContactStore) Count(ctx context.Context) (int, error) {
	return s.aws.countPartition(ctx, contactsPK)
}

// putEmailRef writes the email -> id ref, failing if the address is
// already claimed.
func (s *ContactStore) putEmailRef(ctx context.Context, email, id string) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshaling email ref: %w", err)
	}

	av, err := attributevalue.MarshalMap(DynamoDBItem{
		PK:        contactEmailPK,
		SK:        email,
		Data:      string(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling email ref item: %w", err)
	}

	_, err = s.aws.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.aws.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return contact.ErrDuplicateEmail
		}
		return fmt.Errorf("putting email ref to DynamoDB: %w", err)
	}
	return nil
}
