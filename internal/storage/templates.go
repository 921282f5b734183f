package storage

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/service/template"
)

const (
	templatesPK      = "TEMPLATES"
	templateSKPrefix = "TEMPLATE#"
)

// TemplateStore implements template.Repository as JSON documents in the
// shared table.
type TemplateStore struct {
	aws *AWSStorage
}

// NewTemplateStore creates a template store.
func NewTemplateStore(aws *AWSStorage) *TemplateStore {
	return &TemplateStore{aws: aws}
}

// Get returns a single template.
func (s *TemplateStore) Get(ctx context.Context, id string) (*domain.Template, error) {
	var t domain.Template
	found, err := s.aws.getJSON(ctx, templatesPK, templateSKPrefix+id, &t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, template.ErrNotFound
	}
	return &t, nil
}

// List returns all templates, newest first.
func (s *TemplateStore) List(ctx context.Context) ([]domain.Template, error) {
	templates := []domain.Template{}
	err := s.aws.queryPartitionJSON(ctx, templatesPK, func(item DynamoDBItem) error {
		var t domain.Template
		if err := json.Unmarshal([]byte(item.Data), &t); err != nil {
			return nil
		}
		templates = append(templates, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].CreatedAt.After(templates[j].CreatedAt)
	})
	return templates, nil
}

// Create inserts a new template.
func (s *TemplateStore) Create(ctx context.Context, t *domain.Template) error {
	return s.aws.putJSON(ctx, templatesPK, templateSKPrefix+t.ID, t, "")
}

// Update replaces a stored template.
func (s *TemplateStore) Update(ctx context.Context, t *domain.Template) error {
	return s.aws.putJSON(ctx, templatesPK, templateSKPrefix+t.ID, t, "")
}

// Delete removes a template.
func (s *TemplateStore) Delete(ctx context.Context, id string) error {
	var t domain.Template
	found, err := s.aws.getJSON(ctx, templatesPK, templateSKPrefix+id, &t)
	if err != nil {
		return err
	}
	if !found {
		return template.ErrNotFound
	}
	return s.aws.deleteItem(ctx, templatesPK, templateSKPrefix+id)
}
