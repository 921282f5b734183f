package template

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/audience-console/internal/domain"
)

// Service implements template business logic.
type Service struct {
	repo Repository
}

// NewService creates a template service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single template.
func (s *Service) Get(ctx context.Context, id string) (*domain.Template, error) {
	return s.repo.Get(ctx, id)
}

// List returns all templates.
func (s *Service) List(ctx context.Context) ([]domain.Template, error) {
	return s.repo.List(ctx)
}

// Create validates and persists a new template.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Template, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if input.HTMLContent == "" && input.TextContent == "" {
		return nil, fmt.Errorf("%w: html or text content is required", ErrValidation)
	}

	now := time.Now().UTC()
	t := &domain.Template{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Subject:     input.Subject,
		HTMLContent: input.HTMLContent,
		TextContent: input.TextContent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies partial changes to a template.
func (s *Service) Update(ctx context.Context, id string, u UpdateInput) (*domain.Template, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		t.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Subject != nil {
		if *u.Subject == "" {
			return nil, fmt.Errorf("%w: subject is required", ErrValidation)
		}
		t.Subject = *u.Subject
	}
	if u.HTMLContent != nil {
		t.HTMLContent = *u.HTMLContent
	}
	if u.TextContent != nil {
		t.TextContent = *u.TextContent
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a template.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// CreateInput holds the fields for creating a new template.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"html_content"`
	TextContent string `json:"text_content"`
}

// UpdateInput holds the mutable fields for a template update.
// Nil fields are not applied.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
	HTMLContent *string `json:"html_content"`
	TextContent *string `json:"text_content"`
}
