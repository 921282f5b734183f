package campaign

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/audience-console/internal/domain"
)

// Service implements campaign business logic. It owns the campaign status
// machine; actual delivery is driven by the send worker, which picks up
// queued campaigns through the repository.
type Service struct {
	repo      Repository
	templates TemplateGetter

	defaultFromEmail string
	defaultFromName  string
}

// NewService creates a campaign service backed by the given repository.
func NewService(repo Repository, templates TemplateGetter) *Service {
	return &Service{repo: repo, templates: templates}
}

// SetDefaultSender sets the fallback from address applied when a campaign
// does not carry its own.
func (s *Service) SetDefaultSender(fromEmail, fromName string) {
	s.defaultFromEmail = fromEmail
	s.defaultFromName = fromName
}

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.Get(ctx, id)
}

// List returns campaigns matching the filter.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, int, error) {
	return s.repo.List(ctx, f)
}

// Create validates and persists a new campaign in draft status.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Campaign, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.Subject == "" && input.TemplateID == "" {
		return nil, fmt.Errorf("%w: subject is required when no template is referenced", ErrValidation)
	}
	if input.TemplateID != "" {
		if _, err := s.templates.Get(ctx, input.TemplateID); err != nil {
			return nil, fmt.Errorf("%w: template %s: %v", ErrValidation, input.TemplateID, err)
		}
	}

	now := time.Now().UTC()
	c := &domain.Campaign{
		ID:                uuid.New().String(),
		Name:              strings.TrimSpace(input.Name),
		Subject:           input.Subject,
		FromName:          input.FromName,
		FromEmail:         strings.ToLower(strings.TrimSpace(input.FromEmail)),
		ReplyTo:           input.ReplyTo,
		TemplateID:        input.TemplateID,
		HTMLContent:       input.HTMLContent,
		TextContent:       input.TextContent,
		IncludeSegmentIDs: input.IncludeSegmentIDs,
		ExcludeSegmentIDs: input.ExcludeSegmentIDs,
		Status:            domain.CampaignDraft,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update modifies mutable campaign fields. Only draft campaigns can be
// edited.
func (s *Service) Update(ctx context.Context, id string, u UpdateInput) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.CampaignDraft {
		return nil, ErrNotDraft
	}

	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.Subject != nil {
		c.Subject = *u.Subject
	}
	if u.FromName != nil {
		c.FromName = *u.FromName
	}
	if u.FromEmail != nil {
		c.FromEmail = strings.ToLower(strings.TrimSpace(*u.FromEmail))
	}
	if u.ReplyTo != nil {
		c.ReplyTo = *u.ReplyTo
	}
	if u.TemplateID != nil {
		if *u.TemplateID != "" {
			if _, err := s.templates.Get(ctx, *u.TemplateID); err != nil {
				return nil, fmt.Errorf("%w: template %s: %v", ErrValidation, *u.TemplateID, err)
			}
		}
		c.TemplateID = *u.TemplateID
	}
	if u.HTMLContent != nil {
		c.HTMLContent = *u.HTMLContent
	}
	if u.TextContent != nil {
		c.TextContent = *u.TextContent
	}
	if u.IncludeSegmentIDs != nil {
		c.IncludeSegmentIDs = *u.IncludeSegmentIDs
	}
	if u.ExcludeSegmentIDs != nil {
		c.ExcludeSegmentIDs = *u.ExcludeSegmentIDs
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a campaign (only draft/cancelled).
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domain.CampaignDraft && c.Status != domain.CampaignCancelled {
		return ErrInvalidTransition
	}
	return s.repo.Delete(ctx, id)
}

// Send validates a campaign and queues it for delivery. The send worker
// resolves the audience and performs the actual sending.
func (s *Service) Send(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !c.Sendable() {
		return nil, ErrAlreadyQueued
	}
	if len(c.IncludeSegmentIDs) == 0 {
		return nil, ErrMissingAudience
	}
	if c.TemplateID == "" && c.HTMLContent == "" && c.TextContent == "" {
		return nil, ErrMissingContent
	}
	if c.TemplateID == "" && c.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required when no template is referenced", ErrValidation)
	}
	if c.TemplateID != "" {
		if _, err := s.templates.Get(ctx, c.TemplateID); err != nil {
			return nil, fmt.Errorf("%w: template %s: %v", ErrValidation, c.TemplateID, err)
		}
	}
	if c.FromEmail == "" && s.defaultFromEmail == "" {
		return nil, ErrMissingSender
	}

	now := time.Now().UTC()
	c.Status = domain.CampaignQueued
	c.QueuedAt = &now
	c.UpdatedAt = now

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("queue campaign: %w", err)
	}

	log.Printf("[campaign.Service] Campaign %s queued for delivery (%d include, %d exclude segments)",
		c.ID, len(c.IncludeSegmentIDs), len(c.ExcludeSegmentIDs))
	return c, nil
}

// Cancel stops a queued campaign before the worker picks it up. Once
// sending has started the campaign runs to completion.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.CampaignQueued {
		return nil, ErrInvalidTransition
	}

	c.Status = domain.CampaignCancelled
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultSender returns the configured fallback from address.
func (s *Service) DefaultSender() (string, string) {
	return s.defaultFromEmail, s.defaultFromName
}

// CreateInput holds the fields for creating a new campaign.
type CreateInput struct {
	Name              string   `json:"name"`
	Subject           string   `json:"subject"`
	FromName          string   `json:"from_name"`
	FromEmail         string   `json:"from_email"`
	ReplyTo           string   `json:"reply_to"`
	TemplateID        string   `json:"template_id"`
	HTMLContent       string   `json:"html_content"`
	TextContent       string   `json:"text_content"`
	IncludeSegmentIDs []string `json:"include_segment_ids"`
	ExcludeSegmentIDs []string `json:"exclude_segment_ids"`
}

// UpdateInput holds the mutable fields for a campaign update.
// Nil fields are not applied.
type UpdateInput struct {
	Name              *string   `json:"name"`
	Subject           *string   `json:"subject"`
	FromName          *string   `json:"from_name"`
	FromEmail         *string   `json:"from_email"`
	ReplyTo           *string   `json:"reply_to"`
	TemplateID        *string   `json:"template_id"`
	HTMLContent       *string   `json:"html_content"`
	TextContent       *string   `json:"text_content"`
	IncludeSegmentIDs *[]string `json:"include_segment_ids"`
	ExcludeSegmentIDs *[]string `json:"exclude_segment_ids"`
}
