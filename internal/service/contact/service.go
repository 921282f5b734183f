package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/audience-console/internal/domain"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// Service implements contact business logic. All public methods are safe
// for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a contact service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single contact.
func (s *Service) Get(ctx context.Context, id string) (*domain.Contact, error) {
	return s.repo.Get(ctx, id)
}

// GetByEmail returns the contact with the given address, normalizing it first.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	return s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
}

// List returns a page of contacts and the cursor for the next page.
func (s *Service) List(ctx context.Context, cursor string, limit int) ([]domain.Contact, string, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return s.repo.List(ctx, cursor, limit)
}

// Count returns the total number of contacts.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Create validates and persists a new contact. The email is normalized to
// lowercase and must not already exist.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Contact, error) {
	email := domain.NormalizeEmail(input.Email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	status := domain.ContactActive
	if input.Status != "" {
		var err error
		if status, err = parseStatus(input.Status); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if err != ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Contact{
		ID:        uuid.New().String(),
		Email:     email,
		Status:    status,
		Fields:    input.Fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Fields == nil {
		c.Fields = make(map[string]any)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies partial changes to a contact. Attribute updates merge
// into the existing field map; a null value removes the field. The email
// address is immutable once created.
func (s *Service) Update(ctx context.Context, id string, u UpdateInput) (*domain.Contact, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.Status != nil {
		status, err := parseStatus(*u.Status)
		if err != nil {
			return nil, err
		}
		c.Status = status
	}
	if u.Fields != nil {
		if c.Fields == nil {
			c.Fields = make(map[string]any)
		}
		mergeFields(c.Fields, u.Fields)
	}
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a contact.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// mergeFields applies updates onto dst. Nested maps merge recursively so
// updating cashback_info.tier does not drop cashback_info.enrolled. A null
// value removes the field.
func mergeFields(dst, updates map[string]any) {
	for k, v := range updates {
		if v == nil {
			delete(dst, k)
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeFields(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func parseStatus(s string) (domain.ContactStatus, error) {
	switch domain.ContactStatus(s) {
	case domain.ContactActive, domain.ContactUnsubscribed, domain.ContactBounced, domain.ContactArchived:
		return domain.ContactStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown contact status %q", ErrValidation, s)
}

func isValidEmail(email string) bool {
	if len(email) < 5 || len(email) > 254 {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || at >= len(email)-1 {
		return false
	}
	host := email[at+1:]
	if !strings.Contains(host, ".") || len(host) < 3 {
		return false
	}
	return true
}

// CreateInput holds the fields for creating a new contact.
type CreateInput struct {
	Email  string         `json:"email"`
	Status string         `json:"status"`
	Fields map[string]any `json:"fields"`
}

// UpdateInput holds the mutable fields for a contact update.
// Nil fields are not applied.
type UpdateInput struct {
	Status *string        `json:"status"`
	Fields map[string]any `json:"fields"`
}
