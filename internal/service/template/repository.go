package template

import (
	"context"

	"github.com/ignite/audience-console/internal/domain"
)

// Repository defines the data access contract for templates.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single template. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Template, error)

	// List returns all templates ordered by created_at DESC.
	List(ctx context.Context) ([]domain.Template, error)

	// Create inserts a new template.
	Create(ctx context.Context, t *domain.Template) error

	// Update replaces a stored template.
	Update(ctx context.Context, t *domain.Template) error

	// Delete removes a template. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error
}
