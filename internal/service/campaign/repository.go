package campaign

import (
	"context"

	"github.com/ignite/audience-console/internal/domain"
)

// Repository defines the data access contract for campaigns.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single campaign. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Campaign, error)

	// List returns campaigns matching the given filter, ordered by
	// created_at DESC, plus the total before pagination.
	List(ctx context.Context, filter ListFilter) ([]domain.Campaign, int, error)

	// ListByStatus returns every campaign in the given status. The send
	// worker polls this for queued work.
	ListByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error)

	// Create inserts a new campaign.
	Create(ctx context.Context, c *domain.Campaign) error

	// Update replaces a stored campaign.
	Update(ctx context.Context, c *domain.Campaign) error

	// Delete removes a campaign. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error
}

// TemplateGetter resolves template references on campaigns.
type TemplateGetter interface {
	Get(ctx context.Context, id string) (*domain.Template, error)
}

// ListFilter controls pagination and filtering for campaign lists.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}
