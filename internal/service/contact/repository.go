package contact

import (
	"context"

	"github.com/ignite/audience-console/internal/domain"
)

// Repository defines the data access contract for contacts.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single contact. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Contact, error)

	// GetByEmail returns the contact with the given normalized email.
	// Returns ErrNotFound if no contact has that address.
	GetByEmail(ctx context.Context, email string) (*domain.Contact, error)

	// List returns a page of contacts ordered by ID together with the
	// cursor for the next page. An empty cursor starts from the
	// beginning; an empty returned cursor means the listing is done.
	List(ctx context.Context, cursor string, limit int) ([]domain.Contact, string, error)

	// Create inserts a new contact.
	Create(ctx context.Context, c *domain.Contact) error

	// Update replaces a stored contact.
	Update(ctx context.Context, c *domain.Contact) error

	// Delete removes a contact. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// Count returns the total number of contacts.
	Count(ctx context.Context) (int, error)
}
