package segment

import (
	"context"
	"time"

	"github.com/ignite/audience-console/internal/segmentation"
)

// Repository defines the data access contract for segment definitions.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single segment. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*segmentation.Segment, error)

	// List returns all segments ordered by created_at DESC.
	List(ctx context.Context) ([]segmentation.Segment, error)

	// Create inserts a new segment.
	Create(ctx context.Context, seg *segmentation.Segment) error

	// Update replaces a stored segment.
	Update(ctx context.Context, seg *segmentation.Segment) error

	// Delete removes a segment. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error

	// UpdateStats persists the contact count and evaluation time without
	// touching the rest of the definition.
	UpdateStats(ctx context.Context, id string, contactCount int, evaluatedAt time.Time) error
}

// MemberStore defines the data access contract for static segment
// membership. Adds and removes are idempotent: re-adding an existing
// member or removing an absent one is not an error.
type MemberStore interface {
	// Add upserts the given emails as members. Emails are already
	// normalized by the service.
	Add(ctx context.Context, segmentID string, emails []string, addedAt time.Time) error

	// Remove deletes the given emails from the member set.
	Remove(ctx context.Context, segmentID string, emails []string) error

	// List returns a page of members ordered by email together with the
	// cursor for the next page.
	List(ctx context.Context, segmentID, cursor string, limit int) ([]segmentation.SegmentMember, string, error)

	// ListAllEmails returns every member email, paging internally.
	ListAllEmails(ctx context.Context, segmentID string) ([]string, error)

	// Count returns the current member count.
	Count(ctx context.Context, segmentID string) (int, error)

	// DeleteAll removes every member of a segment.
	DeleteAll(ctx context.Context, segmentID string) error
}

// SnapshotStore archives resolved audiences for auditability.
type SnapshotStore interface {
	// Put stores a snapshot and returns its storage key.
	Put(ctx context.Context, snap *segmentation.AudienceSnapshot) (string, error)

	// List returns the stored snapshots for a segment, newest first.
	List(ctx context.Context, segmentID string) ([]SnapshotInfo, error)

	// Get loads one stored snapshot by its key. Returns
	// ErrSnapshotNotFound when no snapshot exists under the key.
	Get(ctx context.Context, key string) (*segmentation.AudienceSnapshot, error)
}

// SnapshotInfo describes one stored audience snapshot.
type SnapshotInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
