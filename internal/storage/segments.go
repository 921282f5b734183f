package storage

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/ignite/audience-console/internal/segmentation"
	"github.com/ignite/audience-console/internal/service/segment"
)

const (
	segmentsPK      = "SEGMENTS"
	segmentSKPrefix = "SEGMENT#"
)

// SegmentStore implements the segment repository on top of the shared
// table. Rule trees ride inside the JSON document, so whatever shape the
// rule builder submitted is the shape the evaluator gets back.
type SegmentStore struct {
	aws *AWSStorage
}

// NewSegmentStore creates a segment store.
func NewSegmentStore(aws *AWSStorage) *SegmentStore {
	return &SegmentStore{aws: aws}
}

// Get returns a single segment by id.
func (s *SegmentStore) Get(ctx context.Context, id string) (*segmentation.Segment, error) {
	var seg segmentation.Segment
	found, err := s.aws.getJSON(ctx, segmentsPK, segmentSKPrefix+id, &seg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, segment.ErrNotFound
	}
	return &seg, nil
}

// List returns all segments, newest first.
func (s *SegmentStore) List(ctx context.Context) ([]segmentation.Segment, error) {
	var segments []segmentation.Segment
	err := s.aws.queryPartitionJSON(ctx, segmentsPK, func(item DynamoDBItem) error {
		var seg segmentation.Segment
		if err := json.Unmarshal([]byte(item.Data), &seg); err != nil {
			return nil
		}
		segments = append(segments, seg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].CreatedAt.After(segments[j].CreatedAt)
	})
	return segments, nil
}

// Create inserts a new segment.
func (s *SegmentStore) Create(ctx context.Context, seg *segmentation.Segment) error {
	return s.aws.putJSON(ctx, segmentsPK, segmentSKPrefix+seg.ID, seg, "")
}

// Update replaces a stored segment.
func (s *SegmentStore) Update(ctx context.Context, seg *segmentation.Segment) error {
	if _, err := s.Get(ctx, seg.ID); err != nil {
		return err
	}
	return s.aws.putJSON(ctx, segmentsPK, segmentSKPrefix+seg.ID, seg, "")
}

// Delete removes a segment.
func (s *SegmentStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.aws.deleteItem(ctx, segmentsPK, segmentSKPrefix+id)
}

// UpdateStats persists a fresh contact count and evaluation time. The
// caller holds the per-segment lock, so the read-modify-write of the
// document cannot race another stats update.
func (s *SegmentStore) UpdateStats(ctx context.Context, id string, contactCount int, evaluatedAt time.Time) error {
	seg, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	seg.ContactCount = contactCount
	seg.LastEvaluatedAt = &evaluatedAt
	return s.aws.putJSON(ctx, segmentsPK, segmentSKPrefix+id, seg, "")
}
