package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/ignite/audience-console/internal/segmentation"
	"github.com/ignite/audience-console/internal/service/segment"
)

// Snapshot object keys use a filesystem-safe timestamp (colons break
// some S3 tooling).
const snapshotTimeFormat = "2006-01-02T15-04-05Z"

// SnapshotStore archives resolved audiences as JSON objects in S3.
// Refresh snapshots live under audiences/segments/<id>/, campaign send
// snapshots under audiences/campaigns/<id>/.
type SnapshotStore struct {
	aws *AWSStorage
}

// NewSnapshotStore creates a snapshot store.
func NewSnapshotStore(aws *AWSStorage) *SnapshotStore {
	return &SnapshotStore{aws: aws}
}

// Put stores a snapshot and returns its object key.
func (s *SnapshotStore) Put(ctx context.Context, snap *segmentation.AudienceSnapshot) (string, error) {
	key := s.objectKey(snap)

	jsonData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}

	_, err = s.aws.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.aws.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(jsonData),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("putting snapshot to S3: %w", err)
	}

	return key, nil
}

// List returns the stored snapshots for a segment, newest first.
func (s *SnapshotStore) List(ctx context.Context, segmentID string) ([]segment.SnapshotInfo, error) {
	prefix := fmt.Sprintf("audiences/segments/%s/", segmentID)

	snapshots := []segment.SnapshotInfo{}
	paginator := s3.NewListObjectsV2Paginator(s.aws.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.aws.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			snapshots = append(snapshots, segment.SnapshotInfo{
				Key:          key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].LastModified.After(snapshots[j].LastModified)
	})
	return snapshots, nil
}

// Get loads one stored snapshot by object key.
func (s *SnapshotStore) Get(ctx context.Context, key string) (*segmentation.AudienceSnapshot, error) {
	result, err := s.aws.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.aws.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, segment.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("getting snapshot from S3: %w", err)
	}
	defer result.Body.Close()

	var snap segmentation.AudienceSnapshot
	if err := json.NewDecoder(result.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

func (s *SnapshotStore) objectKey(snap *segmentation.AudienceSnapshot) string {
	ts := snap.SnapshotAt.UTC().Format(snapshotTimeFormat)
	if snap.Purpose == "campaign" && snap.CampaignID != "" {
		return fmt.Sprintf("audiences/campaigns/%s/%s.json", snap.CampaignID, ts)
	}
	return fmt.Sprintf("audiences/segments/%s/%s.json", snap.SegmentID, ts)
}
