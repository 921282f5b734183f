package segment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/audience-console/internal/pkg/distlock"
	"github.com/ignite/audience-console/internal/segmentation"
)

// memberLockTTL bounds how long a crashed worker can hold a segment.
const memberLockTTL = 5 * time.Minute

// Service implements segment business logic. All public methods are safe
// for concurrent use; mutations of one segment are serialized through a
// per-segment lock.
type Service struct {
	repo      Repository
	members   MemberStore
	engine    *segmentation.Engine
	snapshots SnapshotStore // nil disables audience snapshots
	redis     *redis.Client // nil falls back to in-process locks
}

// NewService creates a segment service.
func NewService(repo Repository, members MemberStore, engine *segmentation.Engine) *Service {
	return &Service{repo: repo, members: members, engine: engine}
}

// SetSnapshotStore enables audience snapshot archiving.
func (s *Service) SetSnapshotStore(store SnapshotStore) {
	s.snapshots = store
}

// SetRedisClient enables distributed locking across instances.
func (s *Service) SetRedisClient(client *redis.Client) {
	s.redis = client
}

// Get returns a single segment.
func (s *Service) Get(ctx context.Context, id string) (*segmentation.Segment, error) {
	return s.repo.Get(ctx, id)
}

// List returns all segments.
func (s *Service) List(ctx context.Context) ([]segmentation.Segment, error) {
	return s.repo.List(ctx)
}

// Create validates and persists a new segment.
func (s *Service) Create(ctx context.Context, input CreateInput) (*segmentation.Segment, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	segType := segmentation.SegmentDynamic
	if input.Type != "" {
		switch segmentation.SegmentType(input.Type) {
		case segmentation.SegmentDynamic, segmentation.SegmentStatic:
			segType = segmentation.SegmentType(input.Type)
		default:
			return nil, fmt.Errorf("%w: unknown segment type %q", ErrValidation, input.Type)
		}
	}

	if segType == segmentation.SegmentStatic && input.Rules != nil {
		return nil, fmt.Errorf("%w: static segments do not accept rules", ErrValidation)
	}
	if segType == segmentation.SegmentDynamic {
		if problems := segmentation.ValidateRules(input.Rules); len(problems) > 0 {
			return nil, &InvalidRulesError{Problems: problems}
		}
	}

	now := time.Now().UTC()
	seg := &segmentation.Segment{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Type:        segType,
		Rules:       input.Rules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

// Update modifies a segment's name, description, or rule tree. The type
// is immutable and rules are only accepted on dynamic segments.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*segmentation.Segment, error) {
	seg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", ErrValidation)
		}
		seg.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		seg.Description = *input.Description
	}
	if input.Rules != nil {
		if !seg.IsDynamic() {
			return nil, fmt.Errorf("%w: static segments do not accept rules", ErrValidation)
		}
		if problems := segmentation.ValidateRules(input.Rules); len(problems) > 0 {
			return nil, &InvalidRulesError{Problems: problems}
		}
		seg.Rules = input.Rules
	}
	seg.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, seg); err != nil {
		return nil, err
	}
	return seg, nil
}

// Delete removes a segment and its stored members.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.members.DeleteAll(ctx, id); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

// Validate checks a rule tree without persisting anything. Returns the
// list of problems, empty when the tree is valid.
func (s *Service) Validate(rules *segmentation.RuleGroup) []string {
	return segmentation.ValidateRules(rules)
}

// Preview evaluates an ad-hoc rule tree against the live contact base.
func (s *Service) Preview(ctx context.Context, rules *segmentation.RuleGroup, sampleSize int) (*segmentation.SegmentPreview, error) {
	if problems := segmentation.ValidateRules(rules); len(problems) > 0 {
		return nil, &InvalidRulesError{Problems: problems}
	}
	return s.engine.Preview(ctx, rules, sampleSize)
}

// AddMembers adds emails to a static segment. Invalid addresses are
// skipped, duplicates collapse, and the stored contact count is refreshed
// from the member store after the write.
func (s *Service) AddMembers(ctx context.Context, id string, emails []string) (*MemberUpdate, error) {
	seg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if seg.Type != segmentation.SegmentStatic {
		return nil, ErrNotStatic
	}

	accepted := normalizeEmails(emails, true)

	lock := distlock.NewLock(s.redis, "segment:"+id, memberLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire segment lock: %w", err)
	}
	if !acquired {
		return nil, ErrBusy
	}
	defer lock.Release(ctx)

	now := time.Now().UTC()
	if len(accepted) > 0 {
		if err := s.members.Add(ctx, id, accepted, now); err != nil {
			return nil, fmt.Errorf("add members: %w", err)
		}
	}

	total, err := s.recount(ctx, id, now)
	if err != nil {
		return nil, err
	}
	return &MemberUpdate{Submitted: len(emails), Accepted: len(accepted), Total: total}, nil
}

// RemoveMembers removes emails from a static segment. Removing an absent
// member is not an error.
func (s *Service) RemoveMembers(ctx context.Context, id string, emails []string) (*MemberUpdate, error) {
	seg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if seg.Type != segmentation.SegmentStatic {
		return nil, ErrNotStatic
	}

	accepted := normalizeEmails(emails, false)

	lock := distlock.NewLock(s.redis, "segment:"+id, memberLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire segment lock: %w", err)
	}
	if !acquired {
		return nil, ErrBusy
	}
	defer lock.Release(ctx)

	now := time.Now().UTC()
	if len(accepted) > 0 {
		if err := s.members.Remove(ctx, id, accepted); err != nil {
			return nil, fmt.Errorf("remove members: %w", err)
		}
	}

	total, err := s.recount(ctx, id, now)
	if err != nil {
		return nil, err
	}
	return &MemberUpdate{Submitted: len(emails), Accepted: len(accepted), Total: total}, nil
}

// ListMembers returns a page of a static segment's members.
func (s *Service) ListMembers(ctx context.Context, id, cursor string, limit int) ([]segmentation.SegmentMember, string, error) {
	seg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if seg.Type != segmentation.SegmentStatic {
		return nil, "", ErrNotStatic
	}
	if limit <= 0 {
		limit = 50
	}
	return s.members.List(ctx, id, cursor, limit)
}

// Resolve materializes a segment into its member emails: stored members
// for static segments, a fresh evaluation for dynamic ones.
func (s *Service) Resolve(ctx context.Context, id string) ([]string, error) {
	seg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if seg.Type == segmentation.SegmentStatic {
		return s.members.ListAllEmails(ctx, id)
	}

	result, err := s.engine.EvaluateAll(ctx, seg.Rules)
	if err != nil {
		return nil, err
	}
	return result.Emails, nil
}

// Refresh re-materializes a segment and persists its contact count. For
// dynamic segments the audience is also archived as a snapshot.
func (s *Service) Refresh(ctx context.Context, id string) (*segmentation.EvalResult, error) {
	seg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	lock := distlock.NewLock(s.redis, "segment:"+id, memberLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire segment lock: %w", err)
	}
	if !acquired {
		return nil, ErrBusy
	}
	defer lock.Release(ctx)

	if seg.Type == segmentation.SegmentStatic {
		now := time.Now().UTC()
		count, err := s.recount(ctx, id, now)
		if err != nil {
			return nil, err
		}
		return &segmentation.EvalResult{
			SegmentID:    id,
			MatchedCount: count,
			ScannedCount: count,
			EvaluatedAt:  now,
		}, nil
	}

	result, err := s.engine.EvaluateAll(ctx, seg.Rules)
	if err != nil {
		return nil, err
	}
	result.SegmentID = id

	if err := s.repo.UpdateStats(ctx, id, result.MatchedCount, result.EvaluatedAt); err != nil {
		return nil, fmt.Errorf("persist segment stats: %w", err)
	}

	if s.snapshots != nil {
		snap := &segmentation.AudienceSnapshot{
			SegmentID:  id,
			Purpose:    "refresh",
			Emails:     result.Emails,
			Count:      result.MatchedCount,
			SnapshotAt: result.EvaluatedAt,
		}
		if _, err := s.snapshots.Put(ctx, snap); err != nil {
			// The refresh itself succeeded; losing the audit copy is not
			// worth failing the request over.
			log.Printf("[segment.Service] snapshot for segment %s failed: %v", id, err)
		}
	}

	return result, nil
}

// ListSnapshots returns the archived audiences for a segment.
func (s *Service) ListSnapshots(ctx context.Context, id string) ([]SnapshotInfo, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.snapshots == nil {
		return []SnapshotInfo{}, nil
	}
	return s.snapshots.List(ctx, id)
}

// GetSnapshot loads one archived audience, email list included, by the
// storage key ListSnapshots reported. Keys belonging to a different
// segment are treated as not found.
func (s *Service) GetSnapshot(ctx context.Context, id, key string) (*segmentation.AudienceSnapshot, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.snapshots == nil {
		return nil, ErrSnapshotNotFound
	}

	snap, err := s.snapshots.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if snap.SegmentID != id {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// ResolveAudience combines segments into a deduplicated send audience:
// the union of the include segments minus the union of the exclude
// segments. Exclusion always wins over inclusion.
func (s *Service) ResolveAudience(ctx context.Context, includeIDs, excludeIDs []string) (*Audience, error) {
	seen := make(map[string]struct{})
	var emails []string
	for _, id := range includeIDs {
		resolved, err := s.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("include segment %s: %w", id, err)
		}
		for _, email := range resolved {
			key := strings.ToLower(email)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			emails = append(emails, key)
		}
	}

	excluded := make(map[string]struct{})
	for _, id := range excludeIDs {
		resolved, err := s.Resolve(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("exclude segment %s: %w", id, err)
		}
		for _, email := range resolved {
			excluded[strings.ToLower(email)] = struct{}{}
		}
	}

	audience := &Audience{Included: len(emails), Emails: []string{}}
	for _, email := range emails {
		if _, ok := excluded[email]; ok {
			audience.Excluded++
			continue
		}
		audience.Emails = append(audience.Emails, email)
	}
	return audience, nil
}

// recount refreshes the stored contact count from the member store.
func (s *Service) recount(ctx context.Context, id string, at time.Time) (int, error) {
	count, err := s.members.Count(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	if err := s.repo.UpdateStats(ctx, id, count, at); err != nil {
		return 0, fmt.Errorf("persist segment stats: %w", err)
	}
	return count, nil
}

// normalizeEmails lowercases, trims, and dedupes, preserving first-seen
// order. With validate set, addresses that can't be real emails are
// dropped instead of stored.
func normalizeEmails(emails []string, validate bool) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		e := strings.ToLower(strings.TrimSpace(email))
		if e == "" {
			continue
		}
		if validate && !isValidEmail(e) {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
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

// CreateInput holds the fields for creating a new segment.
type CreateInput struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Type        string                  `json:"type"`
	Rules       *segmentation.RuleGroup `json:"rules"`
}

// UpdateInput holds the mutable fields for a segment update.
// Nil fields are not applied.
type UpdateInput struct {
	Name        *string                 `json:"name"`
	Description *string                 `json:"description"`
	Rules       *segmentation.RuleGroup `json:"rules"`
}

// MemberUpdate reports a membership mutation: how many emails were
// submitted, how many survived normalization, and the member count after
// the write.
type MemberUpdate struct {
	Submitted int `json:"submitted"`
	Accepted  int `json:"accepted"`
	Total     int `json:"total"`
}

// Audience is a resolved, deduplicated set of send targets.
type Audience struct {
	Emails   []string `json:"emails"`
	Included int      `json:"included"`
	Excluded int      `json:"excluded"`
}
