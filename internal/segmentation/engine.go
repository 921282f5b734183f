package segmentation

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/pkg/logger"
)

// ContactSource pages through the contact base. Page N+1 depends on the
// cursor returned with page N, so fetches are sequential by contract.
// An empty next cursor means the collection is exhausted.
type ContactSource interface {
	ListContacts(ctx context.Context, cursor string, limit int) (contacts []domain.Contact, nextCursor string, err error)
}

const defaultPageSize = 200

// Engine runs rule trees across the full contact collection. Evaluation
// is a full scan, O(contacts x tree size); there is no indexing, so cost
// grows linearly with the contact base and callers should bound long
// evaluations through the context.
type Engine struct {
	source   ContactSource
	pageSize int
}

// NewEngine creates an engine over a contact source. pageSize <= 0 falls
// back to the default.
func NewEngine(source ContactSource, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Engine{source: source, pageSize: pageSize}
}

// EvaluateAll scans every contact and collects the emails of those
// matching the rule tree. A page fetch failure aborts the whole
// evaluation; a partial match set is never returned.
func (e *Engine) EvaluateAll(ctx context.Context, rules *RuleGroup) (*EvalResult, error) {
	start := time.Now()
	result := &EvalResult{Emails: []string{}}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		contacts, next, err := e.source.ListContacts(ctx, cursor, e.pageSize)
		if err != nil {
			return nil, fmt.Errorf("segment evaluation: list contacts: %w", err)
		}

		for i := range contacts {
			if EvaluateContact(contacts[i].Record(), rules) {
				result.Emails = append(result.Emails, contacts[i].Email)
			}
		}
		result.ScannedCount += len(contacts)

		if next == "" {
			break
		}
		cursor = next
	}

	result.MatchedCount = len(result.Emails)
	result.EvaluatedAt = time.Now()
	result.DurationMs = time.Since(start).Milliseconds()

	logger.Debug("segment evaluation complete",
		"matched", result.MatchedCount,
		"scanned", result.ScannedCount,
		"duration_ms", result.DurationMs)

	return result, nil
}

// Preview evaluates an ad-hoc rule tree for the rule builder: the full
// count is still exact, only the sample of matching contacts is capped.
func (e *Engine) Preview(ctx context.Context, rules *RuleGroup, sampleSize int) (*SegmentPreview, error) {
	if sampleSize <= 0 {
		sampleSize = 10
	}
	preview := &SegmentPreview{SampleContacts: []ContactPreview{}}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		contacts, next, err := e.source.ListContacts(ctx, cursor, e.pageSize)
		if err != nil {
			return nil, fmt.Errorf("segment preview: list contacts: %w", err)
		}

		for i := range contacts {
			c := &contacts[i]
			if !EvaluateContact(c.Record(), rules) {
				continue
			}
			preview.MatchedCount++
			if len(preview.SampleContacts) < sampleSize {
				preview.SampleContacts = append(preview.SampleContacts, ContactPreview{
					ID:        c.ID,
					Email:     c.Email,
					FirstName: c.FirstName(),
					LastName:  c.LastName(),
				})
			}
		}
		preview.ScannedCount += len(contacts)

		if next == "" {
			break
		}
		cursor = next
	}

	preview.CalculatedAt = time.Now()
	return preview, nil
}
