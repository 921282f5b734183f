package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/pkg/distlock"
	"github.com/ignite/audience-console/internal/segmentation"
	"github.com/ignite/audience-console/internal/service/campaign"
	"github.com/ignite/audience-console/internal/service/segment"
)

const (
	// DefaultPollInterval is how often the worker checks for queued
	// campaigns.
	DefaultPollInterval = 30 * time.Second

	// DefaultBatchSize is how many messages are dispatched per batch.
	DefaultBatchSize = 50

	// campaignLockTTL bounds how long a crashed worker can hold a
	// campaign before another instance may claim it.
	campaignLockTTL = 10 * time.Minute
)

// AudienceResolver turns segment references into a deduplicated send
// list. The segment service implements it.
type AudienceResolver interface {
	ResolveAudience(ctx context.Context, includeIDs, excludeIDs []string) (*segment.Audience, error)
}

// Config holds campaign sender configuration.
type Config struct {
	PollInterval time.Duration
	BatchSize    int

	// Fallback sender identity applied to campaigns without their own.
	DefaultFromEmail string
	DefaultFromName  string
	DefaultReplyTo   string
}

// CampaignSender polls for queued campaigns and delivers them. One
// campaign is processed at a time; a distributed lock keeps multiple
// instances from sending the same campaign twice.
type CampaignSender struct {
	campaigns campaign.Repository
	segments  AudienceResolver
	templates campaign.TemplateGetter
	sender    ESPSender
	cfg       Config

	redisClient *redis.Client
	snapshots   segment.SnapshotStore

	// Stats
	campaignsSent int64
	emailsSent    int64
	emailsFailed  int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewCampaignSender creates a campaign sender.
func NewCampaignSender(campaigns campaign.Repository, segments AudienceResolver, templates campaign.TemplateGetter, sender ESPSender, cfg Config) *CampaignSender {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	return &CampaignSender{
		campaigns: campaigns,
		segments:  segments,
		templates: templates,
		sender:    sender,
		cfg:       cfg,
	}
}

// SetRedisClient enables Redis-backed campaign locks. Without it the
// worker falls back to in-process locks, which is correct for a single
// node only.
func (w *CampaignSender) SetRedisClient(client *redis.Client) {
	w.redisClient = client
}

// SetSnapshotStore enables audience archiving. Each campaign's resolved
// recipient list is stored before sending starts.
func (w *CampaignSender) SetSnapshotStore(store segment.SnapshotStore) {
	w.snapshots = store
}

// Start begins the polling loop.
func (w *CampaignSender) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("campaign sender already running")
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	log.Printf("[CampaignSender] Starting with poll interval %v, batch size %d", w.cfg.PollInterval, w.cfg.BatchSize)

	w.recoverInFlight()

	w.wg.Add(1)
	go w.pollLoop()
	return nil
}

// Stop gracefully stops the worker. A campaign mid-send stops at the
// next batch boundary; the recovery pass on the next start marks it
// failed so it can be re-sent.
func (w *CampaignSender) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	log.Println("[CampaignSender] Stopping...")
	w.cancel()
	w.wg.Wait()
	log.Printf("[CampaignSender] Stopped. Campaigns: %d, sent: %d, failed: %d",
		atomic.LoadInt64(&w.campaignsSent),
		atomic.LoadInt64(&w.emailsSent),
		atomic.LoadInt64(&w.emailsFailed))
}

// Stats returns delivery counters since startup.
func (w *CampaignSender) Stats() map[string]int64 {
	return map[string]int64{
		"campaigns_processed": atomic.LoadInt64(&w.campaignsSent),
		"emails_sent":         atomic.LoadInt64(&w.emailsSent),
		"emails_failed":       atomic.LoadInt64(&w.emailsFailed),
	}
}

func (w *CampaignSender) pollLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	// Drain anything already queued before the first tick.
	w.pollOnce()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce()
		}
	}
}

func (w *CampaignSender) pollOnce() {
	queued, err := w.campaigns.ListByStatus(w.ctx, domain.CampaignQueued)
	if err != nil {
		log.Printf("[CampaignSender] Error listing queued campaigns: %v", err)
		return
	}

	for i := range queued {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		w.processCampaign(&queued[i])
	}
}

// recoverInFlight marks campaigns stuck in sending as failed. They get
// there when a worker dies mid-send; failed campaigns can be re-sent
// from the console.
func (w *CampaignSender) recoverInFlight() {
	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	stuck, err := w.campaigns.ListByStatus(ctx, domain.CampaignSending)
	if err != nil {
		log.Printf("[CampaignSender] Recovery check failed: %v", err)
		return
	}
	for i := range stuck {
		c := &stuck[i]
		log.Printf("[CampaignSender] Recovering campaign %s stuck in sending, marking failed", c.ID)
		now := time.Now().UTC()
		c.Status = domain.CampaignFailed
		c.CompletedAt = &now
		c.UpdatedAt = now
		if err := w.campaigns.Update(ctx, c); err != nil {
			log.Printf("[CampaignSender] Failed to recover campaign %s: %v", c.ID, err)
		}
	}
}

func (w *CampaignSender) processCampaign(c *domain.Campaign) {
	ctx := w.ctx

	lock := distlock.NewLock(w.redisClient, "campaign:"+c.ID, campaignLockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		log.Printf("[CampaignSender] Error acquiring lock for campaign %s: %v", c.ID, err)
		return
	}
	if !acquired {
		log.Printf("[CampaignSender] Campaign %s already being processed by another worker", c.ID)
		return
	}
	defer lock.Release(ctx)

	// Re-read under the lock; a cancel may have raced the poll.
	c, err = w.campaigns.Get(ctx, c.ID)
	if err != nil {
		log.Printf("[CampaignSender] Error re-reading campaign: %v", err)
		return
	}
	if c.Status != domain.CampaignQueued {
		return
	}

	now := time.Now().UTC()
	c.Status = domain.CampaignSending
	c.StartedAt = &now
	c.UpdatedAt = now
	if err := w.campaigns.Update(ctx, c); err != nil {
		log.Printf("[CampaignSender] Error marking campaign %s as sending: %v", c.ID, err)
		return
	}

	log.Printf("[CampaignSender] Processing campaign: %s (%s)", c.Name, c.ID)

	audience, err := w.segments.ResolveAudience(ctx, c.IncludeSegmentIDs, c.ExcludeSegmentIDs)
	if err != nil {
		log.Printf("[CampaignSender] Audience resolution for campaign %s failed: %v", c.ID, err)
		w.finalize(ctx, c, 0, 0, 0, domain.CampaignFailed)
		return
	}

	w.archiveAudience(ctx, c, audience)

	messages, err := w.buildMessages(ctx, c, audience.Emails)
	if err != nil {
		log.Printf("[CampaignSender] Building messages for campaign %s failed: %v", c.ID, err)
		w.finalize(ctx, c, len(audience.Emails), 0, 0, domain.CampaignFailed)
		return
	}

	sent, failed := w.deliver(ctx, messages)
	atomic.AddInt64(&w.campaignsSent, 1)
	atomic.AddInt64(&w.emailsSent, int64(sent))
	atomic.AddInt64(&w.emailsFailed, int64(failed))

	status := domain.CampaignSent
	if sent == 0 && failed > 0 {
		status = domain.CampaignFailed
	}
	w.finalize(ctx, c, len(audience.Emails), sent, failed, status)

	log.Printf("[CampaignSender] Campaign %s done: %d sent, %d failed of %d recipients",
		c.ID, sent, failed, len(audience.Emails))
}

// buildMessages expands the campaign into one message per recipient,
// filling content from the referenced template where the campaign
// itself is empty.
func (w *CampaignSender) buildMessages(ctx context.Context, c *domain.Campaign, emails []string) ([]EmailMessage, error) {
	subject := c.Subject
	htmlContent := c.HTMLContent
	textContent := c.TextContent
	if c.TemplateID != "" {
		tmpl, err := w.templates.Get(ctx, c.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", c.TemplateID, err)
		}
		if subject == "" {
			subject = tmpl.Subject
		}
		if htmlContent == "" {
			htmlContent = tmpl.HTMLContent
		}
		if textContent == "" {
			textContent = tmpl.TextContent
		}
	}

	fromEmail := c.FromEmail
	fromName := c.FromName
	if fromEmail == "" {
		fromEmail = w.cfg.DefaultFromEmail
		fromName = w.cfg.DefaultFromName
	}
	replyTo := c.ReplyTo
	if replyTo == "" {
		replyTo = w.cfg.DefaultReplyTo
	}

	messages := make([]EmailMessage, 0, len(emails))
	for _, email := range emails {
		messages = append(messages, EmailMessage{
			CampaignID:  c.ID,
			Email:       email,
			FromName:    fromName,
			FromEmail:   fromEmail,
			ReplyTo:     replyTo,
			Subject:     subject,
			HTMLContent: htmlContent,
			TextContent: textContent,
		})
	}
	return messages, nil
}

// deliver dispatches messages in batches. Batch-capable senders get
// chunks up to their limit, others one message at a time. A canceled
// context stops between batches; counts so far are kept.
func (w *CampaignSender) deliver(ctx context.Context, messages []EmailMessage) (sent, failed int) {
	batchSize := w.cfg.BatchSize
	batcher, batchable := w.sender.(BatchSender)
	if batchable && batcher.MaxBatchSize() < batchSize {
		batchSize = batcher.MaxBatchSize()
	}

	for start := 0; start < len(messages); start += batchSize {
		if ctx.Err() != nil {
			return sent, failed
		}
		end := start + batchSize
		if end > len(messages) {
			end = len(messages)
		}
		chunk := messages[start:end]

		if batchable {
			result, err := batcher.SendBatch(ctx, chunk)
			if err != nil {
				log.Printf("[CampaignSender] Batch send failed: %v", err)
				failed += len(chunk)
				continue
			}
			sent += result.Accepted
			failed += result.Rejected
			continue
		}

		for i := range chunk {
			result, err := w.sender.Send(ctx, &chunk[i])
			if err != nil || !result.Success {
				failed++
			} else {
				sent++
			}
		}
	}
	return sent, failed
}

func (w *CampaignSender) archiveAudience(ctx context.Context, c *domain.Campaign, audience *segment.Audience) {
	if w.snapshots == nil {
		return
	}
	snap := &segmentation.AudienceSnapshot{
		CampaignID: c.ID,
		Purpose:    "campaign",
		Emails:     audience.Emails,
		Count:      len(audience.Emails),
		SnapshotAt: time.Now().UTC(),
	}
	if _, err := w.snapshots.Put(ctx, snap); err != nil {
		// Archiving is best effort; the send proceeds regardless.
		log.Printf("[CampaignSender] Snapshot for campaign %s failed: %v", c.ID, err)
	}
}

func (w *CampaignSender) finalize(ctx context.Context, c *domain.Campaign, total, sent, failed int, status domain.CampaignStatus) {
	now := time.Now().UTC()
	c.Status = status
	c.TotalRecipients = total
	c.SentCount = sent
	c.FailedCount = failed
	c.CompletedAt = &now
	c.UpdatedAt = now
	if err := w.campaigns.Update(ctx, c); err != nil {
		log.Printf("[CampaignSender] Failed to finalize campaign %s: %v", c.ID, err)
	}
}
