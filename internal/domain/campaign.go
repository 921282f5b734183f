package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignQueued    CampaignStatus = "queued"
	CampaignSending   CampaignStatus = "sending"
	CampaignSent      CampaignStatus = "sent"
	CampaignFailed    CampaignStatus = "failed"
	CampaignCancelled CampaignStatus = "cancelled"
)

// Campaign represents an email campaign with its content and audience config.
// The audience is expressed as segment id lists: recipients are the union of
// the include segments minus the union of the exclude segments.
type Campaign struct {
	ID                string         `json:"id"`
	Name              string         `json:"name"`
	Subject           string         `json:"subject"`
	FromName          string         `json:"from_name"`
	FromEmail         string         `json:"from_email"`
	ReplyTo           string         `json:"reply_to,omitempty"`
	TemplateID        string         `json:"template_id,omitempty"`
	HTMLContent       string         `json:"html_content,omitempty"`
	TextContent       string         `json:"text_content,omitempty"`
	IncludeSegmentIDs []string       `json:"include_segment_ids"`
	ExcludeSegmentIDs []string       `json:"exclude_segment_ids,omitempty"`
	Status            CampaignStatus `json:"status"`

	// Delivery stats, populated as the send progresses.
	TotalRecipients int `json:"total_recipients"`
	SentCount       int `json:"sent_count"`
	FailedCount     int `json:"failed_count"`

	QueuedAt    *time.Time `json:"queued_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsTerminal returns true if the campaign is in a final state.
func (c *Campaign) IsTerminal() bool {
	return c.Status == CampaignSent || c.Status == CampaignFailed || c.Status == CampaignCancelled
}

// Sendable returns true if the campaign can be queued for delivery.
func (c *Campaign) Sendable() bool {
	return c.Status == CampaignDraft || c.Status == CampaignFailed
}
