// Package worker contains the campaign send worker and its ESP sender
// adapter. The worker polls for queued campaigns, resolves their
// audience through the segment service, and delivers through AWS SES.
package worker

import (
	"context"
	"time"
)

// ESPSender delivers a single email through an email service provider.
type ESPSender interface {
	Send(ctx context.Context, msg *EmailMessage) (*SendResult, error)
}

// BatchSender extends ESPSender for adapters that accept multiple
// messages per call. The worker chunks sends to MaxBatchSize when the
// configured sender implements it.
type BatchSender interface {
	ESPSender
	SendBatch(ctx context.Context, messages []EmailMessage) (*BatchSendResult, error)
	MaxBatchSize() int
}

// EmailMessage represents one email to be sent.
type EmailMessage struct {
	CampaignID  string
	Email       string
	FromName    string
	FromEmail   string
	ReplyTo     string
	Subject     string
	HTMLContent string
	TextContent string
}

// SendResult holds the outcome of a single send.
type SendResult struct {
	Success   bool
	MessageID string
	Error     error
	ESPType   string
	SentAt    time.Time
}

// BatchSendResult holds aggregate results from a batch send.
type BatchSendResult struct {
	Accepted int
	Rejected int
	Results  []SendResult
}
