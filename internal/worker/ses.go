package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/ignite/audience-console/internal/pkg/logger"
)

// sesMaxBatch is the per-call ceiling the worker chunks to. SES has no
// true bulk endpoint, so a batch is dispatched as sequential sends.
const sesMaxBatch = 50

// SESSender sends emails via AWS SES using the SDK v2.
type SESSender struct {
	region string
	client *sesv2.Client
}

// NewSESSender creates an SES sender using the shared credential chain.
// An empty profile uses the default chain (IAM role on ECS).
func NewSESSender(ctx context.Context, region, profile string) *SESSender {
	if region == "" {
		region = "us-east-1"
	}
	sender := &SESSender{region: region}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Printf("[SES] Warning: Failed to initialize AWS config: %v", err)
		return sender
	}
	sender.client = sesv2.NewFromConfig(cfg)
	return sender
}

// Send delivers a single email through AWS SES.
func (s *SESSender) Send(ctx context.Context, msg *EmailMessage) (*SendResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("SES client not initialized - check credentials")
	}
	if msg.HTMLContent == "" && msg.TextContent == "" {
		return nil, fmt.Errorf("message for %s has no content", logger.RedactEmail(msg.Email))
	}

	from := msg.FromEmail
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}

	body := &types.Body{}
	if msg.HTMLContent != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLContent), Charset: aws.String("UTF-8")}
	}
	if msg.TextContent != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextContent), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: []string{msg.Email}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("campaign_id"), Value: aws.String(msg.CampaignID)},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		log.Printf("[SES] Failed to send to %s: %v", logger.RedactEmail(msg.Email), err)
		return &SendResult{Success: false, Error: err, ESPType: "ses"}, nil
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}

	log.Printf("[SES] Sent to %s (id: %s)", logger.RedactEmail(msg.Email), messageID)

	return &SendResult{
		Success:   true,
		MessageID: messageID,
		ESPType:   "ses",
		SentAt:    time.Now(),
	}, nil
}

// SendBatch sends multiple emails via SES. SES lacks true bulk send, so
// messages are dispatched individually in sequence.
func (s *SESSender) SendBatch(ctx context.Context, messages []EmailMessage) (*BatchSendResult, error) {
	if s.client == nil {
		return nil, fmt.Errorf("SES client not initialized - check credentials")
	}
	if len(messages) == 0 {
		return &BatchSendResult{}, nil
	}
	if len(messages) > sesMaxBatch {
		return nil, fmt.Errorf("SES batch size %d exceeds max %d", len(messages), sesMaxBatch)
	}

	results := &BatchSendResult{Results: make([]SendResult, len(messages))}
	for i, msg := range messages {
		result, err := s.Send(ctx, &msg)
		if err != nil {
			results.Results[i] = SendResult{Success: false, Error: err, ESPType: "ses"}
			results.Rejected++
		} else {
			results.Results[i] = *result
			if result.Success {
				results.Accepted++
			} else {
				results.Rejected++
			}
		}
	}
	return results, nil
}

// MaxBatchSize reports the largest batch SendBatch accepts.
func (s *SESSender) MaxBatchSize() int { return sesMaxBatch }
