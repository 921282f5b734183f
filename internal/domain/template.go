package domain

import (
	"time"
)

// Template is stored email content a campaign can reference instead of
// carrying inline HTML. Rendering/merge-tag expansion happens outside this
// system; templates are persisted verbatim.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	TextContent string    `json:"text_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
