package domain

import (
	"strings"
	"time"
)

// ContactStatus enumerates the lifecycle states of a contact.
type ContactStatus string

const (
	ContactActive       ContactStatus = "active"
	ContactUnsubscribed ContactStatus = "unsubscribed"
	ContactBounced      ContactStatus = "bounced"
	ContactArchived     ContactStatus = "archived"
)

// Contact represents a marketing contact. Fields holds the full profile as
// stored (nested objects like cashback_info and custom_fields included) so
// that segmentation rules can address attributes by dot path and distinguish
// an absent attribute from a zero value.
type Contact struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Status    ContactStatus  `json:"status"`
	Fields    map[string]any `json:"fields,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Record returns the dot-path addressable view of the contact used by rule
// evaluation: the stored profile fields with identity and timestamps merged
// on top. The receiver's Fields map is not modified.
func (c *Contact) Record() map[string]any {
	record := make(map[string]any, len(c.Fields)+4)
	for k, v := range c.Fields {
		record[k] = v
	}
	record["email"] = c.Email
	record["status"] = string(c.Status)
	if !c.CreatedAt.IsZero() {
		record["created_at"] = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !c.UpdatedAt.IsZero() {
		record["updated_at"] = c.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return record
}

// NormalizedEmail returns the email lowercased and trimmed, the form used
// as a membership key.
func (c *Contact) NormalizedEmail() string {
	return NormalizeEmail(c.Email)
}

// NormalizeEmail canonicalizes an email address for keying and dedupe.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FirstName returns the first_name profile field when present.
func (c *Contact) FirstName() string {
	return c.stringField("first_name")
}

// LastName returns the last_name profile field when present.
func (c *Contact) LastName() string {
	return c.stringField("last_name")
}

func (c *Contact) stringField(key string) string {
	if c.Fields == nil {
		return ""
	}
	if s, ok := c.Fields[key].(string); ok {
		return s
	}
	return ""
}
