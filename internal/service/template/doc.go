// Package template implements reusable email template management.
// Templates hold subject and body content that campaigns copy at send
// time; rendering and personalization happen elsewhere.
package template
