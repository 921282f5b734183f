package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrValidation        = errors.New("invalid campaign input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotDraft          = errors.New("only draft campaigns can be edited")
	ErrMissingAudience   = errors.New("campaign has no include segments")
	ErrMissingContent    = errors.New("campaign has no template or content")
	ErrMissingSender     = errors.New("campaign has no from address")
	ErrAlreadyQueued     = errors.New("campaign is already queued or sent")
)
