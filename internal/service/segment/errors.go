package segment

import (
	"errors"
	"strings"
)

// Sentinel errors for the segment service layer.
var (
	ErrNotFound         = errors.New("segment not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrValidation       = errors.New("invalid segment input")
	ErrNotStatic        = errors.New("segment is not static")
	ErrBusy             = errors.New("segment is busy with another operation")
)

// InvalidRulesError reports every problem found in a submitted rule tree
// so the rule builder can surface all of them at once.
type InvalidRulesError struct {
	Problems []string
}

func (e *InvalidRulesError) Error() string {
	return "invalid segment rules: " + strings.Join(e.Problems, "; ")
}
