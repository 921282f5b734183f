package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ignite/audience-console/internal/service/campaign"
	"github.com/ignite/audience-console/internal/service/contact"
	"github.com/ignite/audience-console/internal/service/segment"
	"github.com/ignite/audience-console/internal/service/template"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	contacts  *contact.Service
	segments  *segment.Service
	campaigns *campaign.Service
	templates *template.Service
	startedAt time.Time
}

// NewHandlers creates a new Handlers instance
func NewHandlers(contacts *contact.Service, segments *segment.Service, campaigns *campaign.Service, templates *template.Service) *Handlers {
	return &Handlers{
		contacts:  contacts,
		segments:  segments,
		campaigns: campaigns,
		templates: templates,
		startedAt: time.Now(),
	}
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors to HTTP status codes in one
// place. Sentinel errors carry user-safe messages and pass through;
// anything unrecognized is logged server side and returned as a generic
// 500 so internal details never leak to API consumers.
func respondServiceError(w http.ResponseWriter, err error) {
	var rulesErr *segment.InvalidRulesError
	if errors.As(err, &rulesErr) {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "invalid segment rules",
			"problems": rulesErr.Problems,
		})
		return
	}

	switch {
	case errors.Is(err, contact.ErrNotFound),
		errors.Is(err, segment.ErrNotFound),
		errors.Is(err, segment.ErrSnapshotNotFound),
		errors.Is(err, campaign.ErrNotFound),
		errors.Is(err, template.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, contact.ErrDuplicateEmail),
		errors.Is(err, segment.ErrBusy),
		errors.Is(err, campaign.ErrNotDraft),
		errors.Is(err, campaign.ErrAlreadyQueued),
		errors.Is(err, campaign.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, contact.ErrInvalidEmail),
		errors.Is(err, contact.ErrValidation),
		errors.Is(err, segment.ErrNotStatic),
		errors.Is(err, segment.ErrValidation),
		errors.Is(err, campaign.ErrMissingAudience),
		errors.Is(err, campaign.ErrMissingContent),
		errors.Is(err, campaign.ErrMissingSender),
		errors.Is(err, campaign.ErrValidation),
		errors.Is(err, template.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())

	default:
		log.Printf("ERROR [500]: %v", err)
		respondError(w, http.StatusInternalServerError, "an internal error occurred")
	}
}

// Health check

// HealthCheck returns the health status of the API
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "audience-console",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}
