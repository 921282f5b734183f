package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/audience-console/internal/service/campaign"
)

// ==========================================
// CAMPAIGN HANDLERS
// ==========================================

// ListCampaigns returns campaigns, newest first, optionally filtered by
// status, with limit/offset pagination
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	filter := campaign.ListFilter{
		Status: r.URL.Query().Get("status"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filter.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	campaigns, total, err := h.campaigns.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
		"count":     len(campaigns),
		"total":     total,
	})
}

// CreateCampaign creates a new draft campaign
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.campaigns.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetCampaign returns a campaign by ID
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// UpdateCampaign applies a partial update to a draft campaign
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var input campaign.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.campaigns.Update(r.Context(), chi.URLParam(r, "campaignID"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteCampaign removes a draft or cancelled campaign
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if err := h.campaigns.Delete(r.Context(), chi.URLParam(r, "campaignID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendCampaign validates and queues a campaign; the send worker picks it
// up from there
func (h *Handlers) SendCampaign(w http.ResponseWriter, r *http.Request) {
	queued, err := h.campaigns.Send(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, queued)
}

// CancelCampaign cancels a queued campaign before the worker starts it
func (h *Handlers) CancelCampaign(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.campaigns.Cancel(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cancelled)
}

// PreviewCampaignAudience resolves the campaign's include/exclude
// segments into the recipient set it would send to right now
func (h *Handlers) PreviewCampaignAudience(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	audience, err := h.segments.ResolveAudience(r.Context(), c.IncludeSegmentIDs, c.ExcludeSegmentIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": c.ID,
		"recipients":  len(audience.Emails),
		"included":    audience.Included,
		"excluded":    audience.Excluded,
	})
}
