package api

import (
	"net/http"
	"time"

	"github.com/ignite/audience-console/internal/domain"
	"github.com/ignite/audience-console/internal/service/campaign"
)

const recentCampaignLimit = 5

// GetDashboard returns the console landing-page stats in one call:
// entity counts, segment totals by type, campaign totals by status, and
// the most recent campaigns.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contactCount, err := h.contacts.Count(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	segments, err := h.segments.List(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	dynamicCount := 0
	staticCount := 0
	for _, seg := range segments {
		if seg.IsDynamic() {
			dynamicCount++
		} else {
			staticCount++
		}
	}

	campaigns, campaignTotal, err := h.campaigns.List(ctx, campaign.ListFilter{})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	byStatus := map[string]int{}
	for _, c := range campaigns {
		byStatus[string(c.Status)]++
	}
	recent := campaigns
	if len(recent) > recentCampaignLimit {
		recent = recent[:recentCampaignLimit]
	}
	if recent == nil {
		recent = []domain.Campaign{}
	}

	templates, err := h.templates.List(ctx)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"contacts": map[string]interface{}{
			"total": contactCount,
		},
		"segments": map[string]interface{}{
			"total":   len(segments),
			"dynamic": dynamicCount,
			"static":  staticCount,
		},
		"campaigns": map[string]interface{}{
			"total":     campaignTotal,
			"by_status": byStatus,
			"recent":    recent,
		},
		"templates": map[string]interface{}{
			"total": len(templates),
		},
	})
}
