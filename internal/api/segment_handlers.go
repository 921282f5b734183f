package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/audience-console/internal/segmentation"
	"github.com/ignite/audience-console/internal/service/segment"
)

// ==========================================
// SEGMENT HANDLERS
// ==========================================

// ListSegments returns all segments
func (h *Handlers) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := h.segments.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"segments": segments,
		"count":    len(segments),
	})
}

// CreateSegment creates a new segment. Dynamic segment rules are
// validated against the field and operator registries before anything
// is persisted.
func (h *Handlers) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var input segment.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.segments.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetSegment returns a segment by ID
func (h *Handlers) GetSegment(w http.ResponseWriter, r *http.Request) {
	seg, err := h.segments.Get(r.Context(), chi.URLParam(r, "segmentID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seg)
}

// UpdateSegment applies a partial update to a segment
func (h *Handlers) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	var input segment.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.segments.Update(r.Context(), chi.URLParam(r, "segmentID"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteSegment deletes a segment and its static members
func (h *Handlers) DeleteSegment(w http.ResponseWriter, r *http.Request) {
	if err := h.segments.Delete(r.Context(), chi.URLParam(r, "segmentID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ValidateSegmentRules checks a rule tree against the registries without
// saving anything. The rule builder calls this as the user edits.
func (h *Handlers) ValidateSegmentRules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rules *segmentation.RuleGroup `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rules == nil {
		respondError(w, http.StatusBadRequest, "rules are required")
		return
	}

	problems := h.segments.Validate(req.Rules)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    len(problems) == 0,
		"problems": problems,
	})
}

// PreviewSegment evaluates ad-hoc rules against the contact base and
// returns match counts plus a capped sample, without saving a segment
func (h *Handlers) PreviewSegment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rules      *segmentation.RuleGroup `json:"rules"`
		SampleSize int                     `json:"sample_size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rules == nil {
		respondError(w, http.StatusBadRequest, "rules are required")
		return
	}

	preview, err := h.segments.Preview(r.Context(), req.Rules, req.SampleSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, preview)
}

// RefreshSegment re-evaluates a dynamic segment, persists the new count,
// and archives an audience snapshot
func (h *Handlers) RefreshSegment(w http.ResponseWriter, r *http.Request) {
	result, err := h.segments.Refresh(r.Context(), chi.URLParam(r, "segmentID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ResolveSegment returns the current matching emails for a segment
func (h *Handlers) ResolveSegment(w http.ResponseWriter, r *http.Request) {
	emails, err := h.segments.Resolve(r.Context(), chi.URLParam(r, "segmentID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"emails": emails,
		"count":  len(emails),
	})
}

// ListSegmentSnapshots returns the archived audience snapshots for a
// segment, newest first
func (h *Handlers) ListSegmentSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.segments.ListSnapshots(r.Context(), chi.URLParam(r, "segmentID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// DownloadSegmentSnapshot returns one archived snapshot with its full
// email list, by the key reported in the snapshot listing
func (h *Handlers) DownloadSegmentSnapshot(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}

	snap, err := h.segments.GetSnapshot(r.Context(), chi.URLParam(r, "segmentID"), key)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// ==========================================
// MEMBER HANDLERS (static segments)
// ==========================================

// memberRequest is the body for member add/remove calls
type memberRequest struct {
	Emails []string `json:"emails"`
}

// ListSegmentMembers returns a cursor-paginated page of a static
// segment's members
func (h *Handlers) ListSegmentMembers(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	members, nextCursor, err := h.segments.ListMembers(r.Context(), chi.URLParam(r, "segmentID"), cursor, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"members":     members,
		"count":       len(members),
		"next_cursor": nextCursor,
		"has_more":    nextCursor != "",
	})
}

// AddSegmentMembers adds emails to a static segment
func (h *Handlers) AddSegmentMembers(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Emails) == 0 {
		respondError(w, http.StatusBadRequest, "emails are required")
		return
	}

	result, err := h.segments.AddMembers(r.Context(), chi.URLParam(r, "segmentID"), req.Emails)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RemoveSegmentMembers removes emails from a static segment
func (h *Handlers) RemoveSegmentMembers(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Emails) == 0 {
		respondError(w, http.StatusBadRequest, "emails are required")
		return
	}

	result, err := h.segments.RemoveMembers(r.Context(), chi.URLParam(r, "segmentID"), req.Emails)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
