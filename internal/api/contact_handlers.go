package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/audience-console/internal/service/contact"
)

// ==========================================
// CONTACT HANDLERS
// ==========================================

// ListContacts returns a cursor-paginated page of contacts
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	contacts, nextCursor, err := h.contacts.List(r.Context(), cursor, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"contacts":    contacts,
		"count":       len(contacts),
		"next_cursor": nextCursor,
		"has_more":    nextCursor != "",
	})
}

// CreateContact creates a new contact
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var input contact.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.contacts.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// GetContact returns a contact by ID
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.contacts.Get(r.Context(), chi.URLParam(r, "contactID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// UpdateContact applies a partial update to a contact
func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var input contact.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.contacts.Update(r.Context(), chi.URLParam(r, "contactID"), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteContact removes a contact
func (h *Handlers) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.Delete(r.Context(), chi.URLParam(r, "contactID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
