package api

import (
	"net/http"

	"github.com/ignite/audience-console/internal/segmentation"
)

// ==========================================
// FIELD CATALOG HANDLERS
// ==========================================

// ListFields returns the segmentable field catalog for the rule builder
func (h *Handlers) ListFields(w http.ResponseWriter, r *http.Request) {
	fields := segmentation.Catalog()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields": fields,
		"count":  len(fields),
	})
}

// ListOperators returns operator metadata, optionally filtered by field type
func (h *Handlers) ListOperators(w http.ResponseWriter, r *http.Request) {
	typeParam := r.URL.Query().Get("type")
	if typeParam == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"operators": segmentation.GetOperatorMetadata(),
		})
		return
	}

	fieldType := segmentation.FieldType(typeParam)
	if !segmentation.ValidFieldType(fieldType) {
		respondError(w, http.StatusBadRequest, "unknown field type: "+typeParam)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"operators": segmentation.OperatorsFor(fieldType),
	})
}
