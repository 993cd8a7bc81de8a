package httpapi

import (
	"net/http"

	"internlee-engine/internal/store"
)

const maxListLimit = 5000

type JobsHandler struct {
	Store Lister
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "store_unavailable", "store is not configured")
		return
	}

	limit, ok := queryInt(r, "limit", store.DefaultListLimit)
	if !ok {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
		return
	}
	limit = min(limit, maxListLimit)

	listings, err := h.Store.List(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, listings)
}
