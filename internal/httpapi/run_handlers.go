package httpapi

import (
	"errors"
	"net/http"
	"time"

	"internlee-engine/internal/run"
)

type RunHandler struct {
	Runs Runner
}

type healthResponse struct {
	Status          run.State  `json:"status"`
	LastRunStarted  *time.Time `json:"last_run_started"`
	LastRunFinished *time.Time `json:"last_run_finished"`
	LastError       *string    `json:"last_error"`
}

func (h RunHandler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.Runs.Status()
	WriteJSON(w, http.StatusOK, healthResponse{
		Status:          st.LastStatus,
		LastRunStarted:  st.LastRunStarted,
		LastRunFinished: st.LastRunFinished,
		LastError:       st.LastError,
	})
}

func (h RunHandler) LastRun(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Runs.Status())
}

// Refresh runs a manual cycle and waits for it.
func (h RunHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	out, err := h.Runs.Trigger(r.Context(), "manual")
	switch {
	case err == nil:
		WriteJSON(w, http.StatusOK, out)
	case errors.Is(err, run.ErrConflict):
		WriteError(w, r, http.StatusConflict, "conflict", "Scraper already running")
	case r.Context().Err() != nil:
		// Client went away; the run continues in the background.
	default:
		WriteError(w, r, http.StatusInternalServerError, "run_failed", err.Error())
	}
}
