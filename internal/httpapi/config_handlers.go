package httpapi

import (
	"net/http"

	"internlee-engine/internal/config"
)

// ConfigHandler serves the effective config. Secrets never leave the process.
type ConfigHandler struct {
	Cfg      config.Config
	Warnings []string
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"config":   h.Cfg,
		"warnings": h.Warnings,
	})
}
