package httpapi

import (
	"net/http"

	"internlee-engine/internal/logging"
)

func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}

	rh := RunHandler{Runs: d.Runs}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Health,
	}))
	mux.HandleFunc("/jobs/last-run", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.LastRun,
	}))
	mux.HandleFunc("/jobs/refresh", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: rh.Refresh,
	}))

	jh := JobsHandler{Store: d.Store}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.List,
	}))

	ch := ConfigHandler{Cfg: d.Cfg.Redacted(), Warnings: d.Warnings}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
	}))

	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub, Log: log.With("component", "sse")}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	return mux
}

// Handler is the mux wrapped in the standard middleware chain.
func Handler(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logging.Nop()
	}
	return Chain(NewMux(d),
		RequestID,
		Recover(log),
		AccessLog(log),
		Cors,
	)
}
