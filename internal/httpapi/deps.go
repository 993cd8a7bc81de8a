package httpapi

import (
	"context"

	"internlee-engine/internal/config"
	"internlee-engine/internal/domain"
	"internlee-engine/internal/events"
	"internlee-engine/internal/logging"
	"internlee-engine/internal/run"
)

// Runner triggers runs and reports their status. *run.Coordinator implements it.
type Runner interface {
	Trigger(ctx context.Context, triggeredBy string) (run.Outcome, error)
	Status() run.Status
}

// Lister reads the published snapshot.
type Lister interface {
	List(ctx context.Context, limit int) ([]domain.Listing, error)
}

type Deps struct {
	Runs  Runner
	Store Lister
	Hub   *events.Hub
	Log   *logging.Logger

	// Effective config and its validation warnings, served read-only.
	Cfg      config.Config
	Warnings []string
}
