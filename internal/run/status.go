package run

import "time"

type State string

const (
	StateNever   State = "never"
	StateRunning State = "running"
	StateOK      State = "ok"
	StateError   State = "error"
)

// Status describes the latest run. Timestamps and error are null until set.
type Status struct {
	RunID           string     `json:"run_id,omitempty"`
	TriggeredBy     string     `json:"triggered_by,omitempty"`
	LastRunStarted  *time.Time `json:"last_run_started"`
	LastRunFinished *time.Time `json:"last_run_finished"`
	LastStatus      State      `json:"last_status"`
	LastError       *string    `json:"last_error"`
	LastCount       int        `json:"last_count"`
}

// Outcome is what a successful Trigger reports to its caller.
type Outcome struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
