package events

import (
	"encoding/json"
	"time"
)

// Version of the event envelope.
const Version = 1

const (
	TypeRunStarted  = "run_started"
	TypeRunFinished = "run_finished"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type RunStarted struct {
	RunID       string    `json:"run_id"`
	TriggeredBy string    `json:"triggered_by"`
	StartedAt   time.Time `json:"started_at"`
}

type RunFinished struct {
	RunID       string `json:"run_id"`
	TriggeredBy string `json:"triggered_by"`
	Status      string `json:"status"`
	Count       int    `json:"count"`
	Error       string `json:"error,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
