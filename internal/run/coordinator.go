// Package run owns the single-flight scrape run and its status.
package run

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"internlee-engine/internal/events"
	"internlee-engine/internal/logging"
)

// ErrConflict is returned by Trigger while another run is in progress.
var ErrConflict = errors.New("scraper already running")

// Pipeline performs one full cycle and returns how many listings it published.
type Pipeline interface {
	Run(ctx context.Context) (int, error)
}

type PipelineFunc func(ctx context.Context) (int, error)

func (f PipelineFunc) Run(ctx context.Context) (int, error) { return f(ctx) }

// EventSink receives serialized run events. *events.Hub implements it.
type EventSink interface {
	Publish(evt string)
}

// Notifier is told about every finished run.
type Notifier interface {
	RunFinished(ctx context.Context, st Status) error
}

type Coordinator struct {
	base     context.Context
	pipeline Pipeline
	sem      *semaphore.Weighted
	status   atomic.Value // Status
	wg       sync.WaitGroup

	events   EventSink
	notifier Notifier
	log      *logging.Logger
	now      func() time.Time
}

type Option func(*Coordinator)

func WithEvents(s EventSink) Option { return func(c *Coordinator) { c.events = s } }

func WithNotifier(n Notifier) Option { return func(c *Coordinator) { c.notifier = n } }

func WithLogger(l *logging.Logger) Option { return func(c *Coordinator) { c.log = l } }

// NewCoordinator returns a coordinator whose runs execute under base, so a
// run outlives the request that triggered it but stops when base is done.
func NewCoordinator(base context.Context, p Pipeline, opts ...Option) *Coordinator {
	c := &Coordinator{
		base:     base,
		pipeline: p,
		sem:      semaphore.NewWeighted(1),
		log:      logging.Nop(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(c)
	}
	c.status.Store(Status{LastStatus: StateNever})
	return c
}

// Status returns the latest status without waiting for a run.
func (c *Coordinator) Status() Status {
	return c.status.Load().(Status)
}

type result struct {
	count int
	err   error
}

// Trigger starts a run and waits for it. It fails at once with ErrConflict
// when a run is already in progress, leaving the status untouched. If ctx
// ends first Trigger returns ctx's error; the run itself keeps going.
func (c *Coordinator) Trigger(ctx context.Context, triggeredBy string) (Outcome, error) {
	if !c.sem.TryAcquire(1) {
		return Outcome{}, ErrConflict
	}

	prev := c.Status()
	started := c.now()
	st := Status{
		RunID:           uuid.NewString(),
		TriggeredBy:     triggeredBy,
		LastRunStarted:  &started,
		LastRunFinished: prev.LastRunFinished,
		LastStatus:      StateRunning,
		LastCount:       prev.LastCount,
	}
	c.status.Store(st)

	log := c.log.With("run_id", st.RunID, "triggered_by", triggeredBy)
	log.Info("run started")
	c.emit(events.TypeRunStarted, events.RunStarted{
		RunID:       st.RunID,
		TriggeredBy: triggeredBy,
		StartedAt:   started,
	})

	done := make(chan result, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		count, err := c.execute(log)
		final := c.finish(st, count, err)
		c.sem.Release(1)
		done <- result{count: count, err: err}

		if err != nil {
			log.Error("run failed", "err", err, "dur_ms", final.LastRunFinished.Sub(started).Milliseconds())
		} else {
			log.Info("run finished", "count", count, "dur_ms", final.LastRunFinished.Sub(started).Milliseconds())
		}
		c.notify(log, final)
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Outcome{}, r.err
		}
		return Outcome{Status: string(StateOK), Count: r.count}, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Wait blocks until the in-flight run, if any, has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) execute(log *logging.Logger) (count int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("run panicked", "panic", rec)
			err = fmt.Errorf("run panicked: %v", rec)
		}
	}()
	return c.pipeline.Run(c.base)
}

func (c *Coordinator) finish(st Status, count int, err error) Status {
	finished := c.now()
	st.LastRunFinished = &finished
	if err != nil {
		msg := err.Error()
		st.LastStatus = StateError
		st.LastError = &msg
	} else {
		st.LastStatus = StateOK
		st.LastCount = count
	}
	c.status.Store(st)

	data := events.RunFinished{
		RunID:       st.RunID,
		TriggeredBy: st.TriggeredBy,
		Status:      string(st.LastStatus),
		Count:       count,
		DurationMs:  finished.Sub(*st.LastRunStarted).Milliseconds(),
	}
	if st.LastError != nil {
		data.Error = *st.LastError
	}
	c.emit(events.TypeRunFinished, data)
	return st
}

func (c *Coordinator) emit(typ string, data any) {
	if c.events == nil {
		return
	}
	c.events.Publish(events.MakeEvent("", typ, events.Version, data))
}

func (c *Coordinator) notify(log *logging.Logger, st Status) {
	if c.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.base), 15*time.Second)
	defer cancel()
	if err := c.notifier.RunFinished(ctx, st); err != nil {
		log.Warn("run notification failed", "err", err)
	}
}
