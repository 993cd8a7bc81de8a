package run

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internlee-engine/internal/domain"
	"internlee-engine/internal/events"
	"internlee-engine/internal/scrape"
)

// blockingPipeline runs until release is closed.
type blockingPipeline struct {
	started chan struct{}
	release chan struct{}
	count   int
}

func newBlocking(count int) *blockingPipeline {
	return &blockingPipeline{started: make(chan struct{}), release: make(chan struct{}), count: count}
}

func (b *blockingPipeline) Run(ctx context.Context) (int, error) {
	close(b.started)
	select {
	case <-b.release:
		return b.count, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

type eventLog struct {
	mu   sync.Mutex
	evts []string
}

func (e *eventLog) Publish(evt string) {
	e.mu.Lock()
	e.evts = append(e.evts, evt)
	e.mu.Unlock()
}

func (e *eventLog) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.evts...)
}

type notifierFunc func(context.Context, Status) error

func (f notifierFunc) RunFinished(ctx context.Context, st Status) error { return f(ctx, st) }

func TestStatusStartsAsNever(t *testing.T) {
	c := NewCoordinator(context.Background(), PipelineFunc(func(context.Context) (int, error) { return 0, nil }))
	st := c.Status()
	assert.Equal(t, StateNever, st.LastStatus)
	assert.Nil(t, st.LastRunStarted)
	assert.Nil(t, st.LastError)
	assert.Zero(t, st.LastCount)
}

func TestSingleFlight(t *testing.T) {
	p := newBlocking(7)
	c := NewCoordinator(context.Background(), p)

	first := make(chan error, 1)
	go func() {
		_, err := c.Trigger(context.Background(), "scheduler")
		first <- err
	}()
	<-p.started

	running := c.Status()
	require.Equal(t, StateRunning, running.LastStatus)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Trigger(context.Background(), "manual")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, running, c.Status(), "conflicting triggers must not touch status")

	close(p.release)
	require.NoError(t, <-first)

	st := c.Status()
	assert.Equal(t, StateOK, st.LastStatus)
	assert.Equal(t, 7, st.LastCount)
	assert.Equal(t, "scheduler", st.TriggeredBy)
}

func TestStatusLifecycle(t *testing.T) {
	var fail bool
	c := NewCoordinator(context.Background(), PipelineFunc(func(context.Context) (int, error) {
		if fail {
			return 0, errors.New("store unreachable")
		}
		return 42, nil
	}))

	out, err := c.Trigger(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, Outcome{Status: "ok", Count: 42}, out)

	ok := c.Status()
	assert.Equal(t, StateOK, ok.LastStatus)
	assert.Equal(t, 42, ok.LastCount)
	assert.Nil(t, ok.LastError)
	require.NotNil(t, ok.LastRunFinished)
	assert.False(t, ok.LastRunFinished.Before(*ok.LastRunStarted))

	fail = true
	_, err = c.Trigger(context.Background(), "manual")
	require.EqualError(t, err, "store unreachable")

	bad := c.Status()
	assert.Equal(t, StateError, bad.LastStatus)
	require.NotNil(t, bad.LastError)
	assert.Equal(t, "store unreachable", *bad.LastError)
	assert.Equal(t, 42, bad.LastCount, "count is kept from the last good run")
	assert.NotEqual(t, ok.RunID, bad.RunID)
}

func TestPanicBecomesError(t *testing.T) {
	calls := 0
	c := NewCoordinator(context.Background(), PipelineFunc(func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			panic("nil selection")
		}
		return 1, nil
	}))

	_, err := c.Trigger(context.Background(), "manual")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil selection")
	assert.Equal(t, StateError, c.Status().LastStatus)

	_, err = c.Trigger(context.Background(), "manual")
	require.NoError(t, err, "lock must be released after a panic")
}

func TestCallerCancelDoesNotAbortRun(t *testing.T) {
	p := newBlocking(3)
	c := NewCoordinator(context.Background(), p)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Trigger(ctx, "manual")
		errc <- err
	}()
	<-p.started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, StateRunning, c.Status().LastStatus)

	close(p.release)
	c.Wait()
	assert.Equal(t, StateOK, c.Status().LastStatus)
	assert.Equal(t, 3, c.Status().LastCount)
}

func TestBaseCancelStopsRun(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	p := newBlocking(3)
	c := NewCoordinator(base, p)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Trigger(context.Background(), "scheduler")
		errc <- err
	}()
	<-p.started
	cancel()

	assert.ErrorIs(t, <-errc, context.Canceled)
	c.Wait()
	assert.Equal(t, StateError, c.Status().LastStatus)
}

func TestEventsAndNotification(t *testing.T) {
	sink := &eventLog{}
	notified := make(chan Status, 1)
	c := NewCoordinator(context.Background(),
		PipelineFunc(func(context.Context) (int, error) { return 5, nil }),
		WithEvents(sink),
		WithNotifier(notifierFunc(func(_ context.Context, st Status) error {
			notified <- st
			return nil
		})),
	)

	_, err := c.Trigger(context.Background(), "manual")
	require.NoError(t, err)

	select {
	case st := <-notified:
		assert.Equal(t, StateOK, st.LastStatus)
		assert.Equal(t, 5, st.LastCount)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier not called")
	}

	evts := sink.all()
	require.Len(t, evts, 2)
	assert.Contains(t, evts[0], `"type":"`+events.TypeRunStarted+`"`)
	assert.Contains(t, evts[1], `"type":"`+events.TypeRunFinished+`"`)
	assert.True(t, strings.Contains(evts[1], `"count":5`))
}

type stubCollector struct {
	listings []domain.Listing
	err      error
}

func (s stubCollector) RunCycle(context.Context, []scrape.Source) ([]domain.Listing, error) {
	return s.listings, s.err
}

type spyPublisher struct{ calls int }

func (s *spyPublisher) Publish(_ context.Context, l []domain.Listing) (int, error) {
	s.calls++
	return len(l), nil
}

func TestFailFastSkipsPublish(t *testing.T) {
	pub := &spyPublisher{}
	cycle := &Cycle{
		Collector: stubCollector{err: domain.ErrLayout},
		Publisher: pub,
	}
	c := NewCoordinator(context.Background(), cycle)

	_, err := c.Trigger(context.Background(), "manual")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLayout)
	assert.Zero(t, pub.calls)
	assert.Equal(t, StateError, c.Status().LastStatus)
}

func TestCyclePublishesCollected(t *testing.T) {
	pub := &spyPublisher{}
	cycle := &Cycle{
		Collector: stubCollector{listings: []domain.Listing{{}, {}}},
		Publisher: pub,
	}
	n, err := cycle.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, pub.calls)
}
