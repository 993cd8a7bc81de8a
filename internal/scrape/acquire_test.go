package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internlee-engine/internal/browser"
	"internlee-engine/internal/browser/browsertest"
)

func target() Target {
	return Target{
		Label:         "test",
		URL:           "https://example.com/jobs",
		ReadySelector: "div.card",
		Timeout:       time.Second,
		MaxAttempts:   2,
	}
}

func TestAcquireFallsBackToNextEngine(t *testing.T) {
	ff := browsertest.Failing("firefox", errors.New("timeout"))
	cr := browsertest.Serving("chromium", "<html></html>")

	a := &Acquirer{}
	page, err := a.Acquire(context.Background(), target(), []browser.Engine{ff, cr})
	require.NoError(t, err)
	defer page.Close()

	assert.Equal(t, "chromium", page.Engine)
	assert.Equal(t, 1, page.Attempt)
	assert.Equal(t, 2, ff.SessionCount())
	for _, s := range ff.Sessions {
		assert.True(t, s.Closed, "failed session must be closed")
	}
	assert.False(t, cr.Sessions[0].Closed)
}

func TestAcquireStepsInOrder(t *testing.T) {
	cr := browsertest.Serving("chromium")
	a := &Acquirer{ScrollBy: 500}

	page, err := a.Acquire(context.Background(), target(), []browser.Engine{cr})
	require.NoError(t, err)
	defer page.Close()

	assert.Equal(t, []string{
		"navigate https://example.com/jobs",
		"scroll 500",
		"wait-visible div.card",
	}, cr.Sessions[0].Calls)
}

func TestAcquireExhaustedIsUnavailable(t *testing.T) {
	ff := browsertest.Failing("firefox", errors.New("timeout"))
	cr := browsertest.Failing("chromium", errors.New("timeout"))

	a := &Acquirer{}
	_, err := a.Acquire(context.Background(), target(), []browser.Engine{ff, cr})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "timeout")

	assert.Equal(t, 2, ff.SessionCount())
	assert.Equal(t, 2, cr.SessionCount())
	for _, s := range append(ff.Sessions, cr.Sessions...) {
		assert.True(t, s.Closed)
	}
}

func TestAcquireSessionOpenFailureCountsAsAttempt(t *testing.T) {
	calls := 0
	broken := &browsertest.Engine{EngineName: "rod", New: func(int) (*browsertest.Session, error) {
		calls++
		return nil, errors.New("no browser binary")
	}}

	a := &Acquirer{}
	_, err := a.Acquire(context.Background(), target(), []browser.Engine{broken})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, calls)
}

func TestAcquireNoEngines(t *testing.T) {
	a := &Acquirer{}
	_, err := a.Acquire(context.Background(), target(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAcquireCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cr := browsertest.Serving("chromium")
	a := &Acquirer{Settle: time.Second}
	_, err := a.Acquire(ctx, target(), []browser.Engine{cr})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 1, cr.SessionCount())
	assert.True(t, cr.Sessions[0].Closed)
}
