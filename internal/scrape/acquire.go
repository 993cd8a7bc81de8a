package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"internlee-engine/internal/browser"
	"internlee-engine/internal/logging"
	"internlee-engine/internal/scrape/util"
)

// ErrUnavailable means every engine and attempt failed to produce a ready page.
// Callers skip the source for this cycle.
var ErrUnavailable = errors.New("page unavailable")

const (
	defaultNavTimeout = 30 * time.Second
	defaultScrollBy   = 1200
)

// Target describes the page a source starts from.
type Target struct {
	Label         string
	URL           string
	ReadySelector string
	Timeout       time.Duration
	MaxAttempts   int
}

// ReadyPage is a session whose ready selector became visible.
// The caller owns it and must Close it.
type ReadyPage struct {
	browser.Session
	Engine  string
	Attempt int
}

type Acquirer struct {
	Limiter    *util.HostLimiter
	Settle     time.Duration
	RetryDelay time.Duration
	NavTimeout time.Duration
	ScrollBy   float64
	Log        *logging.Logger
}

// Acquire tries each engine in order, up to t.MaxAttempts times each, until
// the page at t.URL shows t.ReadySelector. Failed sessions are closed before
// the next attempt. It returns an error wrapping ErrUnavailable once everything
// is exhausted, or ctx's error if ctx ends first.
func (a *Acquirer) Acquire(ctx context.Context, t Target, engines []browser.Engine) (*ReadyPage, error) {
	log := a.logger().With("source", t.Label, "url", t.URL)

	attempts := t.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if len(engines) == 0 {
		log.Warn("no browser engines available")
		return nil, fmt.Errorf("%s: %w: no engines", t.Label, ErrUnavailable)
	}

	var last error
	tries := 0
	for _, eng := range engines {
		for attempt := 1; attempt <= attempts; attempt++ {
			if tries > 0 {
				if err := sleep(ctx, a.RetryDelay); err != nil {
					return nil, err
				}
			}
			tries++

			log.Info("page acquire attempt", "engine", eng.Name(), "attempt", attempt, "max_attempts", attempts)
			s, err := a.try(ctx, eng, t)
			if err == nil {
				log.Info("page ready", "engine", eng.Name(), "attempt", attempt)
				return &ReadyPage{Session: s, Engine: eng.Name(), Attempt: attempt}, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			last = err
			log.Warn("page acquire failed", "engine", eng.Name(), "attempt", attempt, "err", err)
		}
	}

	log.Warn("page unavailable, all engines exhausted", "tries", tries, "err", last)
	return nil, fmt.Errorf("%s: %w after %d tries: %w", t.Label, ErrUnavailable, tries, last)
}

func (a *Acquirer) try(ctx context.Context, eng browser.Engine, t Target) (s browser.Session, err error) {
	if a.Limiter != nil {
		if err := a.Limiter.WaitURL(ctx, t.URL); err != nil {
			return nil, err
		}
	}

	s, err = eng.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	nav := a.NavTimeout
	if nav <= 0 {
		nav = defaultNavTimeout
	}
	if err := s.Navigate(ctx, t.URL, nav); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if err := sleep(ctx, a.Settle); err != nil {
		return nil, err
	}

	dy := a.ScrollBy
	if dy == 0 {
		dy = defaultScrollBy
	}
	if err := s.Scroll(ctx, dy); err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}
	if err := s.WaitVisible(ctx, t.ReadySelector, t.Timeout); err != nil {
		return nil, fmt.Errorf("wait for %q: %w", t.ReadySelector, err)
	}
	return s, nil
}

func (a *Acquirer) logger() *logging.Logger {
	if a.Log == nil {
		return logging.Nop()
	}
	return a.Log
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
