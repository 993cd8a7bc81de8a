// Package browsertest provides scripted browser engines for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"internlee-engine/internal/browser"
)

// Session serves a fixed sequence of HTML pages. Clicking any selector in
// ClickAdvances moves to the next page.
type Session struct {
	mu sync.Mutex

	Pages         []string
	ClickAdvances map[string]bool
	VisibleSel    map[string]bool

	NavigateErr error
	WaitErr     error
	ClickErr    error

	page   int
	Calls  []string
	Closed bool
}

func (s *Session) record(format string, args ...any) {
	s.mu.Lock()
	s.Calls = append(s.Calls, fmt.Sprintf(format, args...))
	s.mu.Unlock()
}

func (s *Session) Navigate(_ context.Context, url string, _ time.Duration) error {
	s.record("navigate %s", url)
	return s.NavigateErr
}

func (s *Session) Scroll(_ context.Context, dy float64) error {
	s.record("scroll %.0f", dy)
	return nil
}

func (s *Session) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	s.record("wait-visible %s", selector)
	return s.WaitErr
}

func (s *Session) WaitHidden(_ context.Context, selector string, _ time.Duration) error {
	s.record("wait-hidden %s", selector)
	return nil
}

func (s *Session) Visible(_ context.Context, selector string) (bool, error) {
	s.record("visible %s", selector)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.VisibleSel[selector], nil
}

func (s *Session) Click(_ context.Context, selector string, _ time.Duration) error {
	s.record("click %s", selector)
	if s.ClickErr != nil {
		return s.ClickErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClickAdvances[selector] && s.page < len(s.Pages)-1 {
		s.page++
	}
	return nil
}

func (s *Session) HTML(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Pages) == 0 {
		return "", nil
	}
	return s.Pages[s.page], nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.Closed = true
	s.mu.Unlock()
	return nil
}

// Engine hands out sessions from New, recording each one.
type Engine struct {
	EngineName string
	New        func(n int) (*Session, error)

	mu       sync.Mutex
	Sessions []*Session
}

func (e *Engine) Name() string { return e.EngineName }

func (e *Engine) NewSession(context.Context) (browser.Session, error) {
	e.mu.Lock()
	n := len(e.Sessions)
	e.mu.Unlock()

	s, err := e.New(n)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.Sessions = append(e.Sessions, s)
	e.mu.Unlock()
	return s, nil
}

// SessionCount is how many sessions were opened successfully.
func (e *Engine) SessionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Sessions)
}

// Failing returns an engine whose sessions never become ready.
func Failing(name string, err error) *Engine {
	return &Engine{EngineName: name, New: func(int) (*Session, error) {
		return &Session{WaitErr: err}, nil
	}}
}

// Serving returns an engine whose sessions are ready and show pages.
func Serving(name string, pages ...string) *Engine {
	return &Engine{EngineName: name, New: func(int) (*Session, error) {
		return &Session{Pages: pages}, nil
	}}
}
