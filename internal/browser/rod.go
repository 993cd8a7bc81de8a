package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodEngine drives a launcher-managed Chromium over CDP.
type rodEngine struct {
	opts Options
}

func (e *rodEngine) Name() string { return "rod" }

func (e *rodEngine) NewSession(ctx context.Context) (Session, error) {
	l := launcher.New().Context(ctx).Headless(e.opts.Headless)
	u, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("launch rod chromium: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect rod chromium: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("new rod page: %w", err)
	}
	if e.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: e.opts.UserAgent}); err != nil {
			_ = b.Close()
			l.Kill()
			l.Cleanup()
			return nil, fmt.Errorf("set rod user agent: %w", err)
		}
	}

	return &rodSession{launcher: l, browser: b, page: page}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	once     sync.Once
	err      error
}

func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodSession) Scroll(ctx context.Context, dy float64) error {
	return s.page.Context(ctx).Mouse.Scroll(0, dy, 1)
}

func (s *rodSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.WaitVisible()
}

func (s *rodSession) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	has, el, err := s.page.Context(ctx).Timeout(timeout).Has(selector)
	if err != nil || !has {
		return err
	}
	return el.WaitInvisible()
}

func (s *rodSession) Visible(ctx context.Context, selector string) (bool, error) {
	has, el, err := s.page.Context(ctx).Has(selector)
	if err != nil || !has {
		return false, err
	}
	return el.Visible()
}

func (s *rodSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := s.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *rodSession) Close() error {
	s.once.Do(func() {
		s.err = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()
	})
	return s.err
}
