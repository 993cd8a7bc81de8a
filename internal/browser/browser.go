// Package browser wraps the automation engines the scrapers drive.
// Every engine hands out independent sessions; closing a session releases
// the browser process behind it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

type Session interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// Scroll performs one wheel scroll of dy pixels.
	Scroll(ctx context.Context, dy float64) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	WaitHidden(ctx context.Context, selector string, timeout time.Duration) error
	Visible(ctx context.Context, selector string) (bool, error)
	Click(ctx context.Context, selector string, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

type Engine interface {
	Name() string
	NewSession(ctx context.Context) (Session, error)
}

type Options struct {
	Headless  bool
	UserAgent string
}

// Provider is the ordered set of engines available to one scrape cycle.
type Provider struct {
	engines []Engine
	closers []io.Closer
}

func NewProvider(engines ...Engine) *Provider {
	return &Provider{engines: engines}
}

// Open builds a provider for the named engines, in order. Playwright engines
// share a single driver that is started on first use.
func Open(ctx context.Context, names []string, opts Options) (*Provider, error) {
	p := &Provider{}
	var pw *playwrightDriver

	for _, name := range names {
		switch name {
		case "chromium", "firefox", "webkit":
			if pw == nil {
				pw = &playwrightDriver{}
				p.closers = append(p.closers, pw)
			}
			p.engines = append(p.engines, &playwrightEngine{kind: name, driver: pw, opts: opts})
		case "rod":
			p.engines = append(p.engines, &rodEngine{opts: opts})
		default:
			return nil, fmt.Errorf("unknown browser engine %q", name)
		}
	}
	if len(p.engines) == 0 {
		return nil, errors.New("no browser engines configured")
	}
	return p, nil
}

// Engines returns the named engines in the given order, or all of them
// when no names are given. Unknown names are skipped.
func (p *Provider) Engines(names ...string) []Engine {
	if len(names) == 0 {
		return append([]Engine(nil), p.engines...)
	}
	var out []Engine
	for _, n := range names {
		for _, e := range p.engines {
			if e.Name() == n {
				out = append(out, e)
			}
		}
	}
	return out
}

func (p *Provider) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
