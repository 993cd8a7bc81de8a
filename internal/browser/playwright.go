package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

type playwrightDriver struct {
	mu  sync.Mutex
	pw  *playwright.Playwright
	err error
}

func (d *playwrightDriver) get() (*playwright.Playwright, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pw == nil && d.err == nil {
		d.pw, d.err = playwright.Run()
		if d.err != nil {
			d.err = fmt.Errorf("start playwright: %w", d.err)
		}
	}
	return d.pw, d.err
}

func (d *playwrightDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	return err
}

type playwrightEngine struct {
	kind   string
	driver *playwrightDriver
	opts   Options
}

func (e *playwrightEngine) Name() string { return e.kind }

func (e *playwrightEngine) NewSession(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := e.driver.get()
	if err != nil {
		return nil, err
	}

	var bt playwright.BrowserType
	switch e.kind {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(e.opts.Headless),
	})
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", e.kind, err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if e.opts.UserAgent != "" {
		ctxOpts.UserAgent = playwright.String(e.opts.UserAgent)
	}
	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("new %s context: %w", e.kind, err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = b.Close()
		return nil, fmt.Errorf("new %s page: %w", e.kind, err)
	}

	return &playwrightSession{browser: b, bctx: bctx, page: page}, nil
}

type playwrightSession struct {
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	once    sync.Once
	err     error
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func (s *playwrightSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeout),
	})
	return err
}

func (s *playwrightSession) Scroll(ctx context.Context, dy float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.Mouse().Wheel(0, dy)
}

func (s *playwrightSession) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return s.waitFor(ctx, selector, playwright.WaitForSelectorStateVisible, timeout)
}

func (s *playwrightSession) WaitHidden(ctx context.Context, selector string, timeout time.Duration) error {
	return s.waitFor(ctx, selector, playwright.WaitForSelectorStateHidden, timeout)
}

func (s *playwrightSession) waitFor(ctx context.Context, selector string, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: millis(timeout),
	})
}

func (s *playwrightSession) Visible(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.page.Locator(selector).First().IsVisible()
}

func (s *playwrightSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: millis(timeout),
	})
}

func (s *playwrightSession) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.page.Content()
}

func (s *playwrightSession) Close() error {
	s.once.Do(func() {
		_ = s.bctx.Close()
		s.err = s.browser.Close()
	})
	return s.err
}
