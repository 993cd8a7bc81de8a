package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"internlee-engine/internal/browser"
	"internlee-engine/internal/domain"
	"internlee-engine/internal/logging"
)

type Status int

const (
	StatusOK Status = iota
	StatusUnavailable
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusFatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is what one source produced in a cycle.
type Result struct {
	Status   Status
	Listings []domain.Listing
	Err      error
}

func OK(listings []domain.Listing) Result { return Result{Status: StatusOK, Listings: listings} }
func Unavailable(err error) Result        { return Result{Status: StatusUnavailable, Err: err} }
func Fatal(err error) Result              { return Result{Status: StatusFatal, Err: err} }

// Source is one job board.
type Source interface {
	Name() string
	Scrape(ctx context.Context, p *browser.Provider) Result
}

// ExtractFunc pulls listings out of an acquired page. It may paginate.
type ExtractFunc func(ctx context.Context, page *ReadyPage) ([]domain.Listing, error)

// PageSource is a Source that starts from one page acquired with Acquirer.
type PageSource struct {
	SourceName string
	Target     Target
	// Engines restricts and orders the provider's engines; empty means all.
	Engines  []string
	Acquirer *Acquirer
	Extract  ExtractFunc
	Log      *logging.Logger
}

func (s *PageSource) Name() string { return s.SourceName }

func (s *PageSource) Scrape(ctx context.Context, p *browser.Provider) Result {
	log := s.Log
	if log == nil {
		log = logging.Nop()
	}

	page, err := s.Acquirer.Acquire(ctx, s.Target, p.Engines(s.Engines...))
	if errors.Is(err, ErrUnavailable) {
		log.Warn("source unavailable, skipping", "source", s.SourceName, "err", err)
		return Unavailable(err)
	}
	if err != nil {
		return Fatal(err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("close session", "source", s.SourceName, "err", cerr)
		}
	}()

	listings, err := s.Extract(ctx, page)
	if err != nil {
		return Fatal(err)
	}

	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.Normalize())
	}
	return OK(out)
}

// SiteOptions is what every site package needs to build its PageSource.
type SiteOptions struct {
	Acquirer    *Acquirer
	Engines     []string
	Timeout     time.Duration
	MaxAttempts int
	Log         *logging.Logger
}

// Logger returns Log scoped to the named source.
func (o SiteOptions) Logger(source string) *logging.Logger {
	if o.Log == nil {
		return logging.Nop()
	}
	return o.Log.With("source", source)
}

// Page builds a PageSource for a site whose start page is ready once
// readySelector is visible.
func (o SiteOptions) Page(name, url, readySelector string, extract ExtractFunc) *PageSource {
	return &PageSource{
		SourceName: name,
		Target: Target{
			Label:         name,
			URL:           url,
			ReadySelector: readySelector,
			Timeout:       o.Timeout,
			MaxAttempts:   o.MaxAttempts,
		},
		Engines:  o.Engines,
		Acquirer: o.Acquirer,
		Extract:  extract,
		Log:      o.Logger(name),
	}
}

// ParseHTML is an ExtractFunc that parses the page as it currently is.
func ParseHTML(parse func(html string) ([]domain.Listing, error)) ExtractFunc {
	return func(ctx context.Context, page *ReadyPage) ([]domain.Listing, error) {
		html, err := page.HTML(ctx)
		if err != nil {
			return nil, fmt.Errorf("read page html: %w", err)
		}
		return parse(html)
	}
}
