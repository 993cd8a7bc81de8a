package scrape

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"internlee-engine/internal/browser"
	"internlee-engine/internal/domain"
	"internlee-engine/internal/logging"
)

// OpenFunc opens the browser provider shared by every source in a cycle.
type OpenFunc func(ctx context.Context) (*browser.Provider, error)

// Aggregator runs all sources for one cycle.
//
// Listings come back in source order, then extraction order, whether or not
// sources run in parallel. An Unavailable source contributes nothing. A Fatal
// source aborts the cycle unless IsolateFatal is set.
type Aggregator struct {
	Open         OpenFunc
	Parallel     bool
	IsolateFatal bool
	Log          *logging.Logger
}

func (a *Aggregator) RunCycle(ctx context.Context, sources []Source) ([]domain.Listing, error) {
	log := a.logger()

	p, err := a.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser provider: %w", err)
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			log.Warn("close browser provider", "err", cerr)
		}
	}()

	results := make([]Result, len(sources))
	if a.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, src := range sources {
			g.Go(func() error {
				results[i] = a.runOne(gctx, p, src)
				if results[i].Status == StatusFatal && !a.IsolateFatal {
					return results[i].Err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, src := range sources {
			results[i] = a.runOne(ctx, p, src)
			if results[i].Status == StatusFatal && !a.IsolateFatal {
				return nil, results[i].Err
			}
		}
	}

	var out []domain.Listing
	for i, r := range results {
		switch r.Status {
		case StatusOK:
			out = append(out, r.Listings...)
		case StatusFatal:
			log.Error("source failed, excluded from snapshot", "source", sources[i].Name(), "err", r.Err)
		}
	}
	return out, nil
}

func (a *Aggregator) runOne(ctx context.Context, p *browser.Provider, src Source) (r Result) {
	log := a.logger().With("source", src.Name())
	start := time.Now()
	log.Info("fetch start")

	defer func() {
		if rec := recover(); rec != nil {
			r = Fatal(fmt.Errorf("panic: %v", rec))
		}
		if r.Status == StatusFatal {
			r.Err = fmt.Errorf("source %s: %w", src.Name(), r.Err)
		}
		log.Info("fetch complete",
			"result", r.Status.String(),
			"listings", len(r.Listings),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	}()

	return src.Scrape(ctx, p)
}

func (a *Aggregator) logger() *logging.Logger {
	if a.Log == nil {
		return logging.Nop()
	}
	return a.Log
}
