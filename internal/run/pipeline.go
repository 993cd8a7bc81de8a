package run

import (
	"context"
	"fmt"
	"time"

	"internlee-engine/internal/domain"
	"internlee-engine/internal/logging"
	"internlee-engine/internal/scrape"
)

type Collector interface {
	RunCycle(ctx context.Context, sources []scrape.Source) ([]domain.Listing, error)
}

type Publisher interface {
	Publish(ctx context.Context, listings []domain.Listing) (int, error)
}

// Cycle scrapes every source, then publishes the result. Nothing is
// published when scraping fails.
type Cycle struct {
	Collector Collector
	Publisher Publisher
	Sources   []scrape.Source
	Log       *logging.Logger
}

func (c *Cycle) Run(ctx context.Context) (int, error) {
	start := time.Now()

	listings, err := c.Collector.RunCycle(ctx, c.Sources)
	if err != nil {
		return 0, fmt.Errorf("scrape: %w", err)
	}

	n, err := c.Publisher.Publish(ctx, listings)
	if err != nil {
		return 0, fmt.Errorf("publish: %w", err)
	}

	if c.Log != nil {
		c.Log.Info("cycle complete", "sources", len(c.Sources), "listings", n, "dur_ms", time.Since(start).Milliseconds())
	}
	return n, nil
}
