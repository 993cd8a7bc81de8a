// Package publish replaces the stored snapshot with a new set of listings.
package publish

import (
	"context"
	"fmt"

	"internlee-engine/internal/domain"
	"internlee-engine/internal/logging"
)

// MaxBatchSize is the largest insert the store is sent in one call.
const MaxBatchSize = 100

// Sink is the destination store as the publisher sees it.
type Sink interface {
	DeleteAll(ctx context.Context) error
	InsertBatch(ctx context.Context, batch []domain.Listing) error
}

type Publisher struct {
	sink        Sink
	batchSize   int
	keepOnEmpty bool
	log         *logging.Logger
}

type Option func(*Publisher)

// WithBatchSize sets the insert chunk size, clamped to 1..MaxBatchSize.
func WithBatchSize(n int) Option {
	return func(p *Publisher) { p.batchSize = n }
}

// KeepOnEmpty makes Publish leave the store untouched when given no listings.
func KeepOnEmpty(keep bool) Option {
	return func(p *Publisher) { p.keepOnEmpty = keep }
}

func WithLogger(l *logging.Logger) Option {
	return func(p *Publisher) { p.log = l }
}

func New(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{sink: sink, batchSize: MaxBatchSize, log: logging.Nop()}
	for _, o := range opts {
		o(p)
	}
	if p.batchSize < 1 || p.batchSize > MaxBatchSize {
		p.batchSize = MaxBatchSize
	}
	return p
}

// Publish deletes every stored listing, then inserts listings in batches.
// It returns how many were inserted. The first failing call aborts the
// publish and is returned as is; batches already inserted stay.
func (p *Publisher) Publish(ctx context.Context, listings []domain.Listing) (int, error) {
	if len(listings) == 0 && p.keepOnEmpty {
		p.log.Warn("no listings, keeping previous snapshot")
		return 0, nil
	}

	p.log.Info("clearing snapshot")
	if err := p.sink.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("delete snapshot: %w", err)
	}
	if len(listings) == 0 {
		p.log.Info("no listings to insert after clearing snapshot")
		return 0, nil
	}

	inserted := 0
	for i, batch := range Chunk(listings, p.batchSize) {
		if err := p.sink.InsertBatch(ctx, batch); err != nil {
			return inserted, fmt.Errorf("insert batch %d (%d listings): %w", i+1, len(batch), err)
		}
		inserted += len(batch)
		p.log.Info("inserted batch", "batch", i+1, "listings", len(batch), "total", inserted)
	}
	return inserted, nil
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n:n])
		items = items[n:]
	}
	return out
}
