package publish

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internlee-engine/internal/domain"
)

// memSink records calls and keeps rows in memory.
type memSink struct {
	rows       []domain.Listing
	deletes    int
	batches    []int
	failBatch  int
	failDelete bool
}

func (m *memSink) DeleteAll(context.Context) error {
	if m.failDelete {
		return errors.New("permission denied")
	}
	m.deletes++
	m.rows = nil
	return nil
}

func (m *memSink) InsertBatch(_ context.Context, batch []domain.Listing) error {
	if m.failBatch > 0 && len(m.batches)+1 == m.failBatch {
		return errors.New("payload too large")
	}
	m.batches = append(m.batches, len(batch))
	m.rows = append(m.rows, batch...)
	return nil
}

func listings(n int) []domain.Listing {
	out := make([]domain.Listing, n)
	for i := range out {
		out[i] = domain.Listing{Company: fmt.Sprintf("c%d", i), Title: "Intern"}.Normalize()
	}
	return out
}

func TestPublishBatchBoundary(t *testing.T) {
	sink := &memSink{}
	n, err := New(sink).Publish(context.Background(), listings(250))
	require.NoError(t, err)

	assert.Equal(t, 250, n)
	assert.Equal(t, 1, sink.deletes)
	assert.Equal(t, []int{100, 100, 50}, sink.batches)
}

func TestPublishEmptyStillDeletes(t *testing.T) {
	sink := &memSink{rows: listings(3)}
	n, err := New(sink).Publish(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Equal(t, 1, sink.deletes)
	assert.Empty(t, sink.batches)
	assert.Empty(t, sink.rows)
}

func TestPublishKeepOnEmpty(t *testing.T) {
	sink := &memSink{rows: listings(3)}
	n, err := New(sink, KeepOnEmpty(true)).Publish(context.Background(), nil)
	require.NoError(t, err)

	assert.Zero(t, n)
	assert.Zero(t, sink.deletes)
	assert.Len(t, sink.rows, 3)
}

func TestPublishIsIdempotent(t *testing.T) {
	sink := &memSink{rows: listings(7)}
	p := New(sink, WithBatchSize(4))
	want := listings(10)

	_, err := p.Publish(context.Background(), want)
	require.NoError(t, err)
	_, err = p.Publish(context.Background(), want)
	require.NoError(t, err)

	assert.Equal(t, want, sink.rows)
}

func TestPublishBatchFailurePropagates(t *testing.T) {
	sink := &memSink{failBatch: 2}
	n, err := New(sink).Publish(context.Background(), listings(250))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert batch 2")
	assert.Equal(t, 100, n)
	assert.Equal(t, []int{100}, sink.batches)
}

func TestPublishDeleteFailure(t *testing.T) {
	sink := &memSink{failDelete: true}
	_, err := New(sink).Publish(context.Background(), listings(1))
	require.Error(t, err)
	assert.Empty(t, sink.batches)
}

func TestBatchSizeIsClamped(t *testing.T) {
	sink := &memSink{}
	_, err := New(sink, WithBatchSize(500)).Publish(context.Background(), listings(150))
	require.NoError(t, err)
	assert.Equal(t, []int{100, 50}, sink.batches)
}

func TestChunk(t *testing.T) {
	assert.Nil(t, Chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1}, {2}}, Chunk([]int{1, 2}, 0))
}
