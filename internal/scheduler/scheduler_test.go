package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBusy = errors.New("busy")

func TestRunKeepsGoingAfterErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	task := func(context.Context) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("layout changed")
		case 2:
			return errBusy
		case 3:
			cancel()
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		Run(ctx, Options{Name: "test", Interval: time.Millisecond, Busy: errBusy}, task, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunStopsDuringWarmup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		Run(ctx, Options{Warmup: time.Hour, Interval: time.Hour}, func(context.Context) error {
			calls.Add(1)
			return nil
		}, nil)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, calls.Load())
}

func TestRunWaitsIntervalAfterRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 10)
	go Run(ctx, Options{Interval: time.Hour}, func(context.Context) error {
		ran <- struct{}{}
		return nil
	}, nil)

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not happen")
	}
	select {
	case <-ran:
		t.Fatal("second run fired before the interval")
	case <-time.After(50 * time.Millisecond):
	}
}
