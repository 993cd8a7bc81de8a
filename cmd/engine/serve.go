package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"internlee-engine/internal/httpapi"
	"internlee-engine/internal/run"
	"internlee-engine/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func serve(parent context.Context, cfgPath string) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Runs outlive the request or tick that started them, so they hang off
	// their own context and are only cancelled during shutdown.
	base, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	a, err := newApp(ctx, base, cfgPath)
	if err != nil {
		return err
	}
	defer a.close()
	log := a.log

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx, scheduler.Options{
			Name:     "scrape",
			Warmup:   a.cfg.Warmup(),
			Interval: a.cfg.Interval(),
			Busy:     run.ErrConflict,
		}, func(ctx context.Context) error {
			_, err := a.coord.Trigger(ctx, "scheduler")
			return err
		}, log)
	}()

	srv := &http.Server{
		Addr: a.cfg.Addr(),
		Handler: httpapi.Handler(httpapi.Deps{
			Runs:     a.coord,
			Store:    a.store,
			Hub:      a.hub,
			Log:      log.With("component", "http"),
			Cfg:      a.cfg,
			Warnings: a.warnings,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("http listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
			log.Error("http server failed", "err", err)
		}
		stop()
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("graceful shutdown completed with error", "err", err)
	}

	cancelRuns()
	wg.Wait()
	a.coord.Wait()
	log.Info("engine stopped")
	return serveErr
}
