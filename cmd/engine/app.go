package main

import (
	"context"
	"fmt"

	"internlee-engine/internal/browser"
	"internlee-engine/internal/config"
	"internlee-engine/internal/events"
	"internlee-engine/internal/lockfile"
	"internlee-engine/internal/logging"
	"internlee-engine/internal/notify"
	"internlee-engine/internal/publish"
	"internlee-engine/internal/run"
	"internlee-engine/internal/scrape"
	"internlee-engine/internal/scrape/sources/glassdoor"
	"internlee-engine/internal/scrape/sources/internshala"
	"internlee-engine/internal/scrape/sources/naukri"
	"internlee-engine/internal/scrape/sources/unstop"
	"internlee-engine/internal/scrape/util"
	"internlee-engine/internal/secrets"
	"internlee-engine/internal/store"
)

// app is everything one engine process owns.
type app struct {
	cfg      config.Config
	warnings []string
	log      *logging.Logger

	lock  *lockfile.Lock
	store store.Listings
	hub   *events.Hub
	coord *run.Coordinator
}

// loadConfig reads, normalizes and validates the config at path.
func loadConfig(path string) (config.Config, []string, error) {
	raw, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, v := config.NormalizeAndValidate(raw)
	if err := v.Err(); err != nil {
		return config.Config{}, v.Warnings, err
	}
	return cfg, v.Warnings, nil
}

// newApp wires the store, sources, publisher and coordinator. Runs started
// by the coordinator live until base is cancelled.
func newApp(ctx, base context.Context, cfgPath string) (*app, error) {
	cfg, warnings, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	log := logging.New(cfg.App.LogLevel)
	for _, w := range warnings {
		log.Warn("config warning", "warning", w)
	}

	if err := secrets.ResolveStorePassword(secrets.OS, &cfg); err != nil {
		log.Warn("keychain lookup failed", "err", err)
	}

	lock, err := lockfile.Acquire(cfg.App.DataDir)
	if err != nil {
		return nil, err
	}

	log.Info("instance lock held", "path", lock.Path())

	a := &app{cfg: cfg, warnings: warnings, log: log, lock: lock, hub: events.NewHub()}

	a.store, err = store.Connect(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("connect store: %w", err)
	}

	sources, agg := buildSources(cfg, log)
	pub := publish.New(a.store,
		publish.WithBatchSize(cfg.Publish.BatchSize),
		publish.KeepOnEmpty(cfg.Publish.KeepOnEmpty),
		publish.WithLogger(log.With("component", "publish")),
	)

	opts := []run.Option{
		run.WithEvents(a.hub),
		run.WithLogger(log.With("component", "run")),
	}
	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegram(cfg.Notify.Telegram.Token, cfg.Notify.Telegram.ChatID)
		if err != nil {
			// A broken notifier should not keep the scraper down.
			log.Error("telegram notifier disabled", "err", err)
		} else {
			opts = append(opts, run.WithNotifier(tg))
		}
	}

	a.coord = run.NewCoordinator(base, &run.Cycle{
		Collector: agg,
		Publisher: pub,
		Sources:   sources,
		Log:       log.With("component", "cycle"),
	}, opts...)

	log.Info("engine ready",
		"store", cfg.Store.Driver,
		"table", cfg.Store.Table,
		"sources", len(sources),
		"engines", cfg.Browser.Engines,
	)
	return a, nil
}

// buildSources returns the enabled sources in publishing order and the
// aggregator that runs them.
func buildSources(cfg config.Config, log *logging.Logger) ([]scrape.Source, *scrape.Aggregator) {
	acq := &scrape.Acquirer{
		Limiter:    util.NewHostLimiter(cfg.Browser.NavPerSecond, 1),
		Settle:     cfg.Settle(),
		RetryDelay: cfg.RetryDelay(),
		Log:        log.With("component", "acquire"),
	}
	opts := scrape.SiteOptions{
		Acquirer:    acq,
		Timeout:     cfg.ReadyTimeout(),
		MaxAttempts: cfg.Browser.AttemptsPerEngine,
		Log:         log,
	}

	var sources []scrape.Source
	if s := cfg.Sources.Unstop; s.Enabled {
		sources = append(sources, unstop.New(s, opts))
	}
	if s := cfg.Sources.Internshala; s.Enabled {
		sources = append(sources, internshala.New(s, opts))
	}
	if s := cfg.Sources.Naukri; s.Enabled {
		sources = append(sources, naukri.New(s, opts))
	}
	if s := cfg.Sources.Glassdoor; s.Enabled {
		sources = append(sources, glassdoor.New(s, opts))
	}

	bopts := browser.Options{Headless: cfg.Browser.Headless, UserAgent: cfg.Browser.UserAgent}
	engines := cfg.Browser.Engines
	agg := &scrape.Aggregator{
		Open: func(ctx context.Context) (*browser.Provider, error) {
			return browser.Open(ctx, engines, bopts)
		},
		Parallel:     cfg.Aggregate.Parallel,
		IsolateFatal: cfg.Aggregate.IsolateFatal,
		Log:          log.With("component", "aggregate"),
	}
	return sources, agg
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close store", "err", err)
		}
	}
	if err := a.lock.Release(); err != nil {
		a.log.Warn("release lock", "err", err)
	}
	_ = a.log.Sync()
}
