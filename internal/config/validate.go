package config

import (
	"fmt"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var knownEngines = map[string]bool{
	"chromium": true,
	"firefox":  true,
	"webkit":   true,
	"rod":      true,
}

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.ToLower(strings.TrimSpace(x))
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Browser.Engines = trimList(out.Browser.Engines)
	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Store.DSN = strings.TrimSpace(out.Store.DSN)
	out.Store.Table = strings.TrimSpace(out.Store.Table)

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Schedule.IntervalSeconds <= 0 {
		res.addErr("schedule.interval_seconds must be > 0")
	} else if out.Schedule.IntervalSeconds < 600 {
		res.addWarn("schedule.interval_seconds is very low (%d); job boards may start blocking.", out.Schedule.IntervalSeconds)
	}
	if out.Schedule.WarmupSeconds < 0 {
		res.addErr("schedule.warmup_seconds must be >= 0")
	}

	switch out.Store.Driver {
	case "sqlite", "postgres":
	default:
		res.addErr("store.driver must be sqlite or postgres, got %q", out.Store.Driver)
	}
	if out.Store.DSN == "" {
		res.addErr("store.dsn is required (set STORE_DSN)")
	}
	if !identRe.MatchString(out.Store.Table) {
		res.addErr("store.table %q is not a valid table name", out.Store.Table)
	}

	if out.Publish.BatchSize <= 0 || out.Publish.BatchSize > 100 {
		res.addErr("publish.batch_size must be 1..100")
	}
	if out.Publish.KeepOnEmpty {
		res.addWarn("publish.keep_on_empty is set; a cycle with zero listings leaves the previous snapshot in place.")
	}
	if out.Aggregate.IsolateFatal {
		res.addWarn("aggregate.isolate_fatal is set; layout changes on a board will no longer fail the run.")
	}

	if len(out.Browser.Engines) == 0 {
		res.addErr("browser.engines must list at least one engine")
	}
	for _, e := range out.Browser.Engines {
		if !knownEngines[e] {
			res.addErr("browser.engines: unknown engine %q", e)
		}
	}
	if out.Browser.AttemptsPerEngine <= 0 {
		res.addErr("browser.attempts_per_engine must be > 0")
	}
	if out.Browser.ReadyTimeoutMs <= 0 {
		res.addErr("browser.ready_timeout_ms must be > 0")
	}
	if out.Browser.SettleMs < 0 || out.Browser.RetryDelayMs < 0 {
		res.addErr("browser.settle_ms and browser.retry_delay_ms must be >= 0")
	}
	if out.Browser.NavPerSecond <= 0 {
		res.addErr("browser.nav_per_second must be > 0")
	}

	sources := []struct {
		name string
		src  Source
	}{
		{"unstop", out.Sources.Unstop},
		{"internshala", out.Sources.Internshala},
		{"naukri", out.Sources.Naukri},
		{"glassdoor", out.Sources.Glassdoor},
	}
	enabled := 0
	for _, e := range sources {
		name, s := e.name, e.src
		if !s.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(s.URL) == "" {
			res.addErr("sources.%s.url is required when enabled", name)
		}
		if s.MaxPages < 0 {
			res.addErr("sources.%s.max_pages must be >= 0", name)
		}
	}
	if enabled == 0 {
		res.addWarn("no sources enabled; every run will publish an empty snapshot.")
	}

	if out.Notify.Telegram.Enabled {
		if strings.TrimSpace(out.Notify.Telegram.Token) == "" {
			res.addErr("notify.telegram requires TELEGRAM_BOT_TOKEN when enabled")
		}
		if out.Notify.Telegram.ChatID == 0 {
			res.addErr("notify.telegram.chat_id is required when enabled")
		}
	}

	return out, res
}
