package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Source struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	URL      string `yaml:"url" json:"url"`
	MaxPages int    `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`
}

type Config struct {
	App struct {
		Host     string `yaml:"host" json:"host"`
		Port     int    `yaml:"port" json:"port"`
		DataDir  string `yaml:"data_dir" json:"data_dir"`
		LogLevel string `yaml:"log_level" json:"log_level"`
	} `yaml:"app" json:"app"`

	Schedule struct {
		IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds"`
		WarmupSeconds   int `yaml:"warmup_seconds" json:"warmup_seconds"`
	} `yaml:"schedule" json:"schedule"`

	Store struct {
		Driver         string `yaml:"driver" json:"driver"` // sqlite | postgres
		DSN            string `yaml:"dsn" json:"dsn"`
		Password       string `yaml:"-" json:"-"`
		KeyringAccount string `yaml:"keyring_account" json:"keyring_account"`
		Table          string `yaml:"table" json:"table"`
	} `yaml:"store" json:"store"`

	Publish struct {
		BatchSize   int  `yaml:"batch_size" json:"batch_size"`
		KeepOnEmpty bool `yaml:"keep_on_empty" json:"keep_on_empty"`
	} `yaml:"publish" json:"publish"`

	Aggregate struct {
		Parallel     bool `yaml:"parallel" json:"parallel"`
		IsolateFatal bool `yaml:"isolate_fatal" json:"isolate_fatal"`
	} `yaml:"aggregate" json:"aggregate"`

	Browser struct {
		Engines           []string `yaml:"engines" json:"engines"`
		Headless          bool     `yaml:"headless" json:"headless"`
		UserAgent         string   `yaml:"user_agent" json:"user_agent"`
		AttemptsPerEngine int      `yaml:"attempts_per_engine" json:"attempts_per_engine"`
		ReadyTimeoutMs    int      `yaml:"ready_timeout_ms" json:"ready_timeout_ms"`
		SettleMs          int      `yaml:"settle_ms" json:"settle_ms"`
		RetryDelayMs      int      `yaml:"retry_delay_ms" json:"retry_delay_ms"`
		NavPerSecond      float64  `yaml:"nav_per_second" json:"nav_per_second"`
	} `yaml:"browser" json:"browser"`

	Sources struct {
		Unstop      Source `yaml:"unstop" json:"unstop"`
		Internshala Source `yaml:"internshala" json:"internshala"`
		Naukri      Source `yaml:"naukri" json:"naukri"`
		Glassdoor   Source `yaml:"glassdoor" json:"glassdoor"`
	} `yaml:"sources" json:"sources"`

	Notify struct {
		Telegram struct {
			Enabled bool   `yaml:"enabled" json:"enabled"`
			Token   string `yaml:"-" json:"-"`
			ChatID  int64  `yaml:"chat_id" json:"chat_id"`
		} `yaml:"telegram" json:"telegram"`
	} `yaml:"notify" json:"notify"`
}

func Default() Config {
	var cfg Config

	cfg.App.Host = "0.0.0.0"
	cfg.App.Port = 8000
	cfg.App.DataDir = "."
	cfg.App.LogLevel = "info"

	cfg.Schedule.IntervalSeconds = 60 * 60 * 24
	cfg.Schedule.WarmupSeconds = 5

	cfg.Store.Driver = "postgres"
	cfg.Store.Table = "internships"

	cfg.Publish.BatchSize = 100

	cfg.Browser.Engines = []string{"firefox", "chromium"}
	cfg.Browser.Headless = true
	cfg.Browser.AttemptsPerEngine = 2
	cfg.Browser.ReadyTimeoutMs = 20000
	cfg.Browser.SettleMs = 2000
	cfg.Browser.RetryDelayMs = 3000
	cfg.Browser.NavPerSecond = 0.5

	cfg.Sources.Unstop = Source{
		Enabled:  true,
		URL:      "https://unstop.com/internships?category=user-experience-ux-design%3Asoftware-development-engineering%3Amachine-learning-ai-engineering%3Adata-engineering-pipelines&oppstatus=open",
		MaxPages: 5,
	}
	cfg.Sources.Internshala = Source{
		Enabled: true,
		URL:     "https://internshala.com/internships/work-from-home-ai-agent-development,android-app-development,angular-js-development,artificial-intelligence-ai,backend-development,cloud-computing,computer-science,computer-vision,cyber-security,data-science,web-development,ios-app-development-internships/part-time-true/",
	}
	cfg.Sources.Naukri = Source{
		Enabled: true,
		URL:     "https://www.naukri.com/internship-jobs-in-chennai?functionAreaIdGid=3&functionAreaIdGid=5&functionAreaIdGid=8&functionAreaIdGid=15",
	}
	cfg.Sources.Glassdoor = Source{
		Enabled: true,
		URL:     "https://www.glassdoor.co.in/Job/bengaluru-india-intern-jobs-SRCH_IL.0,15_IC2940587_KO16,22.htm?sgocId=1007&jobTypeIndeed=VDTG7",
	}

	return cfg
}

// Load reads path over Default() and applies .env and environment overrides.
// A missing file is not an error; the result still has to pass NormalizeAndValidate.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	num := func(dst *int, key string) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(&cfg.App.Host, "HOST")
	str(&cfg.App.DataDir, "ENGINE_DATA_DIR")
	str(&cfg.App.LogLevel, "LOG_LEVEL")
	if err := num(&cfg.App.Port, "PORT"); err != nil {
		return err
	}
	if err := num(&cfg.Schedule.IntervalSeconds, "SCRAPE_INTERVAL_SECONDS"); err != nil {
		return err
	}

	str(&cfg.Store.Driver, "STORE_DRIVER")
	str(&cfg.Store.DSN, "STORE_DSN", "DATABASE_URL")
	str(&cfg.Store.Table, "STORE_TABLE", "SUPABASE_TABLE")
	str(&cfg.Store.Password, "STORE_PASSWORD")

	if v := strings.TrimSpace(os.Getenv("BROWSER_ENGINES")); v != "" {
		cfg.Browser.Engines = strings.Split(v, ",")
	}
	if v := strings.TrimSpace(os.Getenv("BROWSER_HEADLESS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BROWSER_HEADLESS: %w", err)
		}
		cfg.Browser.Headless = b
	}

	str(&cfg.Notify.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Notify.Telegram.ChatID = id
	}
	return nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.Schedule.IntervalSeconds) * time.Second
}

func (c Config) Warmup() time.Duration {
	return time.Duration(c.Schedule.WarmupSeconds) * time.Second
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func (c Config) ReadyTimeout() time.Duration { return ms(c.Browser.ReadyTimeoutMs) }
func (c Config) Settle() time.Duration       { return ms(c.Browser.SettleMs) }
func (c Config) RetryDelay() time.Duration   { return ms(c.Browser.RetryDelayMs) }

// Redacted returns a copy that is safe to display: secrets are dropped and a
// password inside the store DSN is masked.
func (c Config) Redacted() Config {
	c.Store.Password = ""
	c.Notify.Telegram.Token = ""
	if u, err := url.Parse(c.Store.DSN); err == nil && u.User != nil {
		c.Store.DSN = u.Redacted()
	}
	return c
}
