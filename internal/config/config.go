// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/extract"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Probe     ProbeConfig     `mapstructure:"probe"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs worker pool behavior.
type CrawlerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// FetcherConfig configures headless navigation and retry behavior.
type FetcherConfig struct {
	NavTimeoutSeconds int     `mapstructure:"nav_timeout_seconds"`
	MaxRetries        int     `mapstructure:"max_retries"`
	BackoffInitialMs  int     `mapstructure:"backoff_initial_ms"`
	MaxContactPages   int     `mapstructure:"max_contact_pages"`
	UserAgent         string  `mapstructure:"user_agent"`
	DomainQPS         float64 `mapstructure:"domain_qps"`
}

// ProbeConfig controls the optional plain-HTTP fast path.
type ProbeConfig struct {
	Enabled              bool     `mapstructure:"enabled"`
	TimeoutSeconds       int      `mapstructure:"timeout_seconds"`
	DetectorMinHTMLBytes int      `mapstructure:"detector_min_html_bytes"`
	DetectorKeywords     []string `mapstructure:"detector_keywords"`
}

// ExtractorConfig holds the fake local-part prefix blocklist.
type ExtractorConfig struct {
	FakePrefixes []string `mapstructure:"fake_prefixes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MAILSIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("crawler.concurrency", 2)
	v.SetDefault("fetcher.nav_timeout_seconds", 90)
	v.SetDefault("fetcher.max_retries", 2)
	v.SetDefault("fetcher.backoff_initial_ms", 3000)
	v.SetDefault("fetcher.max_contact_pages", 2)
	v.SetDefault("fetcher.user_agent", "mailsift/1.0 (+https://github.com/mailsift/mailsift)")
	v.SetDefault("fetcher.domain_qps", 0.5)
	v.SetDefault("probe.enabled", false)
	v.SetDefault("probe.timeout_seconds", 15)
	v.SetDefault("probe.detector_min_html_bytes", 2000)
	v.SetDefault("probe.detector_keywords", []string{
		"__NEXT_DATA__",
		"data-reactroot",
		"ng-app",
		"window.__APOLLO_STATE__",
	})
	v.SetDefault("extractor.fake_prefixes", extract.DefaultFakePrefixes())
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Fetcher.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.nav_timeout_seconds must be > 0")
	}
	if c.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0")
	}
	if c.Fetcher.MaxContactPages < 0 {
		return fmt.Errorf("fetcher.max_contact_pages must be >= 0")
	}
	if c.Probe.Enabled && c.Probe.TimeoutSeconds <= 0 {
		return fmt.Errorf("probe.timeout_seconds must be > 0 when probe is enabled")
	}
	return nil
}

// NavTimeout converts the configured navigation timeout to a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Fetcher.NavTimeoutSeconds) * time.Second
}

// Backoff converts the configured retry backoff to a duration.
func (c Config) Backoff() time.Duration {
	return time.Duration(c.Fetcher.BackoffInitialMs) * time.Millisecond
}

// ProbeTimeout converts the probe timeout to a duration.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}
