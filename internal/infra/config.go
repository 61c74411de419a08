package infra

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds every application setting. Sensitive values can be
// overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Provider struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		TimeoutSec int    `yaml:"timeout_sec"`
		Demo       bool   `yaml:"demo"` // use the deterministic demo provider instead of live data
	} `yaml:"provider"`

	Cache struct {
		Path             string `yaml:"path"` // empty: resolve under the user config dir
		QuoteTTLMinutes  int    `yaml:"quote_ttl_minutes"`
		MarketTTLMinutes int    `yaml:"market_ttl_minutes"`
	} `yaml:"cache"`

	Market struct {
		IndexSymbols []string `yaml:"index_symbols"`
	} `yaml:"market"`

	Poll struct {
		IntervalSec int `yaml:"interval_sec"` // 0 disables the background poller
	} `yaml:"poll"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !c.Provider.Demo {
		if c.Provider.BaseURL == "" || (!hasPrefix(c.Provider.BaseURL, "http://") && !hasPrefix(c.Provider.BaseURL, "https://")) {
			return fmt.Errorf("invalid provider base URL: %s", c.Provider.BaseURL)
		}
		if c.Provider.APIKey == "" {
			return fmt.Errorf("provider API key is required outside demo mode")
		}
	}

	if c.Cache.QuoteTTLMinutes <= 0 {
		return fmt.Errorf("quote TTL must be positive")
	}
	if c.Cache.MarketTTLMinutes <= 0 {
		return fmt.Errorf("market TTL must be positive")
	}
	if c.Poll.IntervalSec < 0 {
		return fmt.Errorf("poll interval must not be negative")
	}

	return nil
}

// QuoteTTL returns the per-symbol staleness window.
func (c *Config) QuoteTTL() time.Duration {
	return time.Duration(c.Cache.QuoteTTLMinutes) * time.Minute
}

// MarketTTL returns the staleness window for the market overview snapshot.
func (c *Config) MarketTTL() time.Duration {
	return time.Duration(c.Cache.MarketTTLMinutes) * time.Minute
}

// PollInterval returns the background poll cadence; zero disables it.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalSec) * time.Second
}

// ProviderTimeout returns the HTTP timeout for provider requests.
func (c *Config) ProviderTimeout() time.Duration {
	if c.Provider.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Provider.TimeoutSec) * time.Second
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv replaces config values from environment variables when set.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("PORTFOLIO_PROVIDER_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if url := os.Getenv("PORTFOLIO_PROVIDER_URL"); url != "" {
		cfg.Provider.BaseURL = url
	}
	if path := os.Getenv("PORTFOLIO_CACHE_PATH"); path != "" {
		cfg.Cache.Path = path
	}
}
