// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"profilescraper/internal/browser"
	"profilescraper/internal/scraper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Browser    BrowserConfig    `mapstructure:"browser"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// BrowserConfig governs the headless browser sessions.
type BrowserConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	ViewportWidth  int     `mapstructure:"viewport_width"`
	ViewportHeight int     `mapstructure:"viewport_height"`
	HostQPS        float64 `mapstructure:"host_qps"`
}

// NavigationConfig exposes every page-preparation knob. The defaults mirror
// production behavior; tests override them down to zero jitter.
type NavigationConfig struct {
	NavTimeoutSeconds int `mapstructure:"nav_timeout_seconds"`
	MinDelayMs        int `mapstructure:"min_delay_ms"`
	MaxDelayMs        int `mapstructure:"max_delay_ms"`
	ScrollStepPx      int `mapstructure:"scroll_step_px"`
	ScrollIntervalMs  int `mapstructure:"scroll_interval_ms"`
	ScrollCapPx       int `mapstructure:"scroll_cap_px"`
	SettleMs          int `mapstructure:"settle_ms"`
}

// SchedulerConfig bounds job dispatch throughput.
type SchedulerConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// StorageConfig selects and configures the profile store.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("browser.user_agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("browser.viewport_width", 1366)
	v.SetDefault("browser.viewport_height", 900)
	v.SetDefault("browser.host_qps", 0.5)
	v.SetDefault("navigation.nav_timeout_seconds", 30)
	v.SetDefault("navigation.min_delay_ms", 2000)
	v.SetDefault("navigation.max_delay_ms", 5000)
	v.SetDefault("navigation.scroll_step_px", 100)
	v.SetDefault("navigation.scroll_interval_ms", 100)
	v.SetDefault("navigation.scroll_cap_px", 3000)
	v.SetDefault("navigation.settle_ms", 3000)
	v.SetDefault("scheduler.requests_per_minute", 2)
	v.SetDefault("storage.provider", "memory")
	v.SetDefault("storage.table", "scrapes")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Browser.UserAgent == "" {
		return fmt.Errorf("browser.user_agent must be set")
	}
	if c.Browser.HostQPS < 0 {
		return fmt.Errorf("browser.host_qps must be >= 0")
	}
	if c.Navigation.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("navigation.nav_timeout_seconds must be > 0")
	}
	if c.Navigation.MaxDelayMs < c.Navigation.MinDelayMs {
		return fmt.Errorf("navigation.max_delay_ms must be >= navigation.min_delay_ms")
	}
	if c.Navigation.ScrollStepPx <= 0 {
		return fmt.Errorf("navigation.scroll_step_px must be > 0")
	}
	if c.Navigation.ScrollCapPx <= 0 {
		return fmt.Errorf("navigation.scroll_cap_px must be > 0")
	}
	if c.Scheduler.RequestsPerMinute <= 0 {
		return fmt.Errorf("scheduler.requests_per_minute must be > 0")
	}
	switch c.Storage.Provider {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be set when storage.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown storage provider %q", c.Storage.Provider)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// BrowserSettings converts the browser section into the session manager's
// config type.
func (c Config) BrowserSettings() browser.Config {
	return browser.Config{
		UserAgent:      c.Browser.UserAgent,
		ViewportWidth:  c.Browser.ViewportWidth,
		ViewportHeight: c.Browser.ViewportHeight,
		HostQPS:        c.Browser.HostQPS,
	}
}

// NavigationSettings converts the navigation section into the engine's
// config type.
func (c Config) NavigationSettings() scraper.NavigationConfig {
	return scraper.NavigationConfig{
		NavTimeout:     time.Duration(c.Navigation.NavTimeoutSeconds) * time.Second,
		MinDelay:       time.Duration(c.Navigation.MinDelayMs) * time.Millisecond,
		MaxDelay:       time.Duration(c.Navigation.MaxDelayMs) * time.Millisecond,
		ScrollStep:     c.Navigation.ScrollStepPx,
		ScrollInterval: time.Duration(c.Navigation.ScrollIntervalMs) * time.Millisecond,
		ScrollCap:      c.Navigation.ScrollCapPx,
		Settle:         time.Duration(c.Navigation.SettleMs) * time.Millisecond,
	}
}
