// Package config loads and saves the cbudget configuration file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
)

// Config holds all cbudget configuration.
type Config struct {
	General    GeneralConfig  `toml:"general"`
	Period     PeriodConfig   `toml:"period"`
	Cache      CacheConfig    `toml:"cache"`
	Daemon     DaemonConfig   `toml:"daemon"`
	Categories CategoryConfig `toml:"categories"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir       string `toml:"data_dir,omitempty"`
	Currency      string `toml:"currency"`
	TopCategories int    `toml:"top_categories"`
}

// PeriodConfig controls how months are cut.
type PeriodConfig struct {
	// Payday is the day of month a pay period starts on; 0 means calendar months.
	Payday int `toml:"payday"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
}

// DaemonConfig holds settings for the background daemon.
type DaemonConfig struct {
	Addr           string   `toml:"addr"`
	Interval       Duration `toml:"interval"`
	AMQPURL        string   `toml:"amqp_url,omitempty"`
	AMQPExchange   string   `toml:"amqp_exchange,omitempty"`
	AMQPRoutingKey string   `toml:"amqp_routing_key,omitempty"`
}

// Duration is a time.Duration written as "30s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Limits enforced by Validate.
const (
	MaxPayday       = 28
	MinPollInterval = 2 * time.Second
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency:      "€",
			TopCategories: 5,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Daemon: DaemonConfig{
			Addr:           "127.0.0.1:8787",
			Interval:       Duration{15 * time.Second},
			AMQPExchange:   "cbudget",
			AMQPRoutingKey: "objectives.violated",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cbudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cbudget")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns the XDG data directory holding ledger snapshots.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "cbudget")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "cbudget")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't
// exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-controlled config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-controlled config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DataDir returns the configured ledger directory or the default one.
func (c Config) DataDir() string {
	if c.General.DataDir != "" {
		return c.General.DataDir
	}
	return DefaultDataDir()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	if c.Period.Payday < 0 || c.Period.Payday > MaxPayday {
		result = multierror.Append(result, fmt.Errorf("period.payday must be between 0 and %d, got %d", MaxPayday, c.Period.Payday))
	}
	if c.General.TopCategories < 1 {
		result = multierror.Append(result, fmt.Errorf("general.top_categories must be positive, got %d", c.General.TopCategories))
	}
	if c.Daemon.Interval.Duration < MinPollInterval {
		result = multierror.Append(result, fmt.Errorf("daemon.interval must be at least %s, got %s", MinPollInterval, c.Daemon.Interval))
	}
	if c.Daemon.AMQPURL != "" {
		u, err := url.Parse(c.Daemon.AMQPURL)
		switch {
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("daemon.amqp_url: %w", err))
		case u.Scheme != "amqp" && u.Scheme != "amqps":
			result = multierror.Append(result, fmt.Errorf("daemon.amqp_url must use amqp or amqps, got %q", u.Scheme))
		}
		if c.Daemon.AMQPExchange == "" {
			result = multierror.Append(result, errors.New("daemon.amqp_exchange is required with daemon.amqp_url"))
		}
	}
	for from, to := range c.Categories.Aliases {
		if to == "" {
			result = multierror.Append(result, fmt.Errorf("categories.aliases[%q] maps to an empty name", from))
		}
	}

	return result.ErrorOrNil()
}
