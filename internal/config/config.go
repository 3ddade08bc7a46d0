package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all cur8 configuration.
type Config struct {
	// Bot backend
	API APIConfig `yaml:"api"`

	// Local mirror
	Store StoreConfig `yaml:"store"`

	// Public blockchain nodes
	Chain ChainConfig `yaml:"chain"`

	// Background server syncs
	Sync SyncConfig `yaml:"sync"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`
}

// APIConfig configures the bot backend client.
type APIConfig struct {
	BaseURL       string  `yaml:"base_url"`
	Timeout       string  `yaml:"timeout"`
	RetryAttempts int     `yaml:"retry_attempts"`
	RetryDelay    string  `yaml:"retry_delay"`
	MinImportance float64 `yaml:"min_importance"`
}

// StoreConfig configures the local mirror database.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite (pure Go) or sqlite3 (cgo)
	Path   string `yaml:"path"`
}

// ChainConfig configures the read-only node client.
type ChainConfig struct {
	Enabled    bool     `yaml:"enabled"`
	SteemNodes []string `yaml:"steem_nodes"`
	HiveNodes  []string `yaml:"hive_nodes"`
	Timeout    string   `yaml:"timeout"`
	Attempts   int      `yaml:"attempts"`
}

// SyncConfig configures best-effort background syncs.
type SyncConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:       "http://localhost:5000",
			Timeout:       "30s",
			RetryAttempts: 3,
			RetryDelay:    "1s",
			MinImportance: 0.1,
		},

		Store: StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(".cur8", "mirror.db"),
		},

		Chain: ChainConfig{
			Enabled: true,
			SteemNodes: []string{
				"https://api.steemit.com",
				"https://api.justyy.com",
				"https://api.moecki.online",
			},
			HiveNodes: []string{
				"https://api.deathwing.me",
				"https://api.hive.blog",
				"https://api.openhive.network",
			},
			Timeout:  "15s",
			Attempts: 3,
		},

		Sync: SyncConfig{
			Concurrency: 4,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},

		UI: *DefaultUIConfig(),
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. A .env file next to the config (or in the working directory) is
// loaded before environment overrides are applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")

	cfg.applyEnvOverrides()

	return cfg, nil
}

// loadDotEnv loads the first .env file that exists. Variables already set
// in the environment win.
func loadDotEnv(candidates ...string) {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// SavePlatform records the active platform in the config file at path,
// leaving the file's other values as written. Environment overrides are not
// persisted.
func SavePlatform(path, platform string) error {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	cfg.UI.Platform = platform
	return cfg.Save(path)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("CUR8_SERVER_URL"); url != "" {
		c.API.BaseURL = url
	}
	if d := os.Getenv("CUR8_RETRY_DELAY"); d != "" {
		c.API.RetryDelay = d
	}
	if n := os.Getenv("CUR8_RETRY_ATTEMPTS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			c.API.RetryAttempts = v
		}
	}

	if path := os.Getenv("CUR8_DB"); path != "" {
		c.Store.Path = path
	}
	if driver := os.Getenv("CUR8_DB_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}

	if level := os.Getenv("CUR8_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if p := os.Getenv("CUR8_PLATFORM"); p != "" {
		c.UI.Platform = p
	}
	if os.Getenv("CUR8_OFFLINE_CHAIN") == "1" {
		c.Chain.Enabled = false
	}
}

// GetAPITimeout returns the per-request timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetRetryDelay returns the fixed wait between attempts.
func (c *Config) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.API.RetryDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// GetChainTimeout returns the node request timeout as a duration.
func (c *Config) GetChainTimeout() time.Duration {
	d, err := time.ParseDuration(c.Chain.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// ValidDrivers lists the supported database/sql driver names.
var ValidDrivers = []string{"sqlite", "sqlite3"}

var ErrInvalidConfig = errors.New("invalid config")

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is empty (set CUR8_SERVER_URL)", ErrInvalidConfig)
	}
	if c.API.RetryAttempts < 1 {
		return fmt.Errorf("%w: api.retry_attempts must be at least 1", ErrInvalidConfig)
	}

	validDriver := false
	for _, d := range ValidDrivers {
		if c.Store.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("%w: store.driver %q (valid: %v)", ErrInvalidConfig, c.Store.Driver, ValidDrivers)
	}

	switch c.UI.Platform {
	case "", "steem", "hive":
	default:
		return fmt.Errorf("%w: ui.platform %q", ErrInvalidConfig, c.UI.Platform)
	}
	return nil
}

// ResolvePaths makes relative store and log paths absolute under workspace.
func (c *Config) ResolvePaths(workspace string) {
	if workspace == "" {
		return
	}
	if c.Store.Path != "" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(workspace, c.Store.Path)
	}
	if c.Logging.File != "" && !filepath.IsAbs(c.Logging.File) {
		c.Logging.File = filepath.Join(workspace, c.Logging.File)
	}
}

// DefaultConfigPath returns <workspace>/.cur8/config.yaml.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(workspace, ".cur8", "config.yaml")
}
