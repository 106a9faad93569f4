package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix namespaces every environment variable (ECOSWIPE_SERVER_PORT, ...).
// Keys are derived from field names only, so unrelated variables such as PATH
// or HOST are never picked up.
const EnvPrefix = "ecoswipe"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Backend   BackendConfig   `yaml:"backend" toml:"backend"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Session   SessionConfig   `yaml:"session" toml:"session"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `split_words:"true" yaml:"rate_limit" toml:"rate_limit"`
}

// ServerConfig holds popup bridge HTTP settings.
type ServerConfig struct {
	Port string `split_words:"true" yaml:"port" toml:"port"`
	Host string `split_words:"true" yaml:"host" toml:"host"`
	// AllowOrigins lists CORS origins; "*" allows any, extension origins included
	AllowOrigins []string `split_words:"true" yaml:"allow_origins" toml:"allow_origins"`
	PopupIdle    Duration `split_words:"true" yaml:"popup_idle" toml:"popup_idle"`
}

// BackendConfig holds scoring backend settings.
type BackendConfig struct {
	Candidates        []string `split_words:"true" yaml:"candidates" toml:"candidates"`
	Model             string   `split_words:"true" yaml:"model" toml:"model"`
	ProbeTimeout      Duration `split_words:"true" yaml:"probe_timeout" toml:"probe_timeout"`
	RequestTimeout    Duration `split_words:"true" yaml:"request_timeout" toml:"request_timeout"`
	RequestsPerSecond float64  `split_words:"true" yaml:"requests_per_second" toml:"requests_per_second"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver   string `split_words:"true" yaml:"driver" toml:"driver"` // "memory", "file", "sqlite"
	Path     string `split_words:"true" yaml:"path" toml:"path"`
	MaxPages int    `split_words:"true" yaml:"max_pages" toml:"max_pages"`
}

// SessionConfig tunes the popup state machine.
type SessionConfig struct {
	AlternativeLimit int  `split_words:"true" yaml:"alternative_limit" toml:"alternative_limit"`
	Previews         bool `split_words:"true" yaml:"previews" toml:"previews"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `split_words:"true" yaml:"level" toml:"level"`
	Development bool   `split_words:"true" yaml:"development" toml:"development"`
}

// RateLimitConfig holds per-client rate limiting for the bridge.
type RateLimitConfig struct {
	RequestsPerSecond int  `split_words:"true" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `split_words:"true" yaml:"burst" toml:"burst"`
	Enabled           bool `split_words:"true" yaml:"enabled" toml:"enabled"`
}

// Duration decodes "1.5s" style strings from env, YAML and TOML alike.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "5099",
			Host: "127.0.0.1",

			AllowOrigins: []string{"*"},
			PopupIdle:    Duration{30 * time.Minute},
		},
		Backend: BackendConfig{
			Candidates: []string{
				"http://localhost:5057",
				"http://127.0.0.1:5057",
				"http://localhost:5060",
				"http://127.0.0.1:5060",
			},
			Model:          "gpt-4o-mini",
			ProbeTimeout:   Duration{1500 * time.Millisecond},
			RequestTimeout: Duration{45 * time.Second},
		},
		Storage: StorageConfig{
			Driver:   "file",
			Path:     defaultStoragePath(),
			MaxPages: 200,
		},
		Session: SessionConfig{
			AlternativeLimit: 3,
			Previews:         true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}

// Load builds configuration from defaults, then the optional file, then the
// environment. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns the default on any error.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Backend.Candidates) == 0 {
		return fmt.Errorf("config: at least one backend candidate is required")
	}
	switch c.Storage.Driver {
	case "memory", "file", "sqlite":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Session.AlternativeLimit <= 0 {
		return fmt.Errorf("config: alternative limit must be positive")
	}
	if c.Backend.ProbeTimeout.Duration <= 0 || c.Backend.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("config: backend timeouts must be positive")
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	case ".toml":
		err = toml.Unmarshal(data, c)
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "ecoswipe")
}
