// Package config loads the toolkit's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/MJE43/jstris-replay-go/internal/analysis"
	"github.com/MJE43/jstris-replay-go/internal/jstris"
	"github.com/MJE43/jstris-replay-go/internal/replay"
)

const (
	appDirName   = "jstris-replay"
	configName   = "config.yaml"
	databaseName = "replays.db"

	// EnvConfigPath names an explicit config file.
	EnvConfigPath = "JSTRIS_REPLAY_CONFIG"
	EnvListen     = "JSTRIS_REPLAY_LISTEN"
	EnvDatabase   = "JSTRIS_REPLAY_DB"
	EnvLogLevel   = "JSTRIS_REPLAY_LOG_LEVEL"
	EnvRPS        = "JSTRIS_REPLAY_RPS"
)

// Config holds configuration for every command.
type Config struct {
	LogLevel     string `yaml:"log_level" json:"logLevel"`
	Listen       string `yaml:"listen" json:"listen"`
	DatabasePath string `yaml:"database_path" json:"databasePath"`

	Jstris   JstrisConfig         `yaml:"jstris" json:"jstris"`
	Versions replay.VersionPolicy `yaml:"version_policy" json:"versionPolicy"`
	Analysis analysis.Options     `yaml:"analysis" json:"analysis"`
	Scan     ScanConfig           `yaml:"scan" json:"scan"`
}

// JstrisConfig configures the website client.
type JstrisConfig struct {
	BaseURL           string        `yaml:"base_url" json:"baseUrl"`
	UserAgent         string        `yaml:"user_agent,omitempty" json:"userAgent,omitempty"`
	MaxRetries        int           `yaml:"max_retries" json:"maxRetries"`
	BaseRetryDelay    time.Duration `yaml:"base_retry_delay" json:"baseRetryDelay"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay" json:"maxRetryDelay"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requestsPerSecond"`
}

// ScanConfig bounds seed scans started over HTTP.
type ScanConfig struct {
	DefaultTimeout time.Duration `yaml:"default_timeout" json:"defaultTimeout"`
	MaxHits        int           `yaml:"max_hits" json:"maxHits"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Listen:       "127.0.0.1:8080",
		DatabasePath: filepath.Join(AppDataDir(), databaseName),
		Jstris: JstrisConfig{
			BaseURL:           jstris.DefaultBaseURL,
			MaxRetries:        3,
			BaseRetryDelay:    2 * time.Second,
			MaxRetryDelay:     10 * time.Second,
			RequestsPerSecond: 2,
		},
		Versions: replay.DefaultVersionPolicy,
		Analysis: analysis.Options{
			FPS:           analysis.DefaultFPS,
			OpeningLength: analysis.DefaultOpeningLength,
		},
		Scan: ScanConfig{
			DefaultTimeout: 60 * time.Second,
			MaxHits:        10000,
		},
	}
}

// Load reads path over the defaults and then applies environment
// overrides. An empty path falls back to $JSTRIS_REPLAY_CONFIG and then to
// the app data directory; a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if !explicit {
		path = filepath.Join(AppDataDir(), configName)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if s := os.Getenv(EnvListen); s != "" {
		c.Listen = s
	}
	if s := os.Getenv(EnvDatabase); s != "" {
		c.DatabasePath = s
	}
	if s := os.Getenv(EnvLogLevel); s != "" {
		c.LogLevel = s
	}
	if s := os.Getenv(EnvRPS); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRPS, err)
		}
		c.Jstris.RequestsPerSecond = v
	}
	return nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.Listen == "" {
		return errors.New("config: listen address is empty")
	}
	if c.Versions.ExpectedMajor == 0 {
		return errors.New("config: version_policy.expected_major must be positive")
	}
	if c.Analysis.FPS < 0 {
		return fmt.Errorf("config: analysis.fps must not be negative, got %d", c.Analysis.FPS)
	}
	return nil
}

// Logger builds the root logger at the configured level.
func (c *Config) Logger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(c.LogLevel),
	})
}

// ClientConfig maps the jstris section onto a client configuration.
func (c *Config) ClientConfig(logger hclog.Logger) jstris.Config {
	codec := replay.Codec{Policy: c.Versions}
	return jstris.Config{
		BaseURL:           c.Jstris.BaseURL,
		MaxRetries:        c.Jstris.MaxRetries,
		BaseRetryDelay:    c.Jstris.BaseRetryDelay,
		MaxRetryDelay:     c.Jstris.MaxRetryDelay,
		RequestsPerSecond: c.Jstris.RequestsPerSecond,
		UserAgent:         c.Jstris.UserAgent,
		Codec:             &codec,
		Logger:            logger,
	}
}

// AppDataDir returns an OS-appropriate writable directory.
func AppDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appDirName)
	}
	return "."
}
