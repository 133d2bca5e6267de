// Package common provides shared utilities for Questfolio
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Questfolio
type Config struct {
	Environment  string           `toml:"environment"`
	HomeCurrency string           `toml:"home_currency"` // combined-balance row currency, default "CAD"
	ChartDir     string           `toml:"chart_dir"`     // directory for rendered allocation charts
	Questrade    QuestradeConfig  `toml:"questrade"`
	Gemini       GeminiConfig     `toml:"gemini"`
	Storage      StorageConfig    `toml:"storage"`
	Allocation   AllocationConfig `toml:"allocation"`
	Logging      LoggingConfig    `toml:"logging"`
}

// QuestradeConfig holds Questrade API configuration
type QuestradeConfig struct {
	LoginURL  string `toml:"login_url"` // OAuth2 token endpoint
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
	Workers   int    `toml:"workers"` // concurrent per-account fetches
}

// GetTimeout parses and returns the timeout duration
func (c *QuestradeConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration for summary commentary
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// StorageConfig selects and configures the credential store backend.
type StorageConfig struct {
	Backend string        `toml:"backend"` // "badger" (default) or "surreal"
	Badger  BadgerConfig  `toml:"badger"`
	Surreal SurrealConfig `toml:"surreal"`
}

// BadgerConfig holds the embedded store path.
type BadgerConfig struct {
	Path string `toml:"path"`
}

// SurrealConfig holds SurrealDB connection settings.
type SurrealConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"` // usually supplied via QUESTFOLIO_DB_PASSWORD
}

// AllocationConfig holds asset-class targets and deviation margins.
// Classes maps ticker symbol to asset class name ("stocks" or "bonds");
// unmapped symbols classify as cash.
type AllocationConfig struct {
	Classes       map[string]string  `toml:"classes"`
	Targets       map[string]float64 `toml:"targets"`        // class name -> target percent
	WarningMargin float64            `toml:"warning_margin"` // percentage points
	ErrorMargin   float64            `toml:"error_margin"`   // percentage points
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		HomeCurrency: "CAD",
		ChartDir:     "charts",
		Questrade: QuestradeConfig{
			LoginURL:  "https://login.questrade.com/oauth2/token",
			RateLimit: 10,
			Timeout:   "30s",
			Workers:   4,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Storage: StorageConfig{
			Backend: "badger",
			Badger:  BadgerConfig{Path: "data/credentials"},
			Surreal: SurrealConfig{
				Address:   "ws://localhost:8000",
				Namespace: "questfolio",
				Database:  "questfolio",
				Username:  "root",
			},
		},
		Allocation: AllocationConfig{
			Classes: map[string]string{
				"XEQT.TO": "stocks",
				"ZEQT.TO": "stocks",
				"ZAG.TO":  "bonds",
			},
			Targets: map[string]float64{
				"stocks": 50,
				"bonds":  50,
				"cash":   0,
			},
			WarningMargin: 2.5,
			ErrorMargin:   5.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	config.HomeCurrency = strings.ToUpper(config.HomeCurrency)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("QUESTFOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("QUESTFOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("QUESTFOLIO_LOGIN_URL"); url != "" {
		config.Questrade.LoginURL = url
	}

	if workers := os.Getenv("QUESTFOLIO_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			config.Questrade.Workers = w
		}
	}

	if backend := os.Getenv("QUESTFOLIO_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}

	if path := os.Getenv("QUESTFOLIO_DATA_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if addr := os.Getenv("QUESTFOLIO_DB_ADDRESS"); addr != "" {
		config.Storage.Surreal.Address = addr
	}

	if pw := os.Getenv("QUESTFOLIO_DB_PASSWORD"); pw != "" {
		config.Storage.Surreal.Password = pw
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}

	if cur := os.Getenv("QUESTFOLIO_HOME_CURRENCY"); cur != "" {
		config.HomeCurrency = strings.ToUpper(cur)
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
