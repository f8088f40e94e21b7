// Package config loads process level settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/hupe1980/qrscan/logging"
)

// Config holds the settings of a scanner process.
type Config struct {
	LogLevel      string        `env:"QRSCAN_LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"QRSCAN_LOG_FORMAT" envDefault:"text"`
	EventBuffer   int           `env:"QRSCAN_EVENT_BUFFER" envDefault:"16"`
	FramesDir     string        `env:"QRSCAN_FRAMES_DIR"`
	FrameInterval time.Duration `env:"QRSCAN_FRAME_INTERVAL" envDefault:"100ms"`
	LibraryDir    string        `env:"QRSCAN_LIBRARY_DIR"`
	HistoryPath   string        `env:"QRSCAN_HISTORY_PATH"`
	ScanTimeout   time.Duration `env:"QRSCAN_SCAN_TIMEOUT" envDefault:"30s"`
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		LogLevel:      "info",
		LogFormat:     "text",
		EventBuffer:   16,
		FrameInterval: 100 * time.Millisecond,
		ScanTimeout:   30 * time.Second,
	}
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv reads .env style files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load dotenv: %w", err)
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if c.EventBuffer <= 0 {
		errs = append(errs, fmt.Errorf("event buffer must be positive, got %d", c.EventBuffer))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame interval must be positive, got %s", c.FrameInterval))
	}
	if c.ScanTimeout < 0 {
		errs = append(errs, fmt.Errorf("scan timeout must not be negative, got %s", c.ScanTimeout))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Logger builds the configured logger.
func (c Config) Logger() *logging.ScanLogger {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		level = logging.LogLevelInfo
	}
	cfg := logging.DefaultLoggerConfig()
	cfg.Level = level
	cfg.Format = strings.ToLower(c.LogFormat)
	cfg.Output = os.Stderr
	return logging.NewLogger(cfg)
}
