// Package config holds runtime settings read from SAVILE_* environment
// variables. There is no configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Prefix is the environment variable prefix, e.g. SAVILE_CONCURRENCY.
const Prefix = "savile"

// Config holds all runtime settings.
type Config struct {
	// Concurrency caps how many images are measured or committed at once.
	Concurrency int `envconfig:"CONCURRENCY" default:"5"`
	// MinDuration pads every batch so the progress view does not flash.
	// Forced to zero when stdout is not a terminal.
	MinDuration time.Duration `envconfig:"MIN_DURATION" default:"1500ms"`

	LogFile string `envconfig:"LOG_FILE"`
	Debug   bool   `envconfig:"DEBUG"`
}

// DefaultConfig returns the settings used when no variable is set.
func DefaultConfig() Config {
	return Config{
		Concurrency: 5,
		MinDuration: 1500 * time.Millisecond,
	}
}

// Load reads the environment, validates the result and drops the pacing
// delay for non-interactive runs.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.MinDuration = 0
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("SAVILE_CONCURRENCY must be at least 1, got %d", c.Concurrency))
	}
	if c.MinDuration < 0 {
		errs = append(errs, fmt.Errorf("SAVILE_MIN_DURATION must not be negative, got %s", c.MinDuration))
	}
	return errors.Join(errs...)
}
