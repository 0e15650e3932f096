// Package logging builds the zap logger shared by the engine and commands.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"savile/internal/config"
)

// New returns a logger for cfg. With a log file set, entries go there as
// JSON. With debug set, a development logger writes to stderr. Otherwise
// nothing is logged so the prompts own the terminal.
func New(cfg config.Config) (*zap.Logger, error) {
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		zc := zap.NewProductionConfig()
		zc.OutputPaths = []string{cfg.LogFile}
		zc.ErrorOutputPaths = []string{cfg.LogFile}
		if cfg.Debug {
			zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		}
		return zc.Build()
	}
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}
