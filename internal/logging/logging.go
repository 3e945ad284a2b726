// Package logging builds the zap logger used by the daemon-side
// components (gateways, sync engine, reachability monitor). CLI
// command output stays on stdout via fmt/color and does not go
// through here.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/pantry/internal/config"
)

// New constructs a logger from the configured level and encoding.
// Unknown values fall back to info/json rather than failing startup.
func New(cfg *config.Config) *zap.Logger {
	level := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		level = parsed
	}

	var zc zap.Config
	if cfg.LogEncoding == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "json"
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
