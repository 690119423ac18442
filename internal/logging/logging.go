// Package logging builds the zap loggers used by the booker commands.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config returns the zap configuration for a verbosity level:
//
//	0  production JSON, warn and above
//	1  development console, info and above
//	2+ development console, debug and above
//
// All levels write to stderr so stdout stays reserved for reports.
func Config(verbosity int) zap.Config {
	var cfg zap.Config
	switch {
	case verbosity <= 0:
		cfg = zap.NewProductionConfig()
		cfg.Level.SetLevel(zapcore.WarnLevel)
		cfg.Sampling = nil
	case verbosity == 1:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level.SetLevel(zapcore.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = verbosity < 3
	return cfg
}

// New builds a logger for verbosity.
func New(verbosity int) (*zap.Logger, error) {
	return Config(verbosity).Build()
}
