// Package logging builds the zap.Logger every subsystem is handed, one
// config per environment: JSON output in production, a console encoder
// in development.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment selects a logger's encoding and default level.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
)

// New builds a *zap.Logger for env. Unrecognized values fall back to
// Production since that is the safer default for a long-running loader.
func New(env Environment) (*zap.Logger, error) {
	if env == Development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests and library
// callers that have not opted into logging.
func Nop() *zap.Logger { return zap.NewNop() }
