package app

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig configures logging wiring.
type LoggingConfig struct {
	Logger *zap.Logger
}

// Logging bundles the scan logger.
type Logging struct {
	Logger *zap.Logger
}

// NewLogging constructs logging dependencies.
func NewLogging(cfg LoggingConfig) Logging {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return Logging{Logger: logger.Named("app")}
}

// NewLogger returns the logger from a Logging bundle.
func NewLogger(logging Logging) *zap.Logger {
	return logging.Logger
}

// BuildLogger creates a production logger writing to stderr at level.
// "debug" switches to the development encoder.
func BuildLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if parsed == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
