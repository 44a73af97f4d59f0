package logger

import (
	"github.com/ryan-gang/dbalert/internal/config"
	"go.uber.org/zap"
)

// LoggerInterface defines the interface for logging
type LoggerInterface interface {
	Info(v ...any)
	Infof(format string, v ...any)
	Warn(v ...any)
	Warnf(format string, v ...any)
	Error(v ...any)
	Errorf(format string, v ...any)
	Debug(v ...any)
	Debugf(format string, v ...any)
	// With returns a child logger carrying the given key/value pairs
	With(keysAndValues ...any) LoggerInterface
	// Zap exposes the underlying logger for libraries that take one
	Zap() *zap.Logger
	Close() error
}

// NewLogger creates a new logger instance
func NewLogger(cfg config.ConfigProvider) (LoggerInterface, error) {
	logger := &Logger{}
	if err := logger.Init(cfg); err != nil {
		return nil, err
	}
	return logger, nil
}

// New wraps an existing zap logger
func New(base *zap.Logger) LoggerInterface {
	base = base.WithOptions(zap.AddCallerSkip(1))
	return &Logger{base: base, sugar: base.Sugar()}
}

// NewNop returns a logger that discards everything
func NewNop() LoggerInterface {
	return New(zap.NewNop())
}
