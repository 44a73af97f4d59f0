package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ryan-gang/dbalert/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation keeps the log file around 10MB with a bounded backlog.
const (
	MaxSizeMB  = 10
	MaxBackups = 5
	MaxAgeDays = 28
)

type Logger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
	file  *lumberjack.Logger
}

// Init builds a console core on stdout and, when a log path is configured, a
// JSON core on a size-rotated file.
func (l *Logger) Init(cfg config.ConfigProvider) error {
	if cfg == nil {
		return fmt.Errorf("config not initialized")
	}

	level, err := zapcore.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), level),
	}

	if path := cfg.GetLogPath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %v", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
			MaxAge:     MaxAgeDays,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(l.file), level))
	}

	l.base = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	l.sugar = l.base.Sugar()
	return nil
}

func (l *Logger) Close() error {
	_ = l.base.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) Zap() *zap.Logger {
	return l.base.WithOptions(zap.AddCallerSkip(-1))
}

func (l *Logger) With(keysAndValues ...any) LoggerInterface {
	sugar := l.sugar.With(keysAndValues...)
	return &Logger{
		base:  sugar.Desugar(),
		sugar: sugar,
		file:  l.file,
	}
}

func (l *Logger) Info(v ...any) {
	l.sugar.Info(v...)
}

func (l *Logger) Infof(format string, v ...any) {
	l.sugar.Infof(format, v...)
}

func (l *Logger) Warn(v ...any) {
	l.sugar.Warn(v...)
}

func (l *Logger) Warnf(format string, v ...any) {
	l.sugar.Warnf(format, v...)
}

func (l *Logger) Error(v ...any) {
	l.sugar.Error(v...)
}

func (l *Logger) Errorf(format string, v ...any) {
	l.sugar.Errorf(format, v...)
}

func (l *Logger) Debug(v ...any) {
	l.sugar.Debug(v...)
}

func (l *Logger) Debugf(format string, v ...any) {
	l.sugar.Debugf(format, v...)
}
