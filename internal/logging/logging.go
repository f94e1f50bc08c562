// Package logging provides the structured logger used across the service.
//
// LoggerV2 is a thin wrapper over zap that accepts a Fields map, so call
// sites stay terse: logger.Info("Order fetched", logging.Fields{"order_id": id}).
package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields holds structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// Config controls the process-wide logger.
type Config struct {
	Level  string
	Format string
}

// Configure builds the process-wide zap logger. It is safe to call more than once.
func Configure(cfg Config) error {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	SetBase(logger)
	return nil
}

// SetBase replaces the process-wide zap logger. Tests use it with zaptest or observer cores.
func SetBase(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = logger
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Sync flushes buffered entries.
func Sync() {
	_ = current().Sync()
}

// LoggerV2 is a named structured logger.
type LoggerV2 struct {
	name string
}

// NewLoggerV2 creates a logger tagged with the given component name.
func NewLoggerV2(name string) *LoggerV2 {
	return &LoggerV2{name: name}
}

func (l *LoggerV2) underlying() *zap.Logger {
	if l == nil || l.name == "" {
		return current()
	}
	return current().Named(l.name)
}

func (l *LoggerV2) Debug(msg string, fields ...Fields) {
	l.underlying().Debug(msg, toZap(fields)...)
}

func (l *LoggerV2) Info(msg string, fields ...Fields) {
	l.underlying().Info(msg, toZap(fields)...)
}

func (l *LoggerV2) Warn(msg string, fields ...Fields) {
	l.underlying().Warn(msg, toZap(fields)...)
}

func (l *LoggerV2) Error(msg string, fields ...Fields) {
	l.underlying().Error(msg, toZap(fields)...)
}

// Fatal logs and exits the process.
func (l *LoggerV2) Fatal(msg string, fields ...Fields) {
	l.underlying().Fatal(msg, toZap(fields)...)
}

// With returns a logger that carries the given fields on every entry.
func (l *LoggerV2) With(fields Fields) *BoundLogger {
	return &BoundLogger{logger: l.underlying().With(toZap([]Fields{fields})...)}
}

// BoundLogger is a logger with pre-attached fields.
type BoundLogger struct {
	logger *zap.Logger
}

func (b *BoundLogger) Debug(msg string, fields ...Fields) { b.logger.Debug(msg, toZap(fields)...) }
func (b *BoundLogger) Info(msg string, fields ...Fields)  { b.logger.Info(msg, toZap(fields)...) }
func (b *BoundLogger) Warn(msg string, fields ...Fields)  { b.logger.Warn(msg, toZap(fields)...) }
func (b *BoundLogger) Error(msg string, fields ...Fields) { b.logger.Error(msg, toZap(fields)...) }

// Info logs on the unnamed process logger.
func Info(msg string, fields ...Fields) {
	current().Info(msg, toZap(fields)...)
}

// Infof logs a formatted message without structured fields.
func Infof(format string, args ...interface{}) {
	current().Sugar().Infof(format, args...)
}

// toZap flattens field maps in key order so output is stable.
func toZap(fields []Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, len(fields[0]))
	for _, f := range fields {
		keys := make([]string, 0, len(f))
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, zap.Any(k, f[k]))
		}
	}
	return out
}
