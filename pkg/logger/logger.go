package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with a small set of typed field helpers.
type Logger struct {
	*zap.Logger
}

// New creates a new Logger with the given level and encoding ("json" or "console").
func New(level, encoding string) (*Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if encoding != "" {
		cfg.Encoding = encoding
	}
	if cfg.Encoding == "console" {
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	zapLogger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}

	return &Logger{Logger: zapLogger}, nil
}

// DebugContext logs a debug message; the context is accepted so call sites can
// thread request-scoped loggers in later without changing signatures.
func (l *Logger) DebugContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Debug(msg, fields...)
}

// InfoContext logs an info message with a context parameter.
func (l *Logger) InfoContext(_ context.Context, msg string, fields ...zap.Field) {
	l.Info(msg, fields...)
}

// Field creates a zap field from any value.
func Field(key string, value interface{}) zap.Field {
	return zap.Any(key, value)
}

// StringField creates a string zap field.
func StringField(key, value string) zap.Field {
	return zap.String(key, value)
}

// IntField creates an int zap field.
func IntField(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// Float64Field creates a float64 zap field.
func Float64Field(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

// ErrorField creates an error zap field.
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}
