// Package logging wraps go.uber.org/zap behind the narrow ingest.Logger
// interface, so internal/ingest never imports zap directly.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phulin/statute-ingest/internal/ingest"
)

// ZapLogger adapts a *zap.Logger to ingest.Logger.
type ZapLogger struct {
	z *zap.Logger
}

// New builds a ZapLogger at the given level ("debug"|"info"|"warn"|"error")
// and format ("json"|"console").
func New(level, format string) (*ZapLogger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(level); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if strings.EqualFold(format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: building zap logger: %w", err)
	}
	return &ZapLogger{z: z}, nil
}

func toZapFields(fields []ingest.Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

func (l *ZapLogger) Debug(msg string, fields ...ingest.Field) { l.z.Debug(msg, toZapFields(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...ingest.Field)  { l.z.Info(msg, toZapFields(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...ingest.Field)  { l.z.Warn(msg, toZapFields(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...ingest.Field) { l.z.Error(msg, toZapFields(fields)...) }

// Sync flushes any buffered log entries; call before process exit.
func (l *ZapLogger) Sync() error { return l.z.Sync() }
