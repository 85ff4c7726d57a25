// Package logging provides structured JSON logging for the document service.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a wrapper of zap.Logger.
type Logger = *zap.Logger

// Field is a wrapper of zap.Field.
type Field = zap.Field

var (
	logLevel      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	location      = time.UTC
	locationMu    sync.RWMutex
	defaultLogger Logger
	loggerOnce    sync.Once
)

// SetLogLevel sets the level of every logger with ["debug", "info", "warn", "error"].
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		logLevel.SetLevel(zapcore.DebugLevel)
	case "info", "":
		logLevel.SetLevel(zapcore.InfoLevel)
	case "warn":
		logLevel.SetLevel(zapcore.WarnLevel)
	case "error":
		logLevel.SetLevel(zapcore.ErrorLevel)
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}
	return nil
}

// SetLocation sets the timezone used for the ts field.
func SetLocation(loc *time.Location) {
	if loc == nil {
		return
	}
	locationMu.Lock()
	location = loc
	locationMu.Unlock()
}

// New creates a named logger writing JSON lines to stdout.
func New(name string, fields ...Field) Logger {
	return NewWithWriter(os.Stdout, name, fields...)
}

// NewWithWriter creates a named logger writing JSON lines to w.
func NewWithWriter(w io.Writer, name string, fields ...Field) Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		logLevel,
	)
	return zap.New(core, zap.AddStacktrace(zap.ErrorLevel)).Named(name).With(fields...)
}

// DefaultLogger returns the process-wide logger.
func DefaultLogger() Logger {
	loggerOnce.Do(func() {
		defaultLogger = New("docvault")
	})
	return defaultLogger
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return zap.NewNop()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     encodeTime,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
}

func encodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	locationMu.RLock()
	loc := location
	locationMu.RUnlock()
	enc.AppendString(t.In(loc).Format(time.RFC3339Nano))
}
