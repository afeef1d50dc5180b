package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the application logger. It keeps a small leveled API so call sites
// stay short, with structured fields carried through to zap.
type Logger struct {
	level    string
	encoding string
	zap      *zap.Logger
}

// New builds a logger for the given level ("debug", "info", "warn", "error").
// Unknown levels fall back to info.
func New(level string) *Logger {
	return build(level, "json")
}

// NewDevelopment builds a console-encoded logger, used outside production.
func NewDevelopment(level string) *Logger {
	return build(level, "console")
}

// ForEnvironment picks the JSON logger in production and the console one elsewhere.
func ForEnvironment(production bool, level string) *Logger {
	if production {
		return New(level)
	}
	return NewDevelopment(level)
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{level: "info", encoding: "json", zap: zap.NewNop()}
}

func build(level, encoding string) *Logger {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = encoding
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		level = "info"
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if encoding == "console" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	z, err := cfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: falling back to nop logger: %v\n", err)
		z = zap.NewNop()
	}
	return &Logger{level: level, encoding: encoding, zap: z}
}

func (l *Logger) Level() string {
	return l.level
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{level: l.level, encoding: l.encoding, zap: l.zap.With(fields...)}
}

// Named returns a child logger scoped to a component.
func (l *Logger) Named(name string) *Logger {
	return &Logger{level: l.level, encoding: l.encoding, zap: l.zap.Named(name)}
}

func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, fields...)
}

func (l *Logger) Sync() error {
	return l.zap.Sync()
}
