package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the logger configuration options
type Config struct {
	LogLevel LogLevel

	InfoFilePath  string
	WarnFilePath  string
	ErrorFilePath string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// UseConsole mirrors records to Console, or stderr when Console is nil.
	// Stdout is left to command output.
	UseConsole  bool
	Console     io.Writer
	Development bool
}

// ZapLogger implements Logger on top of zap. The f variants format with
// fmt.Sprintf and carry no fields.
type ZapLogger struct {
	zap *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

// callerSkip hides write and the exported method from reported callers.
const callerSkip = 2

// NewZapLogger builds a logger from config. With no files and no console
// every record is dropped.
func NewZapLogger(config Config) (Logger, error) {
	cores, err := buildCores(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	if len(cores) == 0 {
		return &ZapLogger{zap: zap.NewNop()}, nil
	}

	opts := []zap.Option{
		zap.AddCaller(),
		zap.AddCallerSkip(callerSkip),
		zap.AddStacktrace(zapcore.ErrorLevel),
	}
	if config.Development {
		opts = append(opts, zap.Development())
	}
	return &ZapLogger{zap: zap.New(zapcore.NewTee(cores...), opts...)}, nil
}

// NewFromCore wraps an existing zap core, typically an observer in tests.
func NewFromCore(core zapcore.Core) Logger {
	return &ZapLogger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(callerSkip))}
}

func buildCores(config Config) ([]zapcore.Core, error) {
	level, err := ParseLevel(string(config.LogLevel))
	if err != nil {
		return nil, err
	}
	floor := toZapLevel(level)

	enc := encoderConfig(config.Development)

	// Level bands per file. The info file also takes debug records when the
	// minimum level lets them through.
	bands := []struct {
		path    string
		enabled zap.LevelEnablerFunc
	}{
		{config.ErrorFilePath, func(l zapcore.Level) bool { return l >= floor && l >= zapcore.ErrorLevel }},
		{config.WarnFilePath, func(l zapcore.Level) bool { return l >= floor && l == zapcore.WarnLevel }},
		{config.InfoFilePath, func(l zapcore.Level) bool { return l >= floor && l <= zapcore.InfoLevel }},
	}

	var cores []zapcore.Core
	for _, b := range bands {
		if b.path == "" {
			continue
		}
		w, err := rotatingFile(b.path, config)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, b.enabled))
	}

	if config.UseConsole {
		out := config.Console
		if out == nil {
			out = os.Stderr
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(out), floor))
	}
	return cores, nil
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	if development {
		enc = zap.NewDevelopmentEncoderConfig()
	}
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder
	enc.EncodeDuration = zapcore.SecondsDurationEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder
	return enc
}

func rotatingFile(path string, config Config) (zapcore.WriteSyncer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    orDefault(config.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: orDefault(config.MaxBackups, DefaultMaxBackups),
		MaxAge:     orDefault(config.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   true,
	}), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func toFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (l *ZapLogger) write(lvl zapcore.Level, msg string, fields map[string]interface{}) {
	if ce := l.zap.Check(lvl, msg); ce != nil {
		ce.Write(toFields(fields)...)
	}
}

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.write(zapcore.DebugLevel, msg, fields)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.write(zapcore.InfoLevel, msg, fields)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.write(zapcore.WarnLevel, msg, fields)
}

func (l *ZapLogger) Error(msg string, fields map[string]interface{}) {
	l.write(zapcore.ErrorLevel, msg, fields)
}

// Fatal logs and then exits the process.
func (l *ZapLogger) Fatal(msg string, fields map[string]interface{}) {
	l.write(zapcore.FatalLevel, msg, fields)
}

func (l *ZapLogger) Debugf(format string, args ...interface{}) {
	l.write(zapcore.DebugLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Infof(format string, args ...interface{}) {
	l.write(zapcore.InfoLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Warnf(format string, args ...interface{}) {
	l.write(zapcore.WarnLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Errorf(format string, args ...interface{}) {
	l.write(zapcore.ErrorLevel, fmt.Sprintf(format, args...), nil)
}

func (l *ZapLogger) Fatalf(format string, args ...interface{}) {
	l.write(zapcore.FatalLevel, fmt.Sprintf(format, args...), nil)
}

// WithField returns a child logger carrying key.
func (l *ZapLogger) WithField(key string, value interface{}) Logger {
	return &ZapLogger{zap: l.zap.With(zap.Any(key, value))}
}

// WithFields returns a child logger carrying fields, or l when there are none.
func (l *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return l
	}
	return &ZapLogger{zap: l.zap.With(toFields(fields)...)}
}

// Sync flushes buffered records.
func (l *ZapLogger) Sync() error {
	return l.zap.Sync()
}

func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
