package logger

import (
	"fmt"
	"strings"
)

// LogLevel is a level name as written in the config file.
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	// FatalLevel records exit the process after writing.
	FatalLevel LogLevel = "fatal"
)

const (
	// ErrorKey is the field name used for error values.
	ErrorKey = "error"

	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = InfoLevel

	// DefaultMaxSizeMB is the size a log file reaches before it is rotated.
	DefaultMaxSizeMB = 20

	// DefaultMaxBackups is the number of rotated files kept per level.
	DefaultMaxBackups = 5

	// DefaultMaxAgeDays is how long rotated files are kept.
	DefaultMaxAgeDays = 15
)

// ParseLevel converts a configured level name. Names are case-insensitive.
func ParseLevel(s string) (LogLevel, error) {
	switch lvl := LogLevel(strings.ToLower(strings.TrimSpace(s))); lvl {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
		return lvl, nil
	case "":
		return DefaultLogLevel, nil
	default:
		return "", fmt.Errorf("invalid log level %q", s)
	}
}

// Logger is the structured logger passed through the application. Fields are
// plain maps so callers do not import zap.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Fatal(msg string, fields map[string]interface{})

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger

	Sync() error
}
