package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{in: "debug", want: DebugLevel},
		{in: "INFO", want: InfoLevel},
		{in: " warn ", want: WarnLevel},
		{in: "error", want: ErrorLevel},
		{in: "fatal", want: FatalLevel},
		{in: "", want: DefaultLogLevel},
		{in: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewZapLogger(t *testing.T) {
	t.Run("no outputs yields a working logger", func(t *testing.T) {
		log, err := NewZapLogger(Config{})
		require.NoError(t, err)
		log.Info("dropped", nil)
		assert.NoError(t, log.Sync())
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewZapLogger(Config{LogLevel: "loud"})
		assert.Error(t, err)
	})

	t.Run("creates log directory", func(t *testing.T) {
		logDir := filepath.Join(t.TempDir(), "logs")

		log, err := NewZapLogger(Config{InfoFilePath: filepath.Join(logDir, "info.log")})
		require.NoError(t, err)
		log.Info("hello", nil)
		require.NoError(t, log.Sync())

		_, err = os.Stat(logDir)
		assert.NoError(t, err)
	})

	t.Run("console mirrors to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := NewZapLogger(Config{UseConsole: true, Console: &buf, LogLevel: WarnLevel})
		require.NoError(t, err)

		log.Info("quiet", nil)
		log.Warn("loud", map[string]interface{}{"provider": "openai"})
		_ = log.Sync()

		assert.NotContains(t, buf.String(), "quiet")
		assert.Contains(t, buf.String(), "loud")
		assert.Contains(t, buf.String(), "openai")
	})
}

func TestZapLogger_FilesSplitByLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		LogLevel:      DebugLevel,
		InfoFilePath:  filepath.Join(dir, "info.log"),
		WarnFilePath:  filepath.Join(dir, "warn.log"),
		ErrorFilePath: filepath.Join(dir, "error.log"),
	}

	log, err := NewZapLogger(cfg)
	require.NoError(t, err)

	log.Debug("debug record", nil)
	log.Info("info record", nil)
	log.Warn("warn record", nil)
	log.Error("error record", map[string]interface{}{ErrorKey: "boom"})
	require.NoError(t, log.Sync())

	read := func(path string) string {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return string(data)
	}

	info := read(cfg.InfoFilePath)
	assert.Contains(t, info, "debug record")
	assert.Contains(t, info, "info record")
	assert.NotContains(t, info, "warn record")

	warn := read(cfg.WarnFilePath)
	assert.Contains(t, warn, "warn record")
	assert.NotContains(t, warn, "error record")

	errs := read(cfg.ErrorFilePath)
	assert.Contains(t, errs, "error record")
	assert.Contains(t, errs, `"error":"boom"`)
}

func TestZapLogger_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core)

	scoped := log.WithField("provider", "ollama").WithFields(map[string]interface{}{"model": "llama3"})
	assert.NotSame(t, log, scoped)

	scoped.Infof("listed %d models", 3)
	log.WithFields(nil).Debug("plain", nil)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "listed 3 models", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"provider": "ollama", "model": "llama3"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}

func TestDiscard(t *testing.T) {
	assert.Equal(t, Discard, Discard.WithField("k", "v"))
	assert.NoError(t, Discard.Sync())
	Discard.Fatal("does not exit", nil)
}
