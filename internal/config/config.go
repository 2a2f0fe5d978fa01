package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8000
	DefaultRequestTimeout = 5 * time.Minute
	DefaultTheme          = "professional"

	// EnvLogLevel overrides log.level.
	EnvLogLevel = "DEEPREAD_LOG_LEVEL"
	// EnvPort overrides server.port.
	EnvPort = "DEEPREAD_PORT"
)

// LogConfig controls the application logger
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// ServerConfig is where the HTTP API listens
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ChatConfig tunes document chat
type ChatConfig struct {
	SystemPrompt   string        `yaml:"system_prompt,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// TelemetryConfig controls anonymous usage events
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// DatabaseConfig locates the settings database
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// UIConfig represents terminal presentation settings
type UIConfig struct {
	Theme string `yaml:"theme"`
	// PlainText streams replies raw instead of rendering markdown.
	PlainText bool `yaml:"plain_text"`
}

// Config represents the main configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Chat      ChatConfig      `yaml:"chat"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Database  DatabaseConfig  `yaml:"database"`
	UI        UIConfig        `yaml:"ui"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Chat.RequestTimeout == 0 {
		c.Chat.RequestTimeout = DefaultRequestTimeout
	}
	if c.UI.Theme == "" {
		c.UI.Theme = DefaultTheme
	}
}

// Validate reports configuration values that cannot work
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Chat.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("chat.request_timeout must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error, fatal", c.Log.Level))
	}
	return errors.Join(errs...)
}

// ApplyEnv overrides values from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Preview renders the configuration as YAML
func (c *Config) Preview() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(data), nil
}

// Manager loads and saves the configuration file
type Manager interface {
	Load() (*Config, error)
	Save(cfg *Config) error
	Exists() bool
	Path() string
}

// FileManager stores the configuration as a YAML file
type FileManager struct {
	path string
}

var _ Manager = (*FileManager)(nil)

// NewFileManager returns a manager for the file at path
func NewFileManager(path string) *FileManager {
	return &FileManager{path: path}
}

// Path returns the configuration file location
func (m *FileManager) Path() string {
	return m.path
}

// Exists checks if the configuration file exists and is not empty
func (m *FileManager) Exists() bool {
	info, err := os.Stat(m.path)
	return err == nil && info.Size() > 0
}

// Load reads the file, applying defaults for anything unset. A missing or
// empty file yields the defaults.
func (m *FileManager) Load() (*Config, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", m.path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", m.path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes cfg, creating the directory if needed
func (m *FileManager) Save(cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", m.path, err)
	}
	return nil
}
