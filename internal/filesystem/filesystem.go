// Package filesystem lays out the application directory under the user's home.
package filesystem

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/qnkhuat/deepread/internal/config"
	"github.com/sirupsen/logrus"
)

type PathType string

const (
	configYamlFileName = "config.yaml"
	settingsDBFileName = "settings.db"

	AppDirectory    PathType = "app"
	CacheDirectory  PathType = "cache"
	ConfigDirectory PathType = "config"
	ConfigFilePath  PathType = "config_file"
	LogsDirectory   PathType = "logs"
	InfoLogFile     PathType = "info_log"
	WarnLogFile     PathType = "warn_log"
	ErrorLogFile    PathType = "error_log"
	DataDirectory   PathType = "data"
	SettingsDB      PathType = "settings_db"
)

// Filesystem lays out the per-user directory tree under ~/.deepread.
type Filesystem struct {
	logger *logrus.Logger
	appCfg *config.AppConfig
	home   string
}

// Option configures a Filesystem.
type Option func(*Filesystem)

// WithHome roots the application directory at dir instead of the user's home.
func WithHome(dir string) Option {
	return func(f *Filesystem) { f.home = dir }
}

// WithLogger replaces the bootstrap logger. The zap logger is not available
// yet while paths are being created.
func WithLogger(l *logrus.Logger) Option {
	return func(f *Filesystem) { f.logger = l }
}

// NewAppFilesystem roots every path under the user home directory unless a home override is set.
func NewAppFilesystem(appCfg *config.AppConfig, opts ...Option) *Filesystem {
	l := logrus.New()
	l.SetOutput(io.Discard)

	f := &Filesystem{appCfg: appCfg, logger: l}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// EnsureAllPaths creates every directory and file the application needs and
// returns their locations. It is safe to call repeatedly.
func (s *Filesystem) EnsureAllPaths() (map[PathType]string, error) {
	paths := map[PathType]string{}

	appDirectory, err := s.EnsureAppDirectory()
	if err != nil {
		return paths, err
	}
	paths[AppDirectory] = appDirectory

	dirs := []struct {
		kind PathType
		name string
	}{
		{CacheDirectory, "cache"},
		{ConfigDirectory, "config"},
		{LogsDirectory, "logs"},
		{DataDirectory, "data"},
	}
	for _, d := range dirs {
		dir := filepath.Join(appDirectory, d.name)
		if err := s.ensureDir(dir); err != nil {
			return paths, err
		}
		paths[d.kind] = dir
	}

	paths[SettingsDB], err = s.CreateSQLiteDBFile(paths[DataDirectory], settingsDBFileName)
	if err != nil {
		return paths, err
	}

	// Empty config file; loading it yields the defaults.
	configFile := filepath.Join(paths[ConfigDirectory], configYamlFileName)
	if err := s.touch(configFile); err != nil {
		return paths, err
	}
	paths[ConfigFilePath] = configFile

	name := strings.ToLower(s.appCfg.Name)
	logs := []struct {
		kind   PathType
		suffix string
	}{
		{InfoLogFile, "info"},
		{WarnLogFile, "warn"},
		{ErrorLogFile, "error"},
	}
	for _, l := range logs {
		paths[l.kind] = filepath.Join(paths[LogsDirectory], fmt.Sprintf("%s-%s.log", name, l.suffix))
	}

	return paths, nil
}

// EnsureAppDirectory creates ~/.<appname>.
func (s *Filesystem) EnsureAppDirectory() (string, error) {
	homeDir, err := s.getUserHomeDirectory()
	if err != nil {
		return "", err
	}

	appDir := filepath.Join(homeDir, fmt.Sprintf(".%s", strings.ToLower(s.appCfg.Name)))
	if err := s.ensureDir(appDir); err != nil {
		return "", err
	}
	return appDir, nil
}

// CreateSQLiteDBFile creates an SQLite database file if it does not exist and
// checks that it opens.
func (s *Filesystem) CreateSQLiteDBFile(dataDirectory, fileName string) (string, error) {
	dbFilePath := filepath.Join(dataDirectory, fileName)
	if _, err := os.Stat(dbFilePath); err == nil {
		return dbFilePath, nil
	}

	file, err := os.OpenFile(dbFilePath, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create database %s: %w", dbFilePath, err)
	}
	file.Close()

	sqliteDB, err := sql.Open("sqlite3", dbFilePath)
	if err != nil {
		return "", err
	}
	defer sqliteDB.Close()

	if err := sqliteDB.Ping(); err != nil {
		return "", fmt.Errorf("failed to open database %s: %w", dbFilePath, err)
	}

	s.logger.WithField("path", dbFilePath).Info("created database")
	return dbFilePath, nil
}

func (s *Filesystem) ensureDir(dir string) error {
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	s.logger.WithField("path", dir).Debug("created directory")
	return nil
}

func (s *Filesystem) touch(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}

func (s *Filesystem) getUserHomeDirectory() (string, error) {
	if s.home != "" {
		return s.home, nil
	}
	return os.UserHomeDir()
}
