// Package cli assembles the application dependencies shared by the commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qnkhuat/deepread/internal/catalog"
	"github.com/qnkhuat/deepread/internal/chat"
	"github.com/qnkhuat/deepread/internal/config"
	"github.com/qnkhuat/deepread/internal/filesystem"
	"github.com/qnkhuat/deepread/internal/llm"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/provider"
	"github.com/qnkhuat/deepread/internal/settings"
	"github.com/qnkhuat/deepread/internal/telemetry"
	"github.com/qnkhuat/deepread/internal/theme"
	"github.com/sirupsen/logrus"
)

// startupDiscoveryTimeout bounds the model discovery run for enabled
// providers restored without a model cache.
const startupDiscoveryTimeout = 10 * time.Second

// Container holds all application dependencies
type Container struct {
	AppConfig     *config.AppConfig
	Config        *config.Config
	ConfigManager config.Manager
	Paths         map[filesystem.PathType]string
	Logger        logger.Logger
	Theme         theme.Theme
	Registry      *provider.Registry
	Catalog       *catalog.Service
	Settings      settings.Store
	Controller    *chat.Controller
	Telemetry     *telemetry.Client

	closers []func() error
}

// InitOptions contains options for initialization
type InitOptions struct {
	Version string
	Commit  string
	Date    string

	// Home overrides the user home directory.
	Home string
	// Factory overrides llm.NewClient.
	Factory llm.Factory
	// Settings overrides the SQLite settings store.
	Settings settings.Store
	// Lookup reads environment overrides, os.LookupEnv when nil.
	Lookup func(string) (string, bool)
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, opts InitOptions) (*Container, error) {
	if opts.Version == "" {
		return nil, fmt.Errorf("version is required")
	}
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}

	c := &Container{
		AppConfig: config.NewAppConfig(config.WithVersion(config.Version{
			Version: opts.Version,
			Commit:  opts.Commit,
			Date:    opts.Date,
		})),
	}

	var fsOpts []filesystem.Option
	if opts.Home != "" {
		fsOpts = append(fsOpts, filesystem.WithHome(opts.Home))
	}
	if level, ok := opts.Lookup(config.EnvLogLevel); ok && strings.EqualFold(level, "debug") {
		boot := logrus.New()
		boot.SetOutput(os.Stderr)
		boot.SetLevel(logrus.DebugLevel)
		fsOpts = append(fsOpts, filesystem.WithLogger(boot))
	}
	fs := filesystem.NewAppFilesystem(c.AppConfig, fsOpts...)

	var err error
	c.Paths, err = fs.EnsureAllPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to ensure all application paths: %w", err)
	}

	c.ConfigManager = config.NewFileManager(c.Paths[filesystem.ConfigFilePath])
	c.Config, err = c.ConfigManager.Load()
	if err != nil {
		return nil, err
	}
	if err := c.Config.ApplyEnv(opts.Lookup); err != nil {
		return nil, err
	}
	if err := c.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", c.ConfigManager.Path(), err)
	}

	level, err := logger.ParseLevel(c.Config.Log.Level)
	if err != nil {
		return nil, err
	}
	c.Logger, err = logger.NewZapLogger(logger.Config{
		LogLevel:      level,
		InfoFilePath:  c.Paths[filesystem.InfoLogFile],
		WarnFilePath:  c.Paths[filesystem.WarnLogFile],
		ErrorFilePath: c.Paths[filesystem.ErrorLogFile],
		UseConsole:    c.Config.Log.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	theme.SetThemeByName(theme.Name(c.Config.UI.Theme))
	c.Theme = theme.GetTheme()

	c.Catalog = catalog.NewService(opts.Factory, c.Logger.WithField("component", "catalog"))
	c.Registry = provider.NewRegistry(c.Catalog, c.Logger.WithField("component", "registry"))

	c.Settings = opts.Settings
	if c.Settings == nil {
		path := c.Config.Database.Path
		if path == "" {
			path = c.Paths[filesystem.SettingsDB]
		}
		store, err := settings.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		c.Settings = store
		c.closers = append(c.closers, store.Close)
	}

	c.Controller, err = chat.NewController(chat.Options{
		Registry:       c.Registry,
		Settings:       c.Settings,
		Stream:         chat.NewStreamClient(opts.Factory),
		SystemPrompt:   c.Config.Chat.SystemPrompt,
		RequestTimeout: c.Config.Chat.RequestTimeout,
		Logger:         c.Logger.WithField("component", "chat"),
	})
	if err != nil {
		return nil, err
	}

	if err := c.Controller.Restore(ctx); err != nil {
		c.Logger.Warn("Ignoring unreadable saved settings", map[string]interface{}{logger.ErrorKey: err.Error()})
	}

	discoverCtx, cancel := context.WithTimeout(ctx, startupDiscoveryTimeout)
	err = c.Controller.DiscoverModels(discoverCtx)
	cancel()
	if err != nil {
		c.Logger.Warn("Model discovery failed at start-up", map[string]interface{}{logger.ErrorKey: err.Error()})
	}

	c.Telemetry = telemetry.NewClient(c.AppConfig, c.Config.Telemetry.Enabled)

	c.Logger.Debug("Container initialized", map[string]interface{}{"home": c.Paths[filesystem.AppDirectory]})
	return c, nil
}

// Close flushes the logger and closes the settings database.
func (c *Container) Close() error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = c.Logger.Sync()
	return firstErr
}
