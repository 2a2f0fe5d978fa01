// Package initializer runs the guided first-time setup.
package initializer

import (
	"context"
	"fmt"

	"github.com/qnkhuat/deepread/internal/chat"
	"github.com/qnkhuat/deepread/internal/config"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/qnkhuat/deepread/internal/telemetry"
	"github.com/qnkhuat/deepread/internal/theme"
)

// Initializer handles the interactive setup process
type Initializer struct {
	Config        *config.Config
	IsUpdateMode  bool
	configManager config.Manager
	controller    *chat.Controller
	log           logger.Logger
	theme         theme.Theme
	ask           telemetry.Asker
}

// NewInitializer creates a new initializer. A nil ask uses survey.AskOne.
func NewInitializer(log logger.Logger, t theme.Theme, configManager config.Manager, controller *chat.Controller, ask telemetry.Asker) *Initializer {
	if log == nil {
		log = logger.Discard
	}
	return &Initializer{
		log:           log,
		theme:         t,
		configManager: configManager,
		controller:    controller,
		ask:           ask,
	}
}

// Run walks through provider setup, model selection and telemetry, then
// saves the configuration file. Provider settings are saved as they change.
func (i *Initializer) Run(ctx context.Context) error {
	i.log.Debug("Starting configuration process", nil)

	var err error
	i.IsUpdateMode = i.configManager.Exists()
	i.Config, err = i.configManager.Load()
	if err != nil {
		i.log.Error("Failed to load configuration", map[string]interface{}{logger.ErrorKey: err.Error()})
		return fmt.Errorf("error loading configuration: %w", err)
	}

	if i.IsUpdateMode {
		i.theme.Primary().Println("Configuration Update Mode")
		i.theme.Warning().Println("You are about to update your existing configuration. Press Enter to keep current values, or provide new ones.")
	} else {
		i.theme.Primary().Println("Initial Configuration")
		i.theme.Info().Println("Connect at least one LLM provider. You can always change the configuration later.")
	}

	if err := i.ConfigureProviders(ctx); err != nil {
		return fmt.Errorf("error configuring providers: %w", err)
	}

	if err := i.SelectModel(ctx); err != nil {
		return fmt.Errorf("error selecting model: %w", err)
	}

	if err := telemetry.Configure(i.theme, i.Config, i.ask); err != nil {
		return fmt.Errorf("error configuring telemetry: %w", err)
	}

	if err := i.configManager.Save(i.Config); err != nil {
		i.log.Error("Failed to save configuration", map[string]interface{}{logger.ErrorKey: err.Error()})
		return fmt.Errorf("error saving configuration: %w", err)
	}

	i.log.Info("Configuration complete", map[string]interface{}{"update": i.IsUpdateMode})
	i.theme.Success().Println("\nConfiguration updated successfully!")
	i.theme.Info().Println("Run 'deepread chat --doc paper.pdf' to start reading.")
	return nil
}
