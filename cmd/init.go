package cmd

import (
	"fmt"

	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/initializer"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/spf13/cobra"
)

// NewInitCmd creates an interactive init command
func NewInitCmd(container *cli.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Connect providers with a guided setup",
		Long:  `Start an interactive wizard to connect LLM providers, pick a model and write the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container.Logger.Info("Starting initialization", nil)

			wizard := initializer.NewInitializer(container.Logger, container.Theme, container.ConfigManager, container.Controller, nil)
			if err := wizard.Run(cmd.Context()); err != nil {
				container.Logger.Error("Initialization failed", map[string]interface{}{logger.ErrorKey: err.Error()})
				container.Theme.Error().Println(fmt.Sprintf("Initialization failed: %v", err))
				return err
			}

			container.Theme.Info().Println("Run 'deepread help' to see the available commands.")
			return nil
		},
	}

	return cmd
}
