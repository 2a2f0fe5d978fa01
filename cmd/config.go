package cmd

import (
	"fmt"

	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/spf13/cobra"
)

// NewConfigCmd creates a config command
func NewConfigCmd(container *cli.Container) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage DeepRead configuration",
		Long:  `Commands to manage and view your DeepRead configuration.`,
	}

	cfgCmd.AddCommand(NewConfigPreviewCmd(container))
	return cfgCmd
}

// NewConfigPreviewCmd prints the effective configuration, environment
// overrides included.
func NewConfigPreviewCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Preview the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := container.Config.Preview()
			if err != nil {
				return err
			}

			container.Theme.Primary().Println("\nConfiguration")
			container.Theme.Subtle().Printf("Located at: %s\n\n", container.ConfigManager.Path())
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
