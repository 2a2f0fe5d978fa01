// Package cmd holds the cobra commands of the deepread CLI.
package cmd

import (
	"fmt"

	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/theme"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command with every subcommand
func NewRootCmd(container *cli.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Version: container.AppConfig.Version.VersionText(),
		Use:     "deepread",
		Short:   "Read research papers with an LLM",
		Long: `DeepRead loads a PDF and lets you discuss it with the model of your choice.

Connect OpenAI, Anthropic, DeepSeek or a local Ollama server, then chat in the
terminal or through the local HTTP API.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			container.Telemetry.Track(cmd.Context(), "cmd."+cmd.Name(), "command started", nil)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			theme.DisplayBanner(container.Theme, container.AppConfig)
			switch {
			case container.Registry.AnyEnabled():
			case container.Registry.AnyConfigured():
				container.Theme.Warning().Println("\nA provider is configured but not enabled. Run 'deepread providers enable <name>'.")
				return nil
			default:
				container.Theme.Warning().Println("\nPlease run 'deepread init' to connect a provider.")
				return nil
			}
			container.Theme.Info().Println("\nRun 'deepread chat --doc paper.pdf' to start reading.")
			return nil
		},
	}

	rootCmd.AddCommand(
		NewInitCmd(container),
		NewConfigCmd(container),
		NewProvidersCmd(container),
		NewModelsCmd(container),
		NewSelectCmd(container),
		NewCostCmd(container),
		NewExtractCmd(container),
		NewChatCmd(container),
		NewServeCmd(container),
		NewVersionCmd(container),
	)

	return rootCmd
}

// NewVersionCmd prints build information
func NewVersionCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", container.AppConfig.Name, container.AppConfig.Version.VersionText())
		},
	}
}
