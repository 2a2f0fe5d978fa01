package cmd

import (
	"fmt"
	"strconv"

	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/initializer"
	"github.com/qnkhuat/deepread/internal/provider"
	"github.com/spf13/cobra"
)

// NewProvidersCmd groups the provider management commands
func NewProvidersCmd(container *cli.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "providers",
		Aliases: []string{"provider"},
		Short:   "Manage LLM providers",
	}

	cmd.AddCommand(
		newProvidersListCmd(container),
		newProvidersConfigureCmd(container),
		newProvidersEnableCmd(container),
		newProvidersDisableCmd(container),
		newProvidersRefreshCmd(container),
	)
	return cmd
}

func newProvidersListCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers and their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := newTable(cmd.OutOrStdout(), "Name", "Provider", "Configured", "Enabled", "Models", "Last error")
			for _, p := range container.Registry.Providers() {
				spec, err := container.Registry.Spec(p.Name)
				if err != nil {
					return err
				}
				table.Append([]string{
					p.Name,
					spec.DisplayName(),
					yesNo(spec.IsConfigured(p.Credentials)),
					yesNo(p.Enabled),
					strconv.Itoa(len(p.Models)),
					p.LastError,
				})
			}
			table.Render()
			return nil
		},
	}
}

func newProvidersConfigureCmd(container *cli.Container) *cobra.Command {
	var apiKey, baseURL string

	cmd := &cobra.Command{
		Use:   "configure <name>",
		Short: "Set the credentials of a provider",
		Long: `Set the API key or base URL of a provider. Without flags the credentials are
asked for interactively and the provider is validated right away.`,
		Example: "  deepread providers configure openai --api-key sk-...\n" +
			"  deepread providers configure ollama --base-url http://localhost:11434",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !cmd.Flags().Changed("api-key") && !cmd.Flags().Changed("base-url") {
				wizard := initializer.NewInitializer(container.Logger, container.Theme, container.ConfigManager, container.Controller, nil)
				return wizard.ConfigureProvider(cmd.Context(), name)
			}

			current, err := container.Registry.Get(name)
			if err != nil {
				return err
			}
			creds := current.Credentials
			if cmd.Flags().Changed("api-key") {
				creds.APIKey = apiKey
			}
			if cmd.Flags().Changed("base-url") {
				creds.BaseURL = baseURL
			}

			if err := container.Controller.ConfigureProvider(cmd.Context(), name, creds); err != nil {
				return err
			}
			container.Theme.Success().Printf("Saved credentials for %s.\n", name)
			if !container.Registry.IsConfigured(name) {
				spec, _ := container.Registry.Spec(name)
				container.Theme.Warning().Printf("Still missing: %v\n", provider.Missing(spec, creds))
				return nil
			}
			if p, _ := container.Registry.Get(name); !p.Enabled {
				container.Theme.Info().Printf("Run 'deepread providers enable %s' to validate and enable it.\n", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL, empty for the provider default")
	return cmd
}

func newProvidersEnableCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <name>",
		Short: "Validate a provider and enable it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			models, err := container.Controller.EnableProvider(cmd.Context(), name)
			if p, perr := container.Registry.Get(name); perr == nil {
				trackOutcome(cmd.Context(), container, "cmd.providers.enable", p.Kind, err)
			}
			if err != nil {
				return reportProviderError(container, name, err)
			}
			container.Theme.Success().Printf("%s enabled with %d models.\n", name, len(models))
			return nil
		},
	}
}

func newProvidersDisableCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <name>",
		Short: "Disable a provider, keeping its credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Controller.DisableProvider(cmd.Context(), args[0]); err != nil {
				return err
			}
			container.Theme.Success().Printf("%s disabled.\n", args[0])
			return nil
		},
	}
}

func newProvidersRefreshCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <name>",
		Short: "Fetch the model list of an enabled provider again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := container.Controller.RefreshModels(cmd.Context(), args[0])
			if err != nil {
				return reportProviderError(container, args[0], err)
			}
			container.Theme.Success().Println(fmt.Sprintf("%s now lists %d models.", args[0], len(models)))
			return nil
		},
	}
}
