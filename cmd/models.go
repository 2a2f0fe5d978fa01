package cmd

import (
	"sort"

	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/provider"
	"github.com/spf13/cobra"
)

// NewModelsCmd lists cached or live models
func NewModelsCmd(container *cli.Container) *cobra.Command {
	var filter string
	var live bool

	cmd := &cobra.Command{
		Use:   "models [provider]",
		Short: "List the models of enabled providers",
		Long: `List the cached models of enabled providers. --all asks every enabled
provider for its current list instead; the cache is left unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var providers []provider.Provider
			for _, p := range container.Registry.Providers() {
				if len(args) == 1 && p.Name != args[0] {
					continue
				}
				if !p.Enabled {
					continue
				}
				providers = append(providers, p)
			}
			if len(args) == 1 && len(providers) == 0 {
				if _, err := container.Registry.Get(args[0]); err != nil {
					return err
				}
				container.Theme.Warning().Printf("%s is not enabled.\n", args[0])
				return nil
			}

			models := map[string][]string{}
			if live {
				requests := make([]provider.Provider, 0, len(providers))
				for _, p := range providers {
					rp, err := container.Registry.RequestProvider(p.Name)
					if err != nil {
						return err
					}
					requests = append(requests, rp)
				}
				for name, res := range container.Catalog.ListAll(cmd.Context(), requests) {
					if res.Err != nil {
						container.Theme.Error().Printf("%s: %v\n", name, res.Err)
						continue
					}
					models[name] = res.Models
				}
			} else {
				for _, p := range providers {
					models[p.Name] = p.Models
				}
			}

			sel, hasSel := container.Registry.Selection()
			table := newTable(cmd.OutOrStdout(), "Provider", "Model", "Selected")
			for _, p := range providers {
				list := provider.FilterModels(models[p.Name], filter)
				sort.Strings(list)
				for _, m := range list {
					mark := ""
					if hasSel && sel.Provider == p.Name && sel.Model == m {
						mark = "*"
					}
					table.Append([]string{p.Name, m, mark})
				}
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "case-insensitive substring filter")
	cmd.Flags().BoolVar(&live, "all", false, "query providers instead of the cache")
	return cmd
}

// NewSelectCmd sets the active model
func NewSelectCmd(container *cli.Container) *cobra.Command {
	var first, forget bool

	cmd := &cobra.Command{
		Use:   "select <provider> <model>",
		Short: "Select the model to chat with",
		Args: func(cmd *cobra.Command, args []string) error {
			if first || forget {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if forget {
				if err := container.Controller.ClearSelection(cmd.Context()); err != nil {
					return err
				}
				container.Theme.Success().Println("Selection cleared.")
				return nil
			}
			if first {
				sel, err := container.Controller.SelectFirstAvailable(cmd.Context())
				if err != nil {
					return err
				}
				container.Theme.Success().Printf("Selected %s/%s.\n", sel.Provider, sel.Model)
				return nil
			}

			if err := container.Controller.Select(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			container.Theme.Success().Printf("Selected %s/%s.\n", args[0], args[1])
			return nil
		},
	}

	cmd.Flags().BoolVar(&first, "first", false, "select the first available model")
	cmd.Flags().BoolVar(&forget, "clear", false, "forget the current selection")
	cmd.MarkFlagsMutuallyExclusive("first", "clear")
	return cmd
}
