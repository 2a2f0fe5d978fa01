package cmd

import (
	"fmt"
	"strconv"

	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/cost"
	"github.com/spf13/cobra"
)

// NewCostCmd estimates the price of a request
func NewCostCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:     "cost <provider> <model> <input-tokens> <output-tokens>",
		Short:   "Estimate the cost of a request",
		Example: "  deepread cost openai gpt-4o 12000 800",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := parseTokens(args[2])
			if err != nil {
				return err
			}
			out, err := parseTokens(args[3])
			if err != nil {
				return err
			}

			rate := cost.Lookup(args[0], args[1])
			total := cost.Estimate(args[0], args[1], in, out)

			fmt.Fprintf(cmd.OutOrStdout(), "$%.6f\n", total)
			container.Theme.Subtle().Printf("(input $%.5f / output $%.5f per 1K tokens)\n", rate.Input, rate.Output)
			return nil
		},
	}
}

func parseTokens(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("token count must be a non-negative integer, got %q", s)
	}
	return n, nil
}
