package cmd

import (
	"fmt"

	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/cost"
	"github.com/qnkhuat/deepread/internal/document"
	"github.com/spf13/cobra"
)

// NewExtractCmd prints the text of a PDF as page-demarcated markdown
func NewExtractCmd(container *cli.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Print the text of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := document.ExtractFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to extract %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			container.Theme.Subtle().Printf("~%d tokens\n", cost.ApproxTokens(text))
			return nil
		},
	}
}
