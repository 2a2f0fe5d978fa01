package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/llm"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	colors := make([]tablewriter.Colors, len(header))
	for i := range colors {
		colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
	}
	table.SetHeaderColor(colors...)
	return table
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// reportProviderError prints err with the provider hint for rejected or
// unreachable providers and returns it for cobra.
func reportProviderError(container *cli.Container, name string, err error) error {
	container.Theme.Error().Println(err.Error())

	var rejected *llm.RejectedError
	if errors.As(err, &rejected) || llm.IsUnreachable(err) {
		if p, perr := container.Registry.Get(name); perr == nil {
			container.Theme.Subtle().Println(llm.Guidance(p.Kind))
		}
	}
	return err
}

func trackOutcome(ctx context.Context, container *cli.Container, command string, kind llm.Kind, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	container.Telemetry.Track(ctx, command, "command finished", map[string]string{
		"provider.kind": string(kind),
		"outcome":       outcome,
	})
}
