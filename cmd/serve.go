package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qnkhuat/deepread/internal/chat"
	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/retry"
	"github.com/qnkhuat/deepread/internal/webserver"
	"github.com/spf13/cobra"
)

// NewServeCmd starts the HTTP API in the foreground
func NewServeCmd(container *cli.Container) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  `Serve the provider, document and chat API until interrupted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := container.Config.Server
			if cmd.Flags().Changed("host") {
				server.Host = host
			}
			if cmd.Flags().Changed("port") {
				server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := container.Logger.WithField("component", "http")
			ws := webserver.NewWebServer(server.Addr(), log, chat.NewHandler(container.Controller, log))
			if err := ws.Start(); err != nil {
				return err
			}

			if err := ws.WaitReady(ctx, retry.Readiness); err != nil {
				_ = ws.Stop()
				return fmt.Errorf("server did not become ready: %w", err)
			}
			container.Theme.Success().Printf("Listening on http://%s\n", ws.Addr())
			container.Theme.Subtle().Println("Press Ctrl+C to stop.")

			<-ctx.Done()
			container.Controller.Cancel()
			container.Theme.Info().Println("\nShutting down...")
			return ws.Stop()
		},
	}

	cmd.Flags().StringVar(&host, "host", container.Config.Server.Host, "address to bind")
	cmd.Flags().IntVar(&port, "port", container.Config.Server.Port, "port to listen on")
	return cmd
}
