package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/qnkhuat/deepread/internal/chat"
	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/document"
	"github.com/qnkhuat/deepread/internal/logger"
	"github.com/spf13/cobra"
)

// NewChatCmd creates a new chat command
func NewChatCmd(container *cli.Container) *cobra.Command {
	var docPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long:  `Chat with the selected model, optionally about a PDF loaded with --doc.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if _, err := container.Controller.SelectFirstAvailable(ctx); err != nil {
				if errors.Is(err, chat.ErrNoSelection) {
					container.Theme.Warning().Println("No model available. Run 'deepread init' to connect a provider.")
					return nil
				}
				return err
			}

			if docPath != "" {
				text, err := document.ExtractFile(docPath)
				if err != nil {
					return fmt.Errorf("failed to load %s: %w", docPath, err)
				}
				if err := container.Controller.LoadDocument(filepath.Base(docPath), text); err != nil {
					return err
				}
			}

			var opts []chat.SessionOption
			if !container.Config.UI.PlainText {
				renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
				if err != nil {
					container.Logger.Warn("Markdown rendering disabled", map[string]interface{}{logger.ErrorKey: err.Error()})
				} else {
					opts = append(opts, chat.WithRenderer(renderer))
				}
			}
			if user := os.Getenv("USER"); user != "" {
				opts = append(opts, chat.WithUserName(user))
			}

			session := chat.NewChatSession(container.Controller, container.Theme, cmd.InOrStdin(), opts...)
			err := session.Start(ctx)
			container.Controller.Cancel()
			return err
		},
	}

	cmd.Flags().StringVar(&docPath, "doc", "", "PDF to discuss")
	return cmd
}
