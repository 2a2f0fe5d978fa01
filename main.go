package main

import (
	"context"
	"fmt"
	"os"

	"github.com/qnkhuat/deepread/cmd"
	"github.com/qnkhuat/deepread/internal/cli"
	"github.com/qnkhuat/deepread/internal/logger"
)

var version = "0.0.1"
var commit = "none"
var date = "unknown"

func main() {
	ctx := context.Background()

	container, err := cli.NewContainer(ctx, cli.InitOptions{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during initialization: %v\n", err)
		os.Exit(1)
	}

	log := container.Logger
	log.Info(fmt.Sprintf("%s started", container.AppConfig.Name), map[string]interface{}{"version": version})

	rootCmd := cmd.NewRootCmd(container)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error(fmt.Sprintf("%s exited with error", container.AppConfig.Name), map[string]interface{}{logger.ErrorKey: err.Error()})
		_ = container.Close()
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("%s exited successfully", container.AppConfig.Name), nil)
	_ = container.Close()
}
