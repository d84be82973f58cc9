package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-signal",
		Usage:   "Replay historical market data through trading strategies and record their signals",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			runCommand(),
			schemaCommand(),
			downloadCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the engine version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

			return err
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
