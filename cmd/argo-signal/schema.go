package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/strategy/builtin"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the run config, or of a strategy config with --strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Builtin strategy `NAME`",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List the builtin strategies instead",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	registry := builtin.NewRegistry()
	out := cmd.Root().Writer

	if cmd.Bool("list") {
		for _, name := range registry.Names() {
			if _, err := fmt.Fprintln(out, name); err != nil {
				return err
			}
		}

		return nil
	}

	var (
		schema string
		err    error
	)

	if name := cmd.String("strategy"); name != "" {
		schema, err = registry.Schema(name)
	} else {
		schema, err = config.Schema()
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, schema)

	return err
}
