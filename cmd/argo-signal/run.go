package main

import (
	"context"
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/engine"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/strategy/builtin"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the strategies of a config file over its market data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the run config `FILE`",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar while replaying",
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	signalEngine, err := engine.NewSignalEngine(cfg, builtin.NewRegistry(), log)
	if err != nil {
		return err
	}

	onProgress := optional.None[engine.OnProgress]()

	if cmd.Bool("progress") {
		var bar *progressbar.ProgressBar

		onProgress = optional.Some[engine.OnProgress](func(processed, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "replaying")
			}

			bar.Set(processed)
		})

		defer func() {
			if bar != nil {
				bar.Finish()
			}
		}()
	}

	summary, err := signalEngine.Run(ctx, onProgress)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "%d bars, %d signals from %d instances written to %s\n",
		summary.Bars, summary.Signals, summary.Instances, summary.ResultsPath)

	return err
}
