package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download historical bars into a parquet file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker or trading pair, e.g. AAPL or BTCUSDT",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{time.DateOnly, time.RFC3339},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to now",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{time.DateOnly, time.RFC3339},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s)", strings.Join(marketdata.GetSupportedProviders(), ", ")),
				Value:   string(provider.ProviderPolygon),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Output `DIRECTORY`",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "Polygon API key",
				Sources: cli.EnvVars("POLYGON_API_KEY"),
			},
			&cli.StringFlag{
				Name:  "timespan",
				Usage: "Bar interval, e.g. 1m, 4h or 1d",
				Value: string(marketdata.TimespanOneDay),
			},
			&cli.BoolFlag{
				Name:  "fill-gaps",
				Usage: "Fill missing prices and volumes from neighbouring bars",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level",
				Value: "info",
			},
		},
		Action: downloadAction,
	}
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	timespan, err := marketdata.ParseTimespan(cmd.String("timespan"))
	if err != nil {
		return err
	}

	if _, err := marketdata.GetProviderInfo(cmd.String("provider")); err != nil {
		return err
	}

	log, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return err
	}
	defer log.Sync()

	bar := progressbar.Default(100, "downloading")

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.ProviderType(cmd.String("provider")),
		WriterType:    marketdata.WriterDuckDB,
		DataPath:      cmd.String("data"),
		PolygonApiKey: cmd.String("api-key"),
		FillGaps:      cmd.Bool("fill-gaps"),
	}, log, func(current, total float64, message string) {
		if total <= 0 {
			return
		}

		bar.Describe(message)
		bar.Set(int(current / total * 100))
	})
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Ticker:     cmd.String("ticker"),
		StartDate:  cmd.Timestamp("start"),
		EndDate:    cmd.Timestamp("end"),
		Multiplier: timespan.Multiplier(),
		Timespan:   timespan,
	})
	if err != nil {
		return err
	}

	bar.Finish()

	_, err = fmt.Fprintf(cmd.Root().Writer, "\nDownloaded %s to %s\n", cmd.String("ticker"), path)

	return err
}
