package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// binancePageSize is the default number of klines binance returns per request.
const binancePageSize = 500

// BinanceKlinesAPI fetches one page of klines.
type BinanceKlinesAPI interface {
	Klines(ctx context.Context, symbol string, interval string, startMillis int64, endMillis int64) ([]*binance.Kline, error)
}

type binanceRESTClient struct {
	client *binance.Client
}

func (c binanceRESTClient) Klines(ctx context.Context, symbol string, interval string, startMillis int64, endMillis int64) ([]*binance.Kline, error) {
	return c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(startMillis).
		EndTime(endMillis).
		Do(ctx)
}

type BinanceClient struct {
	api    BinanceKlinesAPI
	writer writer.MarketDataWriter
	logger *logger.Logger
}

// NewBinanceClient creates a binance provider. Public market data needs no credentials.
func NewBinanceClient(log *logger.Logger) Provider {
	return NewBinanceClientWithAPI(binanceRESTClient{client: binance.NewClient("", "")}, log)
}

// NewBinanceClientWithAPI creates a binance provider on top of api.
func NewBinanceClientWithAPI(api BinanceKlinesAPI, log *logger.Logger) *BinanceClient {
	return &BinanceClient{
		api:    api,
		logger: nopIfNil(log),
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download implements Provider. Klines are paged by moving the start time past the close
// time of the last kline received.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	interval, err := ConvertTimespanToBinanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for BinanceClient, call ConfigWriter first")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	defer func() {
		if cerr := c.writer.Close(); cerr != nil {
			if err == nil {
				err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close writer", cerr)
			} else {
				c.logger.Warn("Failed to close writer after another error", zap.Error(cerr))
			}
		}
	}()

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	current := startMillis
	count := 0

	for current < endMillis {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		klines, err := c.api.Klines(ctx, ticker, interval, current, endMillis)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from binance", err)
		}

		if err := writeKlines(c.writer, ticker, klines); err != nil {
			return "", err
		}

		count += len(klines)

		report(onProgress, float64(current-startMillis), float64(endMillis-startMillis),
			fmt.Sprintf("Downloading %s klines from Binance", ticker))

		if len(klines) < binancePageSize {
			break
		}

		current = klines[len(klines)-1].CloseTime + 1
	}

	c.logger.Info("Finished binance download", zap.String("ticker", ticker), zap.Int("bars", count))

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

func writeKlines(w writer.MarketDataWriter, ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		values := make([]float64, 5)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "invalid kline value %q", raw)
			}

			values[i] = v
		}

		bar := types.MarketData{
			Symbol: ticker,
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		}

		if err := w.Write(bar); err != nil {
			return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write bar", err)
		}
	}

	return nil
}

// ConvertTimespanToBinanceInterval converts a polygon timespan and multiplier to a binance
// interval such as 15m, 4h or 1M.
func ConvertTimespanToBinanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	supported := map[models.Timespan][]int{
		models.Minute: {1, 3, 5, 15, 30},
		models.Hour:   {1, 2, 4, 6, 8, 12},
		models.Day:    {1, 3},
		models.Week:   {1},
		models.Month:  {1},
	}
	suffix := map[models.Timespan]string{
		models.Minute: "m",
		models.Hour:   "h",
		models.Day:    "d",
		models.Week:   "w",
		models.Month:  "M",
	}

	multipliers, ok := supported[timespan]
	if !ok {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan for binance: %s", timespan)
	}

	for _, m := range multipliers {
		if m == multiplier {
			return fmt.Sprintf("%d%s", multiplier, suffix[timespan]), nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported %s multiplier for binance: %d", timespan, multiplier)
}
