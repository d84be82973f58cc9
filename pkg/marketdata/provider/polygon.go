package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// PolygonAggsIterator is the part of the polygon aggregates iterator the client uses.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the part of the polygon REST client the provider uses.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonRESTClient struct {
	client *polygon.Client
}

func (c polygonRESTClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return c.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	logger    *logger.Logger
}

func NewPolygonClient(apiKey string, log *logger.Logger) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon requires an API key")
	}

	return NewPolygonClientWithAPI(polygonRESTClient{client: polygon.New(apiKey)}, log), nil
}

// NewPolygonClientWithAPI creates a polygon provider on top of api.
func NewPolygonClientWithAPI(api PolygonAPIClient, log *logger.Logger) *PolygonClient {
	return &PolygonClient{
		apiClient: api,
		logger:    nopIfNil(log),
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download implements Provider.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "no writer configured for PolygonClient, call ConfigWriter first")
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

	totalDays := endDate.Sub(startDate).Hours()/24 + 1

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)
	count := 0

	for iter.Next() {
		agg := iter.Item()

		bar := types.MarketData{
			Symbol: ticker,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write bar", err)
		}

		count++

		report(onProgress, bar.Time.Sub(startDate).Hours()/24, totalDays, fmt.Sprintf("Downloading %s", ticker))
	}

	if err := iter.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", err)
	}

	c.logger.Info("Finished polygon download", zap.String("ticker", ticker), zap.Int("bars", count))

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}
