package provider

import (
	"context"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// OnDownloadProgress is called while a download runs. current and total are in
// provider specific units.
type OnDownloadProgress = func(current float64, total float64, message string)

type Provider interface {
	// ConfigWriter configures the writer the downloaded bars are written to.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download fetches the bars of ticker between startDate and endDate and returns the path
	// the writer produced. The provider initializes, finalizes, and closes the writer.
	// example:
	// Download(ctx, "AAPL", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), 1, models.Day, onProgress)
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a provider of the given type. apiKey is only used by polygon.
func NewMarketDataProvider(providerType ProviderType, apiKey string, log *logger.Logger) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient(log), nil
	case ProviderPolygon:
		return NewPolygonClient(apiKey, log)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

func report(onProgress OnDownloadProgress, current, total float64, message string) {
	if onProgress != nil {
		onProgress(current, total, message)
	}
}

func nopIfNil(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.NewNopLogger()
	}

	return log
}
