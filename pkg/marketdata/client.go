package marketdata

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
	"go.uber.org/zap"
)

type WriterType string

const (
	WriterDuckDB WriterType = "duckdb"
)

type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance"`
	WriterType    WriterType            `validate:"required,oneof=duckdb"`
	DataPath      string                `validate:"required"`
	PolygonApiKey string                `validate:"required_if=ProviderType polygon"`
	// FillGaps repairs bars with missing values before they are written.
	FillGaps bool
}

type DownloadParams struct {
	Ticker     string    `validate:"required"`
	StartDate  time.Time `validate:"required"`
	EndDate    time.Time `validate:"required,gtfield=StartDate"`
	Multiplier int       `validate:"required,min=1"`
	Timespan   Timespan  `validate:"required"`
}

type Client struct {
	provider   provider.Provider
	config     ClientConfig
	logger     *logger.Logger
	onProgress provider.OnDownloadProgress
}

var validate = validator.New()

// NewClient creates a client for the configured provider.
func NewClient(config ClientConfig, log *logger.Logger, onProgress provider.OnDownloadProgress) (*Client, error) {
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid market data client configuration", err)
	}

	p, err := provider.NewMarketDataProvider(config.ProviderType, config.PolygonApiKey, log)
	if err != nil {
		return nil, err
	}

	return NewClientWithProvider(config, p, log, onProgress), nil
}

// NewClientWithProvider creates a client on top of an existing provider.
func NewClientWithProvider(config ClientConfig, p provider.Provider, log *logger.Logger, onProgress provider.OnDownloadProgress) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider:   p,
		config:     config,
		logger:     log,
		onProgress: onProgress,
	}
}

// Download fetches the bars described by params and returns the path of the written file.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if _, err := ParseTimespan(string(params.Timespan)); err != nil {
		return "", err
	}

	w, err := c.setupWriter(params)
	if err != nil {
		return "", err
	}

	c.provider.ConfigWriter(w)

	c.logger.Info("Downloading market data",
		zap.String("provider", string(c.config.ProviderType)),
		zap.String("ticker", params.Ticker),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
		zap.String("timespan", string(params.Timespan)),
		zap.Bool("fill_gaps", c.config.FillGaps),
	)

	path, err := c.provider.Download(ctx, params.Ticker, params.StartDate, params.EndDate,
		params.Multiplier, params.Timespan.Timespan(), c.onProgress)
	if err != nil {
		return "", err
	}

	return path, nil
}

func (c *Client) setupWriter(params DownloadParams) (writer.MarketDataWriter, error) {
	switch c.config.WriterType {
	case WriterDuckDB:
		var w writer.MarketDataWriter = writer.NewDuckDBWriter(filepath.Join(c.config.DataPath, OutputFileName(params)), c.logger)
		if c.config.FillGaps {
			w = writer.NewGapFillWriter(w)
		}

		return w, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported writer type: %s", c.config.WriterType)
	}
}

// OutputFileName names the file of a download, e.g. AAPL_2024-01-01_2024-02-01_1_day.parquet.
// Slashes in the ticker are replaced so crypto pairs stay a single file name.
func OutputFileName(params DownloadParams) string {
	ticker := strings.NewReplacer("/", "-", "\\", "-").Replace(params.Ticker)

	return fmt.Sprintf("%s_%s_%s_%d_%s.parquet",
		ticker,
		params.StartDate.Format(time.DateOnly),
		params.EndDate.Format(time.DateOnly),
		params.Multiplier,
		params.Timespan.Timespan(),
	)
}
