package marketdata

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/mocks"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signal/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ClientTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	tempDir      string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.tempDir = suite.T().TempDir()
}

func (suite *ClientTestSuite) config() ClientConfig {
	return ClientConfig{
		ProviderType: provider.ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     suite.tempDir,
	}
}

func validParams() DownloadParams {
	return DownloadParams{
		Ticker:     "BTCUSDT",
		StartDate:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Multiplier: 1,
		Timespan:   TimespanOneDay,
	}
}

func (suite *ClientTestSuite) TestNewClient() {
	client, err := NewClient(suite.config(), nil, nil)
	suite.Require().NoError(err)
	suite.NotNil(client)
}

func (suite *ClientTestSuite) TestNewClientRequiresPolygonKey() {
	config := suite.config()
	config.ProviderType = provider.ProviderPolygon

	_, err := NewClient(config, nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	config.PolygonApiKey = "key"
	client, err := NewClient(config, nil, nil)
	suite.NoError(err)
	suite.NotNil(client)
}

func (suite *ClientTestSuite) TestNewClientRejectsUnknownProvider() {
	config := suite.config()
	config.ProviderType = "yahoo"

	_, err := NewClient(config, nil, nil)
	suite.Error(err)
}

func (suite *ClientTestSuite) TestDownload() {
	params := validParams()
	expectedPath := filepath.Join(suite.tempDir, OutputFileName(params))

	var configured writer.MarketDataWriter

	gomock.InOrder(
		suite.mockProvider.EXPECT().ConfigWriter(gomock.Any()).Do(func(w writer.MarketDataWriter) {
			configured = w
		}),
		suite.mockProvider.EXPECT().
			Download(gomock.Any(), "BTCUSDT", params.StartDate, params.EndDate, 1, models.Day, gomock.Any()).
			Return(expectedPath, nil),
	)

	client := NewClientWithProvider(suite.config(), suite.mockProvider, nil, nil)
	path, err := client.Download(context.Background(), params)
	suite.Require().NoError(err)
	suite.Equal(expectedPath, path)

	suite.IsType(&writer.DuckDBWriter{}, configured)
	suite.Equal(expectedPath, configured.GetOutputPath())
}

func (suite *ClientTestSuite) TestDownloadWithGapFill() {
	config := suite.config()
	config.FillGaps = true

	var configured writer.MarketDataWriter

	suite.mockProvider.EXPECT().ConfigWriter(gomock.Any()).Do(func(w writer.MarketDataWriter) {
		configured = w
	})
	suite.mockProvider.EXPECT().
		Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("out.parquet", nil)

	client := NewClientWithProvider(config, suite.mockProvider, nil, nil)
	_, err := client.Download(context.Background(), validParams())
	suite.Require().NoError(err)
	suite.IsType(&writer.GapFillWriter{}, configured)
}

func (suite *ClientTestSuite) TestDownloadInvalidParams() {
	client := NewClientWithProvider(suite.config(), suite.mockProvider, nil, nil)

	params := validParams()
	params.EndDate = params.StartDate.Add(-time.Hour)
	_, err := client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	params = validParams()
	params.Ticker = ""
	_, err = client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	params = validParams()
	params.Timespan = "7s"
	_, err = client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimespan))
}

func (suite *ClientTestSuite) TestDownloadProviderError() {
	suite.mockProvider.EXPECT().ConfigWriter(gomock.Any())
	suite.mockProvider.EXPECT().
		Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", stderrors.New("rate limited"))

	client := NewClientWithProvider(suite.config(), suite.mockProvider, nil, nil)
	_, err := client.Download(context.Background(), validParams())
	suite.EqualError(err, "rate limited")
}

func (suite *ClientTestSuite) TestDownloadPassesProgressCallback() {
	var calls int

	suite.mockProvider.EXPECT().ConfigWriter(gomock.Any())
	suite.mockProvider.EXPECT().
		Download(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _, _ time.Time, _ int, _ models.Timespan, onProgress func(float64, float64, string)) (string, error) {
			onProgress(1, 2, "half")

			return "out.parquet", nil
		})

	client := NewClientWithProvider(suite.config(), suite.mockProvider, nil, func(current, total float64, message string) {
		calls++
		suite.Equal("half", message)
	})
	_, err := client.Download(context.Background(), validParams())
	suite.Require().NoError(err)
	suite.Equal(1, calls)
}

func (suite *ClientTestSuite) TestOutputFileName() {
	params := validParams()
	suite.Equal("BTCUSDT_2024-01-01_2024-01-31_1_day.parquet", OutputFileName(params))

	params.Ticker = "X:BTC/USD"
	params.Timespan = TimespanFifteenMinutes
	params.Multiplier = 15
	suite.Equal("X:BTC-USD_2024-01-01_2024-01-31_15_minute.parquet", OutputFileName(params))
}
