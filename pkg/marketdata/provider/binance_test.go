package provider

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"
	argoerrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type klinesCall struct {
	symbol   string
	interval string
	start    int64
	end      int64
}

// fakeKlinesAPI serves klines one minute apart starting at base.
type fakeKlinesAPI struct {
	base  time.Time
	total int
	calls []klinesCall
	err   error
}

func (f *fakeKlinesAPI) Klines(_ context.Context, symbol string, interval string, startMillis int64, endMillis int64) ([]*binance.Kline, error) {
	f.calls = append(f.calls, klinesCall{symbol, interval, startMillis, endMillis})

	if f.err != nil {
		return nil, f.err
	}

	var klines []*binance.Kline

	for i := range f.total {
		open := f.base.Add(time.Duration(i) * time.Minute).UnixMilli()
		if open < startMillis || open > endMillis {
			continue
		}

		price := strconv.Itoa(100 + i)
		klines = append(klines, &binance.Kline{
			OpenTime:  open,
			CloseTime: open + time.Minute.Milliseconds() - 1,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    "1.5",
		})

		if len(klines) == binancePageSize {
			break
		}
	}

	return klines, nil
}

type BinanceClientTestSuite struct {
	suite.Suite
	start time.Time
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *BinanceClientTestSuite) TestDownloadPaginates() {
	api := &fakeKlinesAPI{base: suite.start, total: 503}
	w := &recordingWriter{}
	client := NewBinanceClientWithAPI(api, nil)
	client.ConfigWriter(w)

	path, err := client.Download(context.Background(), "BTCUSDT", suite.start, suite.start.Add(24*time.Hour), 1, models.Minute, nil)
	suite.Require().NoError(err)
	suite.Equal("out.parquet", path)

	suite.Require().Len(api.calls, 2)
	suite.Equal("1m", api.calls[0].interval)
	suite.Equal(suite.start.Add(500*time.Minute).UnixMilli(), api.calls[1].start)

	suite.Len(w.bars, 503)
	suite.Equal("BTCUSDT", w.bars[0].Symbol)
	suite.Equal(100.0, w.bars[0].Open)
	suite.Equal(602.0, w.bars[502].Close)
	suite.Equal(1.5, w.bars[502].Volume)
	suite.True(suite.start.Add(502 * time.Minute).Equal(w.bars[502].Time))
	suite.True(w.finalized)
	suite.True(w.closed)
}

func (suite *BinanceClientTestSuite) TestDownloadFetchError() {
	api := &fakeKlinesAPI{err: errors.New("connection reset")}
	w := &recordingWriter{}
	client := NewBinanceClientWithAPI(api, nil)
	client.ConfigWriter(w)

	_, err := client.Download(context.Background(), "BTCUSDT", suite.start, suite.start.Add(time.Hour), 1, models.Minute, nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeMarketDataFetchFailed))
	suite.True(w.closed)
}

func (suite *BinanceClientTestSuite) TestDownloadCancelled() {
	api := &fakeKlinesAPI{base: suite.start, total: 10}
	client := NewBinanceClientWithAPI(api, nil)
	client.ConfigWriter(&recordingWriter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Download(ctx, "BTCUSDT", suite.start, suite.start.Add(time.Hour), 1, models.Minute, nil)
	suite.ErrorIs(err, context.Canceled)
	suite.Empty(api.calls)
}

func (suite *BinanceClientTestSuite) TestDownloadUnsupportedInterval() {
	client := NewBinanceClientWithAPI(&fakeKlinesAPI{}, nil)
	client.ConfigWriter(&recordingWriter{})

	_, err := client.Download(context.Background(), "BTCUSDT", suite.start, suite.start.Add(time.Hour), 7, models.Minute, nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeInvalidTimespan))
}

func (suite *BinanceClientTestSuite) TestConvertTimespanToBinanceInterval() {
	tests := []struct {
		timespan   models.Timespan
		multiplier int
		expected   string
	}{
		{models.Minute, 1, "1m"},
		{models.Minute, 15, "15m"},
		{models.Hour, 4, "4h"},
		{models.Day, 3, "3d"},
		{models.Week, 1, "1w"},
		{models.Month, 1, "1M"},
	}

	for _, tc := range tests {
		suite.Run(tc.expected, func() {
			interval, err := ConvertTimespanToBinanceInterval(tc.timespan, tc.multiplier)
			suite.NoError(err)
			suite.Equal(tc.expected, interval)
		})
	}

	_, err := ConvertTimespanToBinanceInterval(models.Second, 1)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeInvalidTimespan))

	_, err = ConvertTimespanToBinanceInterval(models.Hour, 5)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeInvalidTimespan))
}
