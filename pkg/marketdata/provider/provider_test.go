package provider

import (
	"testing"

	"github.com/rxtech-lab/argo-signal/internal/types"
	argoerrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// recordingWriter keeps every written bar in memory.
type recordingWriter struct {
	bars        []types.MarketData
	initialized bool
	finalized   bool
	closed      bool
	writeErr    error
}

func (w *recordingWriter) Initialize() error {
	w.initialized = true

	return nil
}

func (w *recordingWriter) Write(data types.MarketData) error {
	if w.writeErr != nil {
		return w.writeErr
	}

	w.bars = append(w.bars, data)

	return nil
}

func (w *recordingWriter) Finalize() (string, error) {
	w.finalized = true

	return "out.parquet", nil
}

func (w *recordingWriter) Close() error {
	w.closed = true

	return nil
}

func (w *recordingWriter) GetOutputPath() string {
	return "out.parquet"
}

type ProviderTestSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) TestNewMarketDataProvider() {
	p, err := NewMarketDataProvider(ProviderBinance, "", nil)
	suite.NoError(err)
	suite.IsType(&BinanceClient{}, p)

	p, err = NewMarketDataProvider(ProviderPolygon, "key", nil)
	suite.NoError(err)
	suite.IsType(&PolygonClient{}, p)

	_, err = NewMarketDataProvider(ProviderPolygon, "", nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeMissingParameter))

	_, err = NewMarketDataProvider("yahoo", "", nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeInvalidProvider))
}

func (suite *ProviderTestSuite) TestReportIgnoresNilCallback() {
	suite.NotPanics(func() { report(nil, 1, 2, "x") })

	var got string
	report(func(_, _ float64, message string) { got = message }, 1, 2, "x")
	suite.Equal("x", got)
}
