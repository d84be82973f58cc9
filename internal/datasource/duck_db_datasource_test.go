package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// DuckDBTestSuite is a test suite for DuckDBDataSource
type DuckDBTestSuite struct {
	suite.Suite
	ds      *DuckDBDataSource
	tempDir string
}

func TestDuckDBTestSuite(t *testing.T) {
	suite.Run(t, new(DuckDBTestSuite))
}

func (suite *DuckDBTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()

	ds, err := NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ds = ds
}

func (suite *DuckDBTestSuite) TearDownTest() {
	if suite.ds != nil {
		suite.ds.Close()
		suite.ds = nil
	}
}

func (suite *DuckDBTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.tempDir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

// writeParquet exports bars through a scratch DuckDB connection.
func (suite *DuckDBTestSuite) writeParquet(name string, bars []types.MarketData) string {
	path := filepath.Join(suite.tempDir, name)

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE bars (time TIMESTAMP, symbol VARCHAR, open DOUBLE, high DOUBLE, low DOUBLE, close DOUBLE, volume DOUBLE)`)
	suite.Require().NoError(err)

	for _, bar := range bars {
		_, err = db.Exec(`INSERT INTO bars VALUES (?, ?, ?, ?, ?, ?, ?)`,
			bar.Time, bar.Symbol, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
		suite.Require().NoError(err)
	}

	_, err = db.Exec(fmt.Sprintf(`COPY bars TO '%s' (FORMAT PARQUET)`, path))
	suite.Require().NoError(err)

	return path
}

func (suite *DuckDBTestSuite) readAll(start, end optional.Option[time.Time]) []types.MarketData {
	var bars []types.MarketData

	for bar, err := range suite.ds.ReadAll(start, end) {
		suite.Require().NoError(err)

		bars = append(bars, bar)
	}

	return bars
}

func (suite *DuckDBTestSuite) TestInitializeCSVWithoutSymbolColumn() {
	path := suite.writeFile("RELIANCE.NS.csv", "Date,Open,High,Low,Close,Adj Close,Volume\n"+
		"2020-01-02,1500,1520,1490,1510,1500,100000\n"+
		"2020-01-03,1510,1530,1500,1525,1515,120000\n")

	suite.Require().NoError(suite.ds.Initialize(path))

	bars := suite.readAll(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Len(bars, 2)

	suite.Equal("RELIANCE.NS", bars[0].Symbol)
	suite.Equal(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time.UTC())
	suite.Equal(1500.0, bars[0].Open)
	suite.Equal(1520.0, bars[0].High)
	suite.Equal(1490.0, bars[0].Low)
	suite.Equal(1510.0, bars[0].Close)
	suite.Equal(100000.0, bars[0].Volume)

	symbols, err := suite.ds.Symbols()
	suite.NoError(err)
	suite.Equal([]string{"RELIANCE.NS"}, symbols)
}

func (suite *DuckDBTestSuite) TestInitializeMultipleFilesOrdersByTimeThenSymbol() {
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	msft := suite.writeParquet("msft.parquet", generateTestData("MSFT", 3, start))
	aapl := suite.writeParquet("aapl.parquet", generateTestData("AAPL", 3, start))

	suite.Require().NoError(suite.ds.Initialize(msft, aapl))

	bars := suite.readAll(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Len(bars, 6)

	suite.Equal("AAPL", bars[0].Symbol)
	suite.Equal("MSFT", bars[1].Symbol)

	for i := 2; i < len(bars); i += 2 {
		suite.True(bars[i].Time.After(bars[i-2].Time))
	}

	symbols, err := suite.ds.Symbols()
	suite.NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, symbols)
}

func (suite *DuckDBTestSuite) TestCountAndTimeRange() {
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	data := generateTestData("SPY", 10, start)
	suite.Require().NoError(suite.ds.Initialize(suite.writeParquet("spy.parquet", data)))

	count, err := suite.ds.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(10, count)

	from := optional.Some(data[3].Time)
	to := optional.Some(data[5].Time)

	count, err = suite.ds.Count(from, to)
	suite.NoError(err)
	suite.Equal(3, count)
	suite.Len(suite.readAll(from, to), 3)
}

func (suite *DuckDBTestSuite) TestInitializeErrors() {
	err := suite.ds.Initialize()
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	err = suite.ds.Initialize(filepath.Join(suite.tempDir, "bars.json"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	noTime := suite.writeFile("no_time.csv", "open,high,low,close\n1,2,0.5,1.5\n")
	err = suite.ds.Initialize(noTime)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	noClose := suite.writeFile("no_close.csv", "date,open,high,low\n2020-01-02,1,2,0.5\n")
	err = suite.ds.Initialize(noClose)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	err = suite.ds.Initialize(filepath.Join(suite.tempDir, "missing.csv"))
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *DuckDBTestSuite) TestPreloadIntoIndexedDataSource() {
	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	suite.Require().NoError(suite.ds.Initialize(suite.writeParquet("qqq.parquet", generateTestData("QQQ", 20, start))))

	indexed := NewInMemoryIndexedDataSource(suite.ds)
	suite.Require().NoError(indexed.Preload(optional.None[time.Time](), optional.None[time.Time]()))
	suite.Equal(20, indexed.TotalBars("QQQ"))
}

func (suite *DuckDBTestSuite) TestSymbolFromPath() {
	suite.Equal("RELIANCE.NS", symbolFromPath("/data/stocks/RELIANCE.NS.csv"))
	suite.Equal("AAPL", symbolFromPath("AAPL.parquet"))
}

func (suite *DuckDBTestSuite) TestQuoting() {
	suite.Equal(`"Adj ""Close"""`, quoteIdentifier(`Adj "Close"`))
	suite.Equal(`'it''s.csv'`, quoteLiteral("it's.csv"))
}
