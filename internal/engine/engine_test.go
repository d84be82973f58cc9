package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/strategy/builtin"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SignalEngineTestSuite struct {
	suite.Suite
	tempDir string
}

func TestSignalEngineSuite(t *testing.T) {
	suite.Run(t, new(SignalEngineTestSuite))
}

func (suite *SignalEngineTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()

	// AAPL closes above its open on the 2nd and 4th, MSFT on the 3rd.
	suite.writeFile("AAPL.csv", "Date,Open,High,Low,Close,Volume\n"+
		"2024-01-02,10,12,9,11,100\n"+
		"2024-01-03,11,12,9,10,100\n"+
		"2024-01-04,10,13,9,12,100\n")
	suite.writeFile("MSFT.csv", "Date,Open,High,Low,Close,Volume\n"+
		"2024-01-02,20,21,19,19,100\n"+
		"2024-01-03,19,22,18,21,100\n"+
		"2024-01-04,21,22,18,20,100\n")
}

func (suite *SignalEngineTestSuite) writeFile(name, content string) {
	suite.Require().NoError(os.WriteFile(filepath.Join(suite.tempDir, name), []byte(content), 0o644))
}

func (suite *SignalEngineTestSuite) runConfig(strategies ...config.StrategyConfig) *config.RunConfig {
	return &config.RunConfig{
		EngineVersion: "v1.0.0",
		LogLevel:      config.DefaultLogLevel,
		Data: config.DataConfig{
			Paths: []string{
				filepath.Join(suite.tempDir, "AAPL.csv"),
				filepath.Join(suite.tempDir, "MSFT.csv"),
			},
		},
		Strategies: strategies,
		Results:    config.ResultsConfig{Path: filepath.Join(suite.tempDir, "out", "signals.csv")},
	}
}

func (suite *SignalEngineTestSuite) run(cfg *config.RunConfig) (Summary, error) {
	engine, err := NewSignalEngine(cfg, builtin.NewRegistry(), nil)
	suite.Require().NoError(err)

	return engine.Run(context.Background(), optional.None[OnProgress]())
}

func (suite *SignalEngineTestSuite) exportedRows(path string) [][2]string {
	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(`SELECT symbol, strategy FROM read_csv_auto('%s') ORDER BY seq`, path))
	suite.Require().NoError(err)
	defer rows.Close()

	var out [][2]string

	for rows.Next() {
		var row [2]string
		suite.Require().NoError(rows.Scan(&row[0], &row[1]))
		out = append(out, row)
	}

	return out
}

func (suite *SignalEngineTestSuite) TestRunRecordsSignals() {
	cfg := suite.runConfig(config.StrategyConfig{Name: builtin.CloseAboveOpenName, Symbols: []string{"AAPL", "MSFT"}})

	var calls []int

	engine, err := NewSignalEngine(cfg, builtin.NewRegistry(), nil)
	suite.Require().NoError(err)

	summary, err := engine.Run(context.Background(), optional.Some[OnProgress](func(processed, total int) {
		suite.Equal(6, total)
		calls = append(calls, processed)
	}))
	suite.Require().NoError(err)

	suite.Equal(6, summary.Bars)
	suite.Equal(3, summary.Signals)
	suite.Equal(2, summary.Instances)
	suite.Equal([]string{"AAPL", "MSFT"}, summary.Symbols)
	suite.Equal([]int{1, 2, 3, 4, 5, 6}, calls)

	rows := suite.exportedRows(summary.ResultsPath)
	suite.Equal([][2]string{
		{"AAPL", builtin.CloseAboveOpenName},
		{"MSFT", builtin.CloseAboveOpenName},
		{"AAPL", builtin.CloseAboveOpenName},
	}, rows)
}

func (suite *SignalEngineTestSuite) TestRunIsDeterministic() {
	cfg := suite.runConfig(
		config.StrategyConfig{Name: builtin.BuyAndHoldName, Symbols: []string{"AAPL", "MSFT"}},
		config.StrategyConfig{Name: builtin.CloseAboveOpenName, Symbols: []string{"MSFT"}},
	)

	first, err := suite.run(cfg)
	suite.Require().NoError(err)
	firstRows := suite.exportedRows(first.ResultsPath)

	second, err := suite.run(cfg)
	suite.Require().NoError(err)

	suite.Equal(first.Signals, second.Signals)
	suite.Equal(firstRows, suite.exportedRows(second.ResultsPath))
}

func (suite *SignalEngineTestSuite) TestRunWithoutStrategies() {
	_, err := suite.run(suite.runConfig())
	suite.True(errors.HasCode(err, errors.ErrCodeRunNoStrategies))
}

func (suite *SignalEngineTestSuite) TestRunRejectsEmptySymbol() {
	cfg := suite.runConfig(config.StrategyConfig{Name: builtin.CloseAboveOpenName, Symbols: []string{""}})

	_, err := suite.run(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidBinding))

	var bindingErr *errors.BindingError
	suite.Require().True(errors.As(err, &bindingErr))
	suite.Equal(builtin.CloseAboveOpenName, bindingErr.Strategy)
	suite.Equal("", bindingErr.Symbol)
	suite.NoFileExists(cfg.Results.Path)
}

func (suite *SignalEngineTestSuite) TestRunRejectsUnservedSymbol() {
	cfg := suite.runConfig(config.StrategyConfig{Name: builtin.CloseAboveOpenName, Symbols: []string{"TSLA"}})

	_, err := suite.run(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidBinding))
}

func (suite *SignalEngineTestSuite) TestRunRejectsUnknownStrategy() {
	cfg := suite.runConfig(config.StrategyConfig{Name: "martingale", Symbols: []string{"AAPL"}})

	_, err := suite.run(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedStrategy))
}

func (suite *SignalEngineTestSuite) TestRunRejectsInvalidStrategyConfig() {
	cfg := suite.runConfig(config.StrategyConfig{
		Name:    builtin.SMACrossoverName,
		Symbols: []string{"AAPL"},
		Config:  map[string]any{"short_period": 20, "long_period": 5},
	})

	_, err := suite.run(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *SignalEngineTestSuite) TestRunRejectsNonFiniteBars() {
	suite.writeFile("NVDA.csv", "Date,Open,High,Low,Close,Volume\n"+
		"2024-01-02,10,12,9,11,100\n"+
		"2024-01-03,11,12,9,NaN,100\n"+
		"2024-01-04,10,13,9,12,100\n")

	cfg := suite.runConfig(config.StrategyConfig{
		Name:    builtin.SMACrossoverName,
		Symbols: []string{"NVDA"},
		Config:  map[string]any{"short_period": 1, "long_period": 2},
	})
	cfg.Data.Paths = []string{filepath.Join(suite.tempDir, "NVDA.csv")}

	var err error

	suite.NotPanics(func() {
		_, err = suite.run(cfg)
	})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
	suite.NoFileExists(cfg.Results.Path)
}

func (suite *SignalEngineTestSuite) TestRunCancelled() {
	cfg := suite.runConfig(config.StrategyConfig{Name: builtin.CloseAboveOpenName, Symbols: []string{"AAPL"}})

	engine, err := NewSignalEngine(cfg, builtin.NewRegistry(), nil)
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Run(ctx, optional.None[OnProgress]())
	suite.ErrorIs(err, context.Canceled)
}

func (suite *SignalEngineTestSuite) TestNewSignalEngineValidation() {
	_, err := NewSignalEngine(nil, builtin.NewRegistry(), nil)
	suite.True(errors.HasCode(err, errors.ErrCodeRunInitFailed))

	_, err = NewSignalEngine(suite.runConfig(), nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeRunInitFailed))
}
