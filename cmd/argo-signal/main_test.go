package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
	tempDir string
	out     *bytes.Buffer
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (suite *CLITestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.out = &bytes.Buffer{}
}

func (suite *CLITestSuite) run(args ...string) error {
	app := newApp()
	app.Writer = suite.out

	return app.Run(context.Background(), append([]string{"argo-signal"}, args...))
}

func (suite *CLITestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.tempDir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (suite *CLITestSuite) TestVersion() {
	suite.Require().NoError(suite.run("version"))
	suite.Equal(version.GetVersion()+"\n", suite.out.String())
}

func (suite *CLITestSuite) TestSchemaList() {
	suite.Require().NoError(suite.run("schema", "--list"))
	suite.Contains(suite.out.String(), "sma_crossover\n")
	suite.Contains(suite.out.String(), "buy_and_hold\n")
}

func (suite *CLITestSuite) TestSchemaForStrategy() {
	suite.Require().NoError(suite.run("schema", "--strategy", "sma_crossover"))
	suite.Contains(suite.out.String(), "short_period")
}

func (suite *CLITestSuite) TestSchemaForRunConfig() {
	suite.Require().NoError(suite.run("schema"))
	suite.Contains(suite.out.String(), "engine_version")
}

func (suite *CLITestSuite) TestSchemaUnknownStrategy() {
	err := suite.run("schema", "--strategy", "martingale")
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedStrategy))
}

func (suite *CLITestSuite) TestRun() {
	suite.writeFile("AAPL.csv", "Date,Open,High,Low,Close,Volume\n"+
		"2024-01-02,10,12,9,11,100\n"+
		"2024-01-03,11,12,9,10,100\n")
	configPath := suite.writeFile("run.yaml", `engine_version: v1.0.0
log_level: error
data:
  paths: ["*.csv"]
strategies:
  - name: close_above_open
    symbols: [AAPL]
results:
  path: `+filepath.Join(suite.tempDir, "signals.parquet")+`
`)

	suite.Require().NoError(suite.run("run", "--config", configPath))
	suite.Contains(suite.out.String(), "2 bars, 1 signals from 1 instances")
	suite.FileExists(filepath.Join(suite.tempDir, "signals.parquet"))
}

func (suite *CLITestSuite) TestRunMissingConfig() {
	err := suite.run("run", "--config", filepath.Join(suite.tempDir, "missing.yaml"))
	suite.Error(err)
}

func (suite *CLITestSuite) TestDownloadRejectsUnknownTimespan() {
	err := suite.run("download", "--ticker", "AAPL", "--start", "2024-01-01", "--timespan", "7s")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimespan))
}

func (suite *CLITestSuite) TestDownloadRejectsUnknownProvider() {
	err := suite.run("download", "--ticker", "AAPL", "--start", "2024-01-01", "--provider", "yahoo")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}
