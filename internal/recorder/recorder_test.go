package recorder

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/event"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SignalRecorderTestSuite struct {
	suite.Suite
	recorder *SignalRecorder
	queue    *event.Queue
	tempDir  string
}

func TestSignalRecorderSuite(t *testing.T) {
	suite.Run(t, new(SignalRecorderTestSuite))
}

func (suite *SignalRecorderTestSuite) SetupTest() {
	r, err := NewSignalRecorder(logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.recorder = r
	suite.queue = event.NewQueue()
	suite.tempDir = suite.T().TempDir()
}

func (suite *SignalRecorderTestSuite) TearDownTest() {
	if suite.recorder != nil {
		suite.recorder.Close()
	}
}

var t1 = time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)

// publish runs events through a queue so that they carry sequence numbers.
func (suite *SignalRecorderTestSuite) publish(events ...event.Event) []event.Event {
	suite.Require().NoError(suite.queue.Publish(events...))

	return suite.queue.Drain()
}

func (suite *SignalRecorderTestSuite) sampleEvents() []event.Event {
	return suite.publish(
		event.NewMarketEvent(types.MarketData{Symbol: "AAPL", Time: t1, Close: 10}),
		event.NewSignalEvent(types.Signal{Symbol: "AAPL", Time: t1, Type: types.SignalTypeLong, Strength: 1, Name: "sma", Reason: "cross, up"}),
		event.NewSignalEvent(types.Signal{Symbol: "AAPL", Time: t1, Type: types.SignalTypeExit, Strength: 0.5, Name: "mr", Reason: "back"}),
	)
}

func (suite *SignalRecorderTestSuite) TestRecordOnlyKeepsSignals() {
	events := suite.sampleEvents()
	suite.Require().NoError(suite.recorder.Record(events...))

	count, err := suite.recorder.Count()
	suite.NoError(err)
	suite.Equal(2, count)

	records, err := suite.recorder.Signals()
	suite.Require().NoError(err)
	suite.Require().Len(records, 2)

	suite.Equal(events[1].ID, records[0].ID)
	suite.Equal(uint64(2), records[0].Seq)
	suite.Equal(types.SignalTypeLong, records[0].Signal.Type)
	suite.Equal("sma", records[0].Signal.Name)
	suite.Equal("cross, up", records[0].Signal.Reason)
	suite.True(records[0].Signal.Time.Equal(t1))

	suite.Equal(uint64(3), records[1].Seq)
	suite.Equal(0.5, records[1].Signal.Strength)
}

func (suite *SignalRecorderTestSuite) TestSignalsAreOrderedBySeq() {
	events := suite.sampleEvents()

	suite.Require().NoError(suite.recorder.Record(events[2]))
	suite.Require().NoError(suite.recorder.Record(events[1]))

	records, err := suite.recorder.Signals()
	suite.Require().NoError(err)
	suite.Equal(uint64(2), records[0].Seq)
	suite.Equal(uint64(3), records[1].Seq)
}

func (suite *SignalRecorderTestSuite) TestRecordNothing() {
	suite.NoError(suite.recorder.Record())
	suite.NoError(suite.recorder.Record(suite.publish(event.NewMarketEvent(types.MarketData{Symbol: "AAPL", Time: t1}))...))

	records, err := suite.recorder.Signals()
	suite.NoError(err)
	suite.Empty(records)
}

func (suite *SignalRecorderTestSuite) TestDuplicateEventFails() {
	events := suite.sampleEvents()
	suite.Require().NoError(suite.recorder.Record(events[1]))

	err := suite.recorder.Record(events[1])
	suite.True(errors.HasCode(err, errors.ErrCodeRecorderFailed))
}

func (suite *SignalRecorderTestSuite) TestExportParquet() {
	suite.Require().NoError(suite.recorder.Record(suite.sampleEvents()...))

	path := filepath.Join(suite.tempDir, "results", "signals.parquet")
	suite.Require().NoError(suite.recorder.Export(path))
	suite.FileExists(path)

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	var count int
	suite.Require().NoError(db.QueryRow(`SELECT COUNT(*) FROM read_parquet('` + path + `')`).Scan(&count))
	suite.Equal(2, count)
}

func (suite *SignalRecorderTestSuite) TestExportCSV() {
	suite.Require().NoError(suite.recorder.Record(suite.sampleEvents()...))

	path := filepath.Join(suite.tempDir, "signals.csv")
	suite.Require().NoError(suite.recorder.Export(path))

	content, err := os.ReadFile(path)
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	suite.Require().Len(lines, 3)
	suite.Equal("id,seq,symbol,time,signal_type,strength,strategy,reason", lines[0])
	suite.Contains(lines[1], "long")
	suite.Contains(lines[2], "exit")
}

func (suite *SignalRecorderTestSuite) TestExportUnsupportedExtension() {
	err := suite.recorder.Export(filepath.Join(suite.tempDir, "signals.json"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *SignalRecorderTestSuite) TestReset() {
	suite.Require().NoError(suite.recorder.Record(suite.sampleEvents()...))
	suite.Require().NoError(suite.recorder.Reset())

	count, err := suite.recorder.Count()
	suite.NoError(err)
	suite.Equal(0, count)
}
