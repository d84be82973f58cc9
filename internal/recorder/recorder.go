// Package recorder stores the signal events of a run in DuckDB and exports them.
package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signal/internal/event"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Record is a stored signal together with the event that carried it.
type Record struct {
	ID     uuid.UUID
	Seq    uint64
	Signal types.Signal
}

// SignalRecorder keeps signal events in an in-memory DuckDB table.
type SignalRecorder struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

var signalColumns = []string{"id", "seq", "symbol", "time", "signal_type", "strength", "strategy", "reason"}

func NewSignalRecorder(logger *logger.Logger) (*SignalRecorder, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to connect to database", err)
	}

	r := &SignalRecorder{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := r.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return r, nil
}

// Record stores the SIGNAL events among events and skips the rest.
func (r *SignalRecorder) Record(events ...event.Event) error {
	insert := r.sq.Insert("signals").Columns(signalColumns...)
	rows := 0

	for _, e := range events {
		if e.Type != event.TypeSignal || e.Signal.IsNone() {
			continue
		}

		signal := e.Signal.Unwrap()
		insert = insert.Values(
			e.ID.String(), e.Seq, signal.Symbol, signal.Time, string(signal.Type),
			signal.Strength, signal.Name, signal.Reason,
		)
		rows++
	}

	if rows == 0 {
		return nil
	}

	if _, err := insert.RunWith(r.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to insert signals", err)
	}

	r.logger.Debug("Recorded signals", zap.Int("count", rows))

	return nil
}

// Signals returns every stored signal in publish order.
func (r *SignalRecorder) Signals() ([]Record, error) {
	rows, err := r.sq.Select(signalColumns...).From("signals").OrderBy("seq ASC").RunWith(r.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to query signals", err)
	}
	defer rows.Close()

	var records []Record

	for rows.Next() {
		var (
			record     Record
			id         string
			signalType string
		)

		err := rows.Scan(
			&id,
			&record.Seq,
			&record.Signal.Symbol,
			&record.Signal.Time,
			&signalType,
			&record.Signal.Strength,
			&record.Signal.Name,
			&record.Signal.Reason,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to scan signal", err)
		}

		record.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "invalid signal id", err)
		}

		record.Signal.Type = types.SignalType(signalType)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRecorderFailed, "error iterating signals", err)
	}

	return records, nil
}

// Count returns the number of stored signals.
func (r *SignalRecorder) Count() (int, error) {
	var count int

	err := r.sq.Select("COUNT(*)").From("signals").RunWith(r.db).QueryRow().Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeRecorderFailed, "failed to count signals", err)
	}

	return count, nil
}

// Export writes the signals, in publish order, to path. The format follows the extension:
// .parquet or .csv.
func (r *SignalRecorder) Export(path string) error {
	var format string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		format = "FORMAT PARQUET"
	case ".csv":
		format = "FORMAT CSV, HEADER"
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported export file %s (expected .parquet or .csv)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to create directory", err)
	}

	query := fmt.Sprintf(`COPY (SELECT * FROM signals ORDER BY seq) TO '%s' (%s)`,
		strings.ReplaceAll(path, "'", "''"), format)
	if _, err := r.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to export signals", err)
	}

	r.logger.Info("Exported signals", zap.String("path", path))

	return nil
}

// Reset drops every stored signal.
func (r *SignalRecorder) Reset() error {
	if _, err := r.db.Exec(`DROP TABLE IF EXISTS signals`); err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to drop signals table", err)
	}

	return r.initialize()
}

// Close closes the database connection.
func (r *SignalRecorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}

func (r *SignalRecorder) initialize() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id TEXT PRIMARY KEY,
			seq UBIGINT,
			symbol TEXT,
			time TIMESTAMP,
			signal_type TEXT,
			strength DOUBLE,
			strategy TEXT,
			reason TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRecorderFailed, "failed to create signals table", err)
	}

	return nil
}
