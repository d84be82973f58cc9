package writer

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBWriter buffers bars in an in-memory DuckDB table and exports them as a parquet file
// with the columns the DuckDB data source reads.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	seq        int64
	outputPath string
	logger     *logger.Logger
}

// NewDuckDBWriter creates a writer that exports to outputPath.
func NewDuckDBWriter(outputPath string, log *logger.Logger) MarketDataWriter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBWriter{
		outputPath: outputPath,
		logger:     log,
	}
}

// Initialize opens the database, creates the table and prepares the insert statement
// inside a transaction.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			id TEXT,
			seq BIGINT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (id, seq, time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		w.tx = nil
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	w.seq = 0

	return nil
}

// Write inserts a single bar.
func (w *DuckDBWriter) Write(data types.MarketData) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	w.seq++

	_, err := w.stmt.Exec(
		uuid.New().String(),
		w.seq,
		data.Time,
		data.Symbol,
		data.Open,
		data.High,
		data.Low,
		data.Close,
		data.Volume,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert bar", err)
	}

	return nil
}

// Finalize commits the transaction and exports the bars ordered by time. When a provider
// returned the same (time, symbol) bar more than once the last write wins.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized")
	}

	if w.stmt != nil {
		w.stmt.Close()
		w.stmt = nil
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	if dir := filepath.Dir(w.outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create directory %s", dir)
		}
	}

	query := fmt.Sprintf(`COPY (
		SELECT id, time, symbol, open, high, low, close, volume
		FROM market_data
		QUALIFY ROW_NUMBER() OVER (PARTITION BY time, symbol ORDER BY seq DESC) = 1
		ORDER BY time ASC, symbol ASC
	) TO '%s' (FORMAT PARQUET)`, strings.ReplaceAll(w.outputPath, "'", "''"))

	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to parquet", err)
	}

	w.logger.Info("Exported market data", zap.String("path", w.outputPath), zap.Int64("bars", w.seq))

	return w.outputPath, nil
}

// Close releases the statement, rolls back an unfinished transaction and closes the database.
func (w *DuckDBWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close statement: %w", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to rollback transaction: %w", err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close database: %w", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close writer", stderrors.Join(closeErrors...))
	}

	return nil
}

// GetOutputPath implements MarketDataWriter.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
