package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

var (
	timeColumns   = []string{"time", "date", "timestamp", "datetime"}
	priceColumns  = []string{"open", "high", "low", "close"}
	barColumnList = []string{"time", "symbol", "open", "high", "low", "close", "volume"}
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a DuckDB data source backed by the database at path (":memory:" for an
// in-memory database). Market data files are attached later with Initialize.
func NewDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to connect to duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource. It (re)creates the market_data view as the union of all
// files. Files without a symbol column take their symbol from the file name.
func (d *DuckDBDataSource) Initialize(paths ...string) error {
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "at least one market data file is required")
	}

	selects := make([]string, 0, len(paths))

	for _, path := range paths {
		d.logger.Debug("Attaching market data file", zap.String("path", path))

		selectSQL, err := d.selectFor(path)
		if err != nil {
			return err
		}

		selects = append(selects, selectSQL)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW support
	query := "CREATE VIEW market_data AS " + strings.Join(selects, " UNION ALL ")
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create market_data view", err)
	}

	return nil
}

// selectFor builds a SELECT that normalizes one file to the market_data columns.
func (d *DuckDBDataSource) selectFor(path string) (string, error) {
	reader, err := tableFunctionFor(path)
	if err != nil {
		return "", err
	}

	rows, err := d.db.Query(fmt.Sprintf("SELECT * FROM %s LIMIT 0", reader))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", path)
	}

	columns, err := rows.Columns()
	rows.Close()

	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read columns of %s", path)
	}

	byName := make(map[string]string, len(columns))
	for _, column := range columns {
		byName[strings.ToLower(strings.TrimSpace(column))] = column
	}

	timeColumn := ""

	for _, candidate := range timeColumns {
		if column, ok := byName[candidate]; ok {
			timeColumn = column

			break
		}
	}

	if timeColumn == "" {
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "%s has no time column (expected one of %v)", path, timeColumns)
	}

	prices := make([]string, 0, len(priceColumns))

	for _, name := range priceColumns {
		column, ok := byName[name]
		if !ok {
			return "", errors.Newf(errors.ErrCodeInvalidParameter, "%s has no %s column", path, name)
		}

		prices = append(prices, fmt.Sprintf("CAST(%s AS DOUBLE) AS %s", quoteIdentifier(column), name))
	}

	volume := "CAST(0 AS DOUBLE) AS volume"
	if column, ok := byName["volume"]; ok {
		volume = fmt.Sprintf("CAST(%s AS DOUBLE) AS volume", quoteIdentifier(column))
	}

	symbol := quoteLiteral(symbolFromPath(path)) + " AS symbol"
	if column, ok := byName["symbol"]; ok {
		symbol = fmt.Sprintf("CAST(%s AS VARCHAR) AS symbol", quoteIdentifier(column))
	}

	return fmt.Sprintf("SELECT CAST(%s AS TIMESTAMP) AS time, %s, %s, %s FROM %s",
		quoteIdentifier(timeColumn), symbol, strings.Join(prices, ", "), volume, reader), nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := withTimeRange(d.sq.Select("COUNT(*)").From("market_data"), start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		query, args, err := withTimeRange(d.sq.Select(barColumnList...).From("market_data"), start, end).
			OrderBy("time ASC", "symbol ASC").
			ToSql()
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build read query", err))

			return
		}

		d.logger.Debug("Reading all bars from DuckDB", zap.String("query", query))

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			var bar types.MarketData

			err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume)
			if err != nil {
				yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err))

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating bars", err))
		}
	}
}

// Symbols implements DataSource.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	query, args, err := d.sq.Select("symbol").Distinct().From("market_data").OrderBy("symbol ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build symbols query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	if d.db == nil {
		return nil
	}

	return d.db.Close()
}

func withTimeRange(q squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		q = q.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		q = q.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return q
}

func tableFunctionFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return fmt.Sprintf("read_parquet(%s)", quoteLiteral(path)), nil
	case ".csv":
		return fmt.Sprintf("read_csv_auto(%s)", quoteLiteral(path)), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported market data file %s (expected .csv or .parquet)", path)
	}
}

// symbolFromPath maps data/RELIANCE.NS.csv to RELIANCE.NS.
func symbolFromPath(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
