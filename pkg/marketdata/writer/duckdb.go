package writer

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/multierr"
)

// DuckDBWriter buffers candles in an in-memory DuckDB table and exports them to a
// parquet file on Finalize. Candles written twice for the same open time are kept once.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
}

// NewDuckDBWriter creates a writer exporting to the parquet file at outputPath.
func NewDuckDBWriter(outputPath string) MarketDataWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
	}
}

// Initialize opens the database, creates the table and prepares the insert inside a
// transaction.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			symbol TEXT,
			open_time TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (symbol, open_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	return nil
}

// Write inserts one candle within the open transaction.
func (w *DuckDBWriter) Write(symbol string, candle types.Candle) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or statement is nil")
	}

	_, err := w.stmt.Exec(
		symbol,
		candle.OpenTime.UTC(),
		candle.Open,
		candle.High,
		candle.Low,
		candle.Close,
		candle.Volume,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert candle", err)
	}

	return nil
}

// Finalize commits the transaction and exports the candles ordered by open time.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	_, err = w.db.Exec(fmt.Sprintf(`
		COPY (
			SELECT DISTINCT ON (symbol, open_time) symbol, open_time, open, high, low, close, volume
			FROM market_data
			ORDER BY symbol, open_time
		) TO '%s' (FORMAT PARQUET)
	`, w.outputPath))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to export %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close releases the statement, rolls back an unfinished transaction and closes the
// database.
func (w *DuckDBWriter) Close() error {
	var err error

	if w.stmt != nil {
		err = multierr.Append(err, w.stmt.Close())
		w.stmt = nil
	}

	if w.tx != nil {
		err = multierr.Append(err, w.tx.Rollback())
		w.tx = nil
	}

	if w.db != nil {
		err = multierr.Append(err, w.db.Close())
		w.db = nil
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "errors occurred during close", err)
	}

	return nil
}

// GetOutputPath implements MarketDataWriter.
func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
