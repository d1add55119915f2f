// Package ledger persists the trade log and the equity curve through an in-memory DuckDB
// database that is exported to parquet after every write.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

var tradeColumns = []string{
	"position_id", "symbol", "side", "entry_price", "exit_price", "size",
	"fraction", "pnl", "opened_at", "closed_at", "reason", "final",
}

// TradesWriter records one row per reducing fill.
type TradesWriter struct {
	db         *sql.DB
	sq         squirrel.StatementBuilderType
	outputPath string
	mu         sync.Mutex
}

// NewTradesWriter creates a new TradesWriter.
// outputPath is the full path to the parquet file.
func NewTradesWriter(outputPath string) *TradesWriter {
	return &TradesWriter{
		db:         nil,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		outputPath: outputPath,
		mu:         sync.Mutex{},
	}
}

// Initialize opens the database and reloads an existing parquet file so a restarted
// session keeps appending to the same log.
//
//nolint:dupl // EquityWriter shares the setup but not the schema
func (w *TradesWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.outputPath), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to create ledger directory", err)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			position_id TEXT,
			symbol TEXT,
			side TEXT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			size DOUBLE,
			fraction DOUBLE,
			pnl DOUBLE,
			opened_at TIMESTAMP,
			closed_at TIMESTAMP,
			reason TEXT,
			final BOOLEAN
		)
	`)
	if err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to create trades table", err)
	}

	if _, statErr := os.Stat(w.outputPath); statErr == nil {
		_, err = db.Exec(fmt.Sprintf(`INSERT INTO trades SELECT * FROM read_parquet('%s')`, w.outputPath))
		if err != nil {
			db.Close()

			return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to reload %s", w.outputPath)
		}
	}

	w.db = db

	return nil
}

// Write inserts an entry and exports the table to parquet.
func (w *TradesWriter) Write(entry types.TradeLogEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeLedgerWriteFailed, "trades writer not initialized")
	}

	query, args, err := w.sq.
		Insert("trades").
		Columns(tradeColumns...).
		Values(
			entry.PositionID, entry.Symbol, string(entry.Side), entry.EntryPrice, entry.ExitPrice, entry.Size,
			entry.Fraction, entry.PnL, entry.OpenedAt.UTC(), entry.ClosedAt.UTC(), string(entry.Reason), entry.Final,
		).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to build insert query", err)
	}

	if _, err := w.db.Exec(query, args...); err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to insert trade for position %s", entry.PositionID)
	}

	return w.exportLocked()
}

// Flush forces an export to parquet.
func (w *TradesWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeLedgerWriteFailed, "trades writer not initialized")
	}

	return w.exportLocked()
}

// ExportCSV writes the trade log as a CSV file with a header row.
func (w *TradesWriter) ExportCSV(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeLedgerWriteFailed, "trades writer not initialized")
	}

	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM trades ORDER BY closed_at ASC, rowid ASC)
		TO '%s' (FORMAT CSV, HEADER)
	`, path))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to export trades to %s", path)
	}

	return nil
}

// Entries returns the stored log ordered by close time. Insertion order breaks ties,
// so a TP1 and a stop on the same candle keep their sequence.
func (w *TradesWriter) Entries() ([]types.TradeLogEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return nil, errors.New(errors.ErrCodeLedgerWriteFailed, "trades writer not initialized")
	}

	query, args, err := w.sq.
		Select(tradeColumns...).
		From("trades").
		OrderBy("closed_at ASC", "rowid ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build select query", err)
	}

	rows, err := w.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var entries []types.TradeLogEntry

	for rows.Next() {
		var (
			entry            types.TradeLogEntry
			side, reason     string
			openedAt, closed time.Time
		)

		err := rows.Scan(
			&entry.PositionID, &entry.Symbol, &side, &entry.EntryPrice, &entry.ExitPrice, &entry.Size,
			&entry.Fraction, &entry.PnL, &openedAt, &closed, &reason, &entry.Final,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade row", err)
		}

		entry.Side = types.Side(side)
		entry.Reason = types.ExitReason(reason)
		entry.OpenedAt = openedAt.UTC()
		entry.ClosedAt = closed.UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trade rows", err)
	}

	return entries, nil
}

// GetOutputPath returns the parquet file path.
func (w *TradesWriter) GetOutputPath() string {
	return w.outputPath
}

// Close releases database resources.
func (w *TradesWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return nil
	}

	err := w.db.Close()
	w.db = nil

	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to close database", err)
	}

	return nil
}

// Count returns the number of stored entries.
func (w *TradesWriter) Count() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, errors.New(errors.ErrCodeLedgerWriteFailed, "trades writer not initialized")
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM trades").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}

	return count, nil
}

// TotalPnL returns the sum of realized pnl over all entries.
func (w *TradesWriter) TotalPnL() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, errors.New(errors.ErrCodeLedgerWriteFailed, "trades writer not initialized")
	}

	var total sql.NullFloat64
	if err := w.db.QueryRow("SELECT SUM(pnl) FROM trades").Scan(&total); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum pnl", err)
	}

	if !total.Valid {
		return 0, nil
	}

	return total.Float64, nil
}

func (w *TradesWriter) exportLocked() error {
	_, err := w.db.Exec(fmt.Sprintf(`
		COPY (SELECT * FROM trades ORDER BY closed_at ASC, rowid ASC)
		TO '%s' (FORMAT PARQUET)
	`, w.outputPath))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to export trades to %s", w.outputPath)
	}

	return nil
}
