package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// EquityWriter stores one equity mark per candle. Rows are buffered in DuckDB and only
// exported when Export is called, since a backtest marks every candle.
type EquityWriter struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
	mu sync.Mutex
}

// NewEquityWriter creates a new EquityWriter.
func NewEquityWriter() *EquityWriter {
	return &EquityWriter{
		db: nil,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		mu: sync.Mutex{},
	}
}

// Initialize sets up the equity table.
func (w *EquityWriter) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to open DuckDB connection", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS equity (time TIMESTAMP, equity DOUBLE)`); err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to create equity table", err)
	}

	w.db = db

	return nil
}

// Write appends one equity mark.
func (w *EquityWriter) Write(point types.EquityPoint) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeLedgerWriteFailed, "equity writer not initialized")
	}

	query, args, err := w.sq.
		Insert("equity").
		Columns("time", "equity").
		Values(point.Time.UTC(), point.Equity).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to build insert query", err)
	}

	if _, err := w.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to insert equity point", err)
	}

	return nil
}

// Export writes the curve to path. The format follows the file extension:
// .parquet writes parquet, anything else writes CSV with a header.
func (w *EquityWriter) Export(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return errors.New(errors.ErrCodeLedgerWriteFailed, "equity writer not initialized")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWriteFailed, "failed to create output directory", err)
	}

	format := "FORMAT CSV, HEADER"
	if filepath.Ext(path) == ".parquet" {
		format = "FORMAT PARQUET"
	}

	_, err := w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM equity ORDER BY time ASC, rowid ASC) TO '%s' (%s)`, path, format))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLedgerWriteFailed, err, "failed to export equity curve to %s", path)
	}

	return nil
}

// Count returns the number of stored marks.
func (w *EquityWriter) Count() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.db == nil {
		return 0, errors.New(errors.ErrCodeLedgerWriteFailed, "equity writer not initialized")
	}

	var count int
	if err := w.db.QueryRow("SELECT COUNT(*) FROM equity").Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count equity points", err)
	}

	return count, nil
}

// Close releases database resources.
func (w *EquityWriter) Close() error {
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
