package datasource

import (
	"database/sql"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/zap"
)

// batchSize bounds how many scanned rows are held before they are yielded.
const batchSize = 1000

// DuckDBDataSource reads candles from a parquet file through an in-memory DuckDB view.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDataSource creates a DuckDB data source. Initialize must be called before reading.
func NewDataSource(logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	// squirrel cannot build CREATE VIEW and read_parquet does not take a bound path
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT symbol, open_time, open, high, low, close, volume
		FROM read_parquet('%s');
	`, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to load candles from %s", path)
	}

	return nil
}

func (d *DuckDBDataSource) where(builder squirrel.SelectBuilder, r Range) squirrel.SelectBuilder {
	if r.Symbol != "" {
		builder = builder.Where(squirrel.Eq{"symbol": r.Symbol})
	}

	if r.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"open_time": r.Start.Unwrap().UTC()})
	}

	if r.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"open_time": r.End.Unwrap().UTC()})
	}

	return builder
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(r Range) (int, error) {
	query, args, err := d.where(d.sq.Select("COUNT(*)").From("market_data"), r).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count candles", err)
	}

	return count, nil
}

// ReadAll implements DataSource. Rows are scanned in batches and yielded in order.
func (d *DuckDBDataSource) ReadAll(r Range) iter.Seq2[types.Candle, error] {
	return func(yield func(types.Candle, error) bool) {
		d.logger.Debug("Reading candles from DuckDB", zap.String("symbol", r.Symbol))

		query, args, err := d.where(
			d.sq.Select("open_time", "open", "high", "low", "close", "volume").From("market_data"), r).
			OrderBy("open_time ASC").
			ToSql()
		if err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query candles", err))

			return
		}
		defer rows.Close()

		batch := make([]types.Candle, 0, batchSize)

		flush := func() bool {
			for _, c := range batch {
				if !yield(c, nil) {
					return false
				}
			}

			batch = batch[:0]

			return true
		}

		for rows.Next() {
			var (
				c        types.Candle
				openTime time.Time
			)

			if err := rows.Scan(&openTime, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
				yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan candle", err))

				return
			}

			c.OpenTime = openTime.UTC()
			batch = append(batch, c)

			if len(batch) >= batchSize && !flush() {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Candle{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating candles", err))

			return
		}

		flush()
	}
}

// GetAllSymbols returns all distinct symbols from the market data.
func (d *DuckDBDataSource) GetAllSymbols() ([]string, error) {
	rows, err := d.db.Query("SELECT DISTINCT symbol FROM market_data ORDER BY symbol")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to get symbols", err)
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

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating symbols", err)
	}

	return symbols, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

var _ DataSource = (*DuckDBDataSource)(nil)
