package datasource

import (
	"iter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// Range selects the candles a read covers. An empty Symbol matches every symbol and a
// missing bound leaves that side open.
type Range struct {
	Symbol string
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
}

type DataSource interface {
	// Initialize points the data source at a parquet file of candles
	Initialize(path string) error
	// ReadAll yields the candles of the range in ascending open time
	ReadAll(r Range) iter.Seq2[types.Candle, error]
	// Count returns the number of candles in the range
	Count(r Range) (int, error)
	// GetAllSymbols returns the distinct symbols in the file
	GetAllSymbols() ([]string, error)
	// Close closes the data source and releases any resources
	Close() error
}
