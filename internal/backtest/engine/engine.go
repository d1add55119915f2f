package engine

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-crossover/internal/indicator"
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/strategy"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called once the data is loaded, before the first candle.
// runID names the results folder of this run.
type OnBacktestStartCallback func(runID string, symbol string, totalCandles int) error

// OnBacktestEndCallback is called when the backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnProcessDataCallback is called for each candle processed.
type OnProcessDataCallback func(current int, total int) error

// OnPositionOpenedCallback is called after an entry was filled.
type OnPositionOpenedCallback func(pos types.Position) error

// OnPositionClosedCallback is called for every booked exit, partial or final.
type OnPositionClosedCallback func(entry types.TradeLogEntry) error

// OnResultsWrittenCallback is called after the artifacts of the run were written.
type OnResultsWrittenCallback func(result Result)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart  *OnBacktestStartCallback
	OnBacktestEnd    *OnBacktestEndCallback
	OnProcessData    *OnProcessDataCallback
	OnPositionOpened *OnPositionOpenedCallback
	OnPositionClosed *OnPositionClosedCallback
	OnResultsWritten *OnResultsWrittenCallback
}

// BacktestEngineConfig holds the configuration of one backtest run.
type BacktestEngineConfig struct {
	Symbol string `json:"symbol" yaml:"symbol" jsonschema:"description=Futures symbol to replay,default=BTCUSDT" validate:"required"`
	// Interval is the candle timeframe of the data file, e.g. 15m.
	Interval       string  `json:"interval" yaml:"interval" jsonschema:"description=Candle timeframe,default=15m" validate:"required"`
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance" jsonschema:"description=Simulated starting balance,default=10000" validate:"gt=0"`

	// StartTime and EndTime bound the replay. They come from the command line.
	StartTime optional.Option[time.Time] `json:"-" yaml:"-"`
	EndTime   optional.Option[time.Time] `json:"-" yaml:"-"`

	Indicators indicator.Config `json:"indicators" yaml:"indicators"`
	Risk       risk.Config      `json:"risk" yaml:"risk"`
}

// Range returns the candles of the configured symbol within the configured bounds.
func (c BacktestEngineConfig) Range() datasource.Range {
	return datasource.Range{Symbol: c.Symbol, Start: c.StartTime, End: c.EndTime}
}

// Result describes a finished run.
type Result struct {
	RunID        string
	ResultFolder string
	Stats        types.TradingStats
	Trades       []types.TradeLogEntry
	Equity       []types.EquityPoint
}

// GetConfigSchema returns the JSON schema for BacktestEngineConfig.
func GetConfigSchema() (string, error) {
	return strategy.ToJSONSchema(&BacktestEngineConfig{}) //nolint:exhaustruct // Empty config for schema generation
}

type Engine interface {
	// Initialize validates the configuration.
	Initialize(config BacktestEngineConfig) error
	// SetDataPath sets the parquet file with the candles to replay.
	SetDataPath(path string) error
	// SetResultsFolder sets the output directory. Each run writes to <folder>/<run id>.
	SetResultsFolder(folder string) error
	// SetDataSource sets the data source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// Run replays the data and writes the artifacts.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (Result, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
