package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/indicator"
	"github.com/rxtech-lab/argo-crossover/internal/notify"
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	tradingprovider "github.com/rxtech-lab/argo-crossover/internal/trading/provider"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/strategy"
)

// Lifecycle callback types for live trading phases.
// All callbacks with error return can abort execution if they return an error.

// OnEngineStartCallback is called once the engine has warmed up and reconciled.
type OnEngineStartCallback func(symbol string, interval string, runPath string) error

// OnEngineStopCallback is called when the engine stops (always called via defer).
type OnEngineStopCallback func(err error)

// OnTickCallback is called after every successful poll that evaluated new completed candles.
type OnTickCallback func(tick TickResult) error

// OnPositionOpenedCallback is called after an entry was filled and booked.
type OnPositionOpenedCallback func(pos types.Position) error

// OnPositionClosedCallback is called for every booked exit, partial or final.
type OnPositionClosedCallback func(entry types.TradeLogEntry) error

// OnErrorCallback is called when a non-fatal error occurs.
type OnErrorCallback func(err error)

// OnStatsUpdateCallback is called when trading statistics are updated.
type OnStatsUpdateCallback func(stats types.TradingStats) error

// LiveTradingCallbacks holds all lifecycle callback functions for the live trading engine.
// All fields are pointers - nil means no callback will be invoked.
type LiveTradingCallbacks struct {
	OnEngineStart *OnEngineStartCallback
	OnEngineStop  *OnEngineStopCallback

	// OnTick is called once per poll with the candles that were new on it.
	OnTick *OnTickCallback

	OnPositionOpened *OnPositionOpenedCallback
	OnPositionClosed *OnPositionClosedCallback

	// OnError is called for external failures that the loop survives.
	OnError *OnErrorCallback

	OnStatsUpdate *OnStatsUpdateCallback
}

// TickResult describes one poll of the live loop.
type TickResult struct {
	Time time.Time
	// Candles are the completed candles evaluated on this tick, oldest first.
	Candles []types.Candle
	// Resynced is true when the history was rebuilt because the previous candle fell
	// out of the fetched window.
	Resynced bool
	// Reconciled lists what the exchange reconciliation changed.
	Adopted []types.Position
	Closed  []types.TradeLogEntry
	State   types.PositionState
}

// LiveTradingEngineConfig holds the configuration for the live trading engine.
type LiveTradingEngineConfig struct {
	Symbol string `json:"symbol" yaml:"symbol" jsonschema:"description=Futures symbol to trade,default=BTCUSDT" validate:"required"`
	// Interval is the candle timeframe, e.g. 15m.
	Interval string `json:"interval" yaml:"interval" jsonschema:"description=Candle timeframe,default=15m" validate:"required"`
	// PollInterval is the sleep between ticks.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" jsonschema:"description=Time between polls,default=60s" validate:"gt=0"`
	// CandleLimit is how many candles each poll fetches. It must cover the indicator lookback.
	CandleLimit int    `json:"candle_limit" yaml:"candle_limit" jsonschema:"description=Candles fetched per poll,default=200" validate:"gt=1"`
	QuoteAsset  string `json:"quote_asset" yaml:"quote_asset" jsonschema:"description=Margin asset used for sizing,default=USDT" validate:"required"`
	Leverage    int    `json:"leverage" yaml:"leverage" jsonschema:"description=Leverage set before every entry,default=1" validate:"gte=1,lte=125"`
	// DataOutputPath is the base folder of session artifacts. Empty disables persistence.
	DataOutputPath string `json:"data_output_path" yaml:"data_output_path" jsonschema:"description=Folder for session trades and stats"`

	Indicators indicator.Config `json:"indicators" yaml:"indicators"`
	Risk       risk.Config      `json:"risk" yaml:"risk"`
}

// GetConfigSchema returns the JSON schema for LiveTradingEngineConfig.
func GetConfigSchema() (string, error) {
	return strategy.ToJSONSchema(&LiveTradingEngineConfig{}) //nolint:exhaustruct // Empty config for schema generation
}

// LiveTradingEngine runs the crossover strategy against an exchange.
type LiveTradingEngine interface {
	// Initialize validates the configuration and prepares the session folder.
	Initialize(config LiveTradingEngineConfig) error

	// SetTradingProvider configures the exchange used for candles, balance and orders.
	SetTradingProvider(provider tradingprovider.TradingSystemProvider) error

	// SetNotifier configures where opens, closes and errors are reported.
	SetNotifier(notifier notify.Notifier) error

	// Run starts the polling loop.
	// Blocks until context is cancelled or a fatal error occurs.
	Run(ctx context.Context, callbacks LiveTradingCallbacks) error

	// GetConfigSchema returns the JSON schema for engine configuration.
	GetConfigSchema() (string, error)
}
