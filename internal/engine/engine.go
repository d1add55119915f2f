// Package engine runs the per-candle decision pipeline shared by the backtest and the live
// driver. Drivers differ only in the CandleSource that feeds candles and the FillExecutor
// that turns order intents into fills.
package engine

import (
	"context"
	"iter"

	"github.com/rxtech-lab/argo-crossover/internal/strategy"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// CandleSource yields completed candles in ascending open time.
// A replay ends when the data ends; a live source ends when its context is cancelled.
type CandleSource interface {
	Candles(ctx context.Context) iter.Seq2[types.Candle, error]
}

// FillExecutor applies order intents to a market, simulated or real.
type FillExecutor interface {
	// Balance is the account balance used to size new positions.
	Balance(ctx context.Context) (float64, error)
	// Execute sends the intent and returns the fill. A zero fill price or size means
	// "as requested".
	Execute(ctx context.Context, intent types.OrderIntent) (types.Fill, error)
}

// OnCandleCallback is called after every candle, including warm-up candles.
type OnCandleCallback func(c types.Candle, snapshot types.IndicatorSnapshot, ready bool) error

// OnDecisionCallback is called for every evaluated candle.
type OnDecisionCallback func(d strategy.Decision) error

// OnPositionOpenedCallback is called after an open intent was filled and booked.
type OnPositionOpenedCallback func(pos types.Position) error

// OnPositionClosedCallback is called for every booked exit, partial or final.
type OnPositionClosedCallback func(entry types.TradeLogEntry) error

// OnErrorCallback is called when a non-fatal error is skipped.
type OnErrorCallback func(err error)

// Hooks holds the optional pipeline callbacks. A nil field is not invoked.
// Callbacks returning an error abort the run.
type Hooks struct {
	OnCandle         *OnCandleCallback
	OnDecision       *OnDecisionCallback
	OnPositionOpened *OnPositionOpenedCallback
	OnPositionClosed *OnPositionClosedCallback
	OnError          *OnErrorCallback
}
