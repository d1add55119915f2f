package engine

import (
	"context"
	"strconv"

	"github.com/rxtech-lab/argo-crossover/internal/risk"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// BacktestTrading fills every intent in full at its price. The balance is the initial
// balance plus what the risk manager has realized so far.
type BacktestTrading struct {
	manager        *risk.Manager
	initialBalance float64
	orders         int
}

// NewBacktestTrading creates a simulated executor booking into manager.
func NewBacktestTrading(manager *risk.Manager, initialBalance float64) *BacktestTrading {
	return &BacktestTrading{
		manager:        manager,
		initialBalance: initialBalance,
		orders:         0,
	}
}

// Balance implements engine.FillExecutor.
func (b *BacktestTrading) Balance(_ context.Context) (float64, error) {
	return b.initialBalance + b.manager.RealizedPnL().InexactFloat64(), nil
}

// Execute implements engine.FillExecutor.
func (b *BacktestTrading) Execute(_ context.Context, intent types.OrderIntent) (types.Fill, error) {
	if err := intent.Validate(); err != nil {
		return types.Fill{}, err
	}

	if intent.Kind == types.IntentClose {
		if _, ok := b.manager.Position(intent.PositionID); !ok {
			return types.Fill{}, errors.Newf(errors.ErrCodeInconsistentPositionState,
				"close of unknown position %s", intent.PositionID)
		}
	}

	b.orders++

	return types.Fill{
		OrderID: strconv.Itoa(b.orders),
		Price:   intent.Price,
		Size:    intent.Size,
		Time:    intent.Time,
	}, nil
}

// Orders returns how many intents were filled.
func (b *BacktestTrading) Orders() int {
	return b.orders
}
