package engine_v1

import (
	"context"
	"strings"

	pipeline "github.com/rxtech-lab/argo-crossover/internal/engine"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	tradingprovider "github.com/rxtech-lab/argo-crossover/internal/trading/provider"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sizeTolerance absorbs float noise when comparing exchange and booked quantities.
const sizeTolerance = 1e-9

type protectiveOrders struct {
	stopLoss    string
	takeProfit1 string
	takeProfit2 string
}

// ExchangeExecutor turns order intents into exchange orders.
//
// An entry is a market order followed by a reduce-only stop-market order for the full size
// and two reduce-only take-profit-market orders that split the size at the TP1 fraction.
// The resting orders protect the position between polls; when one of them triggers, the
// next candle shows the same level crossed and the close intent finds the exchange
// position already reduced, so no second order is sent.
type ExchangeExecutor struct {
	provider   tradingprovider.TradingSystemProvider
	manager    *risk.Manager
	symbol     string
	quoteAsset string
	leverage   int
	log        *logger.Logger
	onError    *pipeline.OnErrorCallback

	leverageSet bool
	protective  map[string]protectiveOrders
}

func NewExchangeExecutor(
	provider tradingprovider.TradingSystemProvider,
	manager *risk.Manager,
	symbol, quoteAsset string,
	leverage int,
	log *logger.Logger,
	onError *pipeline.OnErrorCallback,
) *ExchangeExecutor {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &ExchangeExecutor{
		provider:   provider,
		manager:    manager,
		symbol:     symbol,
		quoteAsset: quoteAsset,
		leverage:   leverage,
		log:        log,
		onError:    onError,
		protective: make(map[string]protectiveOrders),
	}
}

// Balance returns the wallet balance of the quote asset.
func (x *ExchangeExecutor) Balance(ctx context.Context) (float64, error) {
	return x.provider.GetBalance(ctx, x.quoteAsset)
}

// Execute implements engine.FillExecutor.
func (x *ExchangeExecutor) Execute(ctx context.Context, intent types.OrderIntent) (types.Fill, error) {
	if err := intent.Validate(); err != nil {
		return types.Fill{}, err
	}

	if intent.Kind == types.IntentOpen {
		return x.open(ctx, intent)
	}

	return x.close(ctx, intent)
}

func (x *ExchangeExecutor) open(ctx context.Context, intent types.OrderIntent) (types.Fill, error) {
	if !x.leverageSet {
		if err := x.provider.SetLeverage(ctx, intent.Symbol, x.leverage); err != nil {
			return types.Fill{}, err
		}

		x.leverageSet = true
	}

	result, err := x.provider.PlaceOrder(ctx, tradingprovider.OrderRequest{
		Symbol:         intent.Symbol,
		Side:           tradingprovider.EntrySide(intent.Side),
		Type:           tradingprovider.OrderTypeMarket,
		Quantity:       intent.Size,
		ClientOrderID:  intent.PositionID,
		ReferencePrice: intent.Price,
	})
	if err != nil {
		return types.Fill{}, err
	}

	fill := fillOf(result, intent)

	x.placeProtection(ctx, intent, fill)

	return fill, nil
}

// placeProtection places the stop and take-profit orders. Failures are reported and the
// position stays protected by the per-candle checks only.
func (x *ExchangeExecutor) placeProtection(ctx context.Context, intent types.OrderIntent, fill types.Fill) {
	cfg := x.manager.Config()
	stopLoss, takeProfit1, takeProfit2 := x.manager.Levels(intent.Side, fill.Price, intent.ATR)

	size := decimal.NewFromFloat(fill.Size)
	tp1Size := size.Mul(decimal.NewFromFloat(cfg.TakeProfit1Fraction)).RoundDown(int32(cfg.QuantityPrecision))
	tp2Size := size.Sub(tp1Size)

	base := compactID(intent.PositionID)
	exit := tradingprovider.ExitSide(intent.Side)

	var ids protectiveOrders

	place := func(kind tradingprovider.OrderType, suffix string, stopPrice float64, qty decimal.Decimal) string {
		if qty.Sign() <= 0 {
			return ""
		}

		result, err := x.provider.PlaceOrder(ctx, tradingprovider.OrderRequest{
			Symbol:        intent.Symbol,
			Side:          exit,
			Type:          kind,
			Quantity:      qty.InexactFloat64(),
			StopPrice:     stopPrice,
			ReduceOnly:    true,
			ClientOrderID: base + "-" + suffix,
		})
		if err != nil {
			x.report(errors.Wrapf(errors.GetCode(err), err, "failed to place %s order for position %s", suffix, intent.PositionID))

			return ""
		}

		return result.OrderID
	}

	ids.stopLoss = place(tradingprovider.OrderTypeStopMarket, "sl", stopLoss, size)
	ids.takeProfit1 = place(tradingprovider.OrderTypeTakeProfitMarket, "tp1", takeProfit1, tp1Size)
	ids.takeProfit2 = place(tradingprovider.OrderTypeTakeProfitMarket, "tp2", takeProfit2, tp2Size)

	x.protective[intent.PositionID] = ids
}

func (x *ExchangeExecutor) close(ctx context.Context, intent types.OrderIntent) (types.Fill, error) {
	pos, ok := x.manager.Position(intent.PositionID)
	if !ok {
		return types.Fill{}, errors.Newf(errors.ErrCodeInconsistentPositionState, "position %s is not open", intent.PositionID)
	}

	held, err := x.heldSize(ctx, intent.Side)
	if err != nil {
		return types.Fill{}, err
	}

	fill := types.Fill{Price: intent.Price, Size: intent.Size, Time: intent.Time}

	// the exchange nets every position of a side into one
	if booked := x.bookedSize(pos.Side); held <= booked-intent.Size+sizeTolerance {
		// a resting stop or take-profit order already took this part
		x.log.Info("Exit already filled on exchange",
			zap.String("position_id", intent.PositionID),
			zap.String("reason", string(intent.Reason)),
			zap.Float64("held", held),
			zap.Float64("booked", booked),
		)
	} else {
		result, err := x.provider.PlaceOrder(ctx, tradingprovider.OrderRequest{
			Symbol:         intent.Symbol,
			Side:           tradingprovider.ExitSide(intent.Side),
			Type:           tradingprovider.OrderTypeMarket,
			Quantity:       intent.Size,
			ReduceOnly:     true,
			ClientOrderID:  compactID(intent.PositionID) + "-" + exitSuffix(intent.Reason),
			ReferencePrice: intent.Price,
		})
		if err != nil {
			return types.Fill{}, err
		}

		fill = fillOf(result, intent)
	}

	x.cleanUp(ctx, intent)

	return fill, nil
}

func (x *ExchangeExecutor) heldSize(ctx context.Context, side types.Side) (float64, error) {
	positions, err := x.provider.GetOpenPositions(ctx, x.symbol)
	if err != nil {
		return 0, err
	}

	for _, p := range positions {
		if p.Side == side {
			return p.Size, nil
		}
	}

	return 0, nil
}

func (x *ExchangeExecutor) bookedSize(side types.Side) float64 {
	booked := decimal.Zero

	for _, p := range x.manager.Positions(x.symbol) {
		if p.Side == side {
			booked = booked.Add(decimal.NewFromFloat(p.RemainingSize))
		}
	}

	return booked.InexactFloat64()
}

// cleanUp cancels resting orders that no longer match the position.
func (x *ExchangeExecutor) cleanUp(ctx context.Context, intent types.OrderIntent) {
	ids, tracked := x.protective[intent.PositionID]

	if intent.Final {
		delete(x.protective, intent.PositionID)

		if len(x.manager.Positions(x.symbol)) > 1 && tracked {
			// another position still relies on its own resting orders
			for _, orderID := range []string{ids.stopLoss, ids.takeProfit1, ids.takeProfit2} {
				if orderID == "" {
					continue
				}

				if err := x.provider.CancelOrder(ctx, intent.Symbol, orderID); err != nil {
					x.log.Debug("Resting order already gone", zap.String("order_id", orderID), zap.Error(err))
				}
			}

			return
		}

		if err := x.provider.CancelAllOrders(ctx, intent.Symbol); err != nil {
			x.report(errors.Wrapf(errors.GetCode(err), err, "failed to cancel resting orders of %s", intent.Symbol))
		}

		return
	}

	if !tracked || intent.Reason != types.ExitReasonTakeProfit1 || ids.takeProfit1 == "" {
		return
	}

	// TP1 was taken by the candle check; the exchange order must not take it again
	if err := x.provider.CancelOrder(ctx, intent.Symbol, ids.takeProfit1); err != nil {
		x.log.Debug("TP1 order already gone", zap.String("order_id", ids.takeProfit1), zap.Error(err))
	}

	ids.takeProfit1 = ""
	x.protective[intent.PositionID] = ids
}

func (x *ExchangeExecutor) report(err error) {
	x.log.Warn("Exchange call failed", zap.String("symbol", x.symbol), zap.Error(err))

	if x.onError != nil {
		(*x.onError)(err)
	}
}

func fillOf(result tradingprovider.OrderResult, intent types.OrderIntent) types.Fill {
	fill := types.Fill{
		OrderID: result.OrderID,
		Price:   result.AvgPrice,
		Size:    result.ExecutedQty,
		Time:    intent.Time,
	}

	if fill.Price <= 0 {
		fill.Price = intent.Price
	}

	if fill.Size <= 0 {
		fill.Size = intent.Size
	}

	return fill
}

// compactID strips the dashes of a position id so suffixed client order ids stay within
// the exchange's 36 character limit.
func compactID(positionID string) string {
	return strings.ReplaceAll(positionID, "-", "")
}

func exitSuffix(reason types.ExitReason) string {
	switch reason {
	case types.ExitReasonStopLoss:
		return "xsl"
	case types.ExitReasonTakeProfit1:
		return "xt1"
	case types.ExitReasonTakeProfit2:
		return "xt2"
	case types.ExitReasonSignal:
		return "xsg"
	default:
		return "xcl"
	}
}

var _ pipeline.FillExecutor = (*ExchangeExecutor)(nil)
