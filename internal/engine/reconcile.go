package engine

import (
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/zap"
)

// ReconcileResult lists what Reconcile changed.
type ReconcileResult struct {
	Adopted []types.Position
	Closed  []types.TradeLogEntry
}

// Reconcile aligns the in-memory positions of the symbol with what the exchange reports.
// It releases vanished positions first and then adopts unknown ones.
// Reconcile needs at least one indicator snapshot.
func (r *Runner) Reconcile(exchange []types.ExchangePosition) (ReconcileResult, error) {
	var result ReconcileResult

	closed, err := r.Release(exchange)
	result.Closed = closed

	if err != nil {
		return result, err
	}

	adopted, err := r.Adopt(exchange)
	result.Adopted = adopted

	return result, err
}

func (r *Runner) held(exchange []types.ExchangePosition) map[types.Side]types.ExchangePosition {
	held := make(map[types.Side]types.ExchangePosition)

	for _, ep := range exchange {
		if ep.Symbol == r.symbol && ep.Size > 0 {
			held[ep.Side] = ep
		}
	}

	return held
}

func (r *Runner) requireReady() error {
	if r.prev.IsNone() || r.lastCandle.IsNone() {
		return errors.NewInsufficientDataErrorf(r.cfg.Lookback(), r.acc.Seen(), r.symbol,
			"cannot reconcile %s before indicators are ready", r.symbol)
	}

	return nil
}

// Release closes in-memory positions the exchange no longer holds. Such a position was
// closed outside the bot and is booked at the last close with reason reconciled.
func (r *Runner) Release(exchange []types.ExchangePosition) ([]types.TradeLogEntry, error) {
	if err := r.requireReady(); err != nil {
		return nil, err
	}

	last := r.lastCandle.Unwrap()
	held := r.held(exchange)

	var closed []types.TradeLogEntry

	for _, pos := range r.manager.Positions(r.symbol) {
		if _, ok := held[pos.Side]; ok {
			continue
		}

		entry, err := r.manager.ClosePosition(pos.ID, last.Close, types.ExitReasonReconciled, last.OpenTime)
		if err != nil {
			return closed, err
		}

		r.log.Warn("Position missing on exchange, closed",
			zap.String("symbol", r.symbol),
			zap.String("position_id", pos.ID),
			zap.Float64("price", last.Close),
		)

		closed = append(closed, entry)

		if r.hooks.OnPositionClosed != nil {
			if err := (*r.hooks.OnPositionClosed)(entry); err != nil {
				return closed, err
			}
		}
	}

	return closed, nil
}

// Adopt books exchange positions that have no in-memory counterpart on their side.
// Their levels are derived from the entry price and the latest ATR. Adoption does not
// count toward the daily trade cap.
func (r *Runner) Adopt(exchange []types.ExchangePosition) ([]types.Position, error) {
	if err := r.requireReady(); err != nil {
		return nil, err
	}

	snap := r.prev.Unwrap()
	last := r.lastCandle.Unwrap()

	known := make(map[types.Side]bool)
	for _, pos := range r.manager.Positions(r.symbol) {
		known[pos.Side] = true
	}

	held := r.held(exchange)

	var adopted []types.Position

	for _, side := range []types.Side{types.SideLong, types.SideShort} {
		ep, ok := held[side]
		if !ok || known[side] {
			continue
		}

		sl, tp1, tp2 := r.manager.Levels(side, ep.EntryPrice, snap.ATR)
		pos := types.Position{
			ID:                risk.PositionID(r.symbol, side, last.OpenTime),
			Symbol:            r.symbol,
			Side:              side,
			EntryPrice:        ep.EntryPrice,
			EntryATR:          snap.ATR,
			Size:              ep.Size,
			StopLoss:          sl,
			TakeProfit1:       tp1,
			TakeProfit2:       tp2,
			OpenedAt:          last.OpenTime,
			RemainingFraction: 1,
			RemainingSize:     ep.Size,
		}

		if err := r.manager.Restore(pos); err != nil {
			return adopted, err
		}

		r.log.Warn("Adopted exchange position",
			zap.String("symbol", r.symbol),
			zap.String("position_id", pos.ID),
			zap.String("side", string(side)),
			zap.Float64("size", ep.Size),
			zap.Float64("entry", ep.EntryPrice),
		)

		adopted = append(adopted, pos)
	}

	return adopted, nil
}
