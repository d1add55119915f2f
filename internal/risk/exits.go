package risk

import (
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// CheckExits decides the single exit action for pos on candle c, if any.
//
// Priority: stop-loss closes everything at the stop; otherwise TP1 closes
// TakeProfit1Fraction at TP1 if not taken yet; otherwise TP2 closes the remainder once
// TP1 is taken. A candle whose range holds both the stop and a target is treated as a
// stop, and a candle that reaches TP2 before TP1 was taken only books TP1.
func (m *Manager) CheckExits(pos types.Position, c types.Candle) (types.Exit, bool) {
	remaining := pos.RemainingFraction

	var stopHit, tp1Hit, tp2Hit bool

	if pos.Side == types.SideShort {
		stopHit = c.High >= pos.StopLoss
		tp1Hit = c.Low <= pos.TakeProfit1
		tp2Hit = c.Low <= pos.TakeProfit2
	} else {
		stopHit = c.Low <= pos.StopLoss
		tp1Hit = c.High >= pos.TakeProfit1
		tp2Hit = c.High >= pos.TakeProfit2
	}

	switch {
	case stopHit:
		return types.Exit{Reason: types.ExitReasonStopLoss, Fraction: remaining, Price: pos.StopLoss}, true
	case !pos.TP1Taken && tp1Hit:
		return types.Exit{Reason: types.ExitReasonTakeProfit1, Fraction: min(m.cfg.TakeProfit1Fraction, remaining), Price: pos.TakeProfit1}, true
	case pos.TP1Taken && tp2Hit:
		return types.Exit{Reason: types.ExitReasonTakeProfit2, Fraction: remaining, Price: pos.TakeProfit2}, true
	}

	return types.Exit{}, false
}
