package strategy

import (
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// cross classifies the move of diff = a - b between two samples.
// Only a strict sign change counts: a tie is "not yet crossed".
func cross(prevDiff, curDiff float64) int {
	switch {
	case prevDiff <= 0 && curDiff > 0:
		return 1
	case prevDiff >= 0 && curDiff < 0:
		return -1
	default:
		return 0
	}
}

// Detect classifies the transition between two consecutive snapshots of one series.
func Detect(prev, cur types.IndicatorSnapshot) types.CrossoverEvent {
	event := types.CrossoverEvent{
		EMA:  types.CrossoverNone,
		MACD: types.CrossoverNone,
		At:   cur.Time,
	}

	switch cross(prev.EMAFast-prev.EMASlow, cur.EMAFast-cur.EMASlow) {
	case 1:
		event.EMA = types.CrossoverEMABull
	case -1:
		event.EMA = types.CrossoverEMABear
	}

	switch cross(prev.MACDLine-prev.MACDSignal, cur.MACDLine-cur.MACDSignal) {
	case 1:
		event.MACD = types.CrossoverMACDBull
	case -1:
		event.MACD = types.CrossoverMACDBear
	}

	return event
}
