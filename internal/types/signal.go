package types

import "time"

type CrossoverKind string

const (
	CrossoverNone     CrossoverKind = "none"
	CrossoverEMABull  CrossoverKind = "ema_bull"
	CrossoverEMABear  CrossoverKind = "ema_bear"
	CrossoverMACDBull CrossoverKind = "macd_bull"
	CrossoverMACDBear CrossoverKind = "macd_bear"
)

// CrossoverEvent is the classification of one snapshot transition.
// EMA and MACD are classified independently.
type CrossoverEvent struct {
	EMA  CrossoverKind
	MACD CrossoverKind
	At   time.Time
}

// Bullish reports whether both lines crossed up on the same candle.
func (e CrossoverEvent) Bullish() bool {
	return e.EMA == CrossoverEMABull && e.MACD == CrossoverMACDBull
}

// Bearish reports whether both lines crossed down on the same candle.
func (e CrossoverEvent) Bearish() bool {
	return e.EMA == CrossoverEMABear && e.MACD == CrossoverMACDBear
}

// Agrees reports whether the event is a double cross in the direction of side.
func (e CrossoverEvent) Agrees(side Side) bool {
	if side == SideLong {
		return e.Bullish()
	}

	return e.Bearish()
}
