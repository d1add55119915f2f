// Package strategy holds the crossover detector and the per-symbol decision state machine.
package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// RiskView is the read side of the risk manager used to decide.
type RiskView interface {
	CanOpen(symbol string, at time.Time) bool
	Positions(symbol string) []types.Position
	CheckExits(pos types.Position, c types.Candle) (types.Exit, bool)
}

// PositionExit pairs an open position with the exit chosen for it on this candle.
type PositionExit struct {
	Position types.Position
	Exit     types.Exit
}

// Decision is everything the engine concluded on one completed candle.
type Decision struct {
	Candle      types.Candle
	Snapshot    types.IndicatorSnapshot
	Event       types.CrossoverEvent
	StateBefore types.PositionState
	// Exits holds at most one action per open position.
	Exits []PositionExit
	// Open is the side to enter, set only from the flat state.
	Open optional.Option[types.Side]
	// Blocked is true when a double cross was refused by the risk caps.
	Blocked bool
}

// Engine is the flat/long/short state machine of one symbol. The state itself lives in
// the risk manager's positions; the engine only reads it.
type Engine struct {
	symbol string
	risk   RiskView
}

func NewEngine(symbol string, risk RiskView) *Engine {
	return &Engine{symbol: symbol, risk: risk}
}

// Symbol returns the instrument the engine decides for.
func (e *Engine) Symbol() string {
	return e.symbol
}

// State returns the current state of the symbol.
func (e *Engine) State() types.PositionState {
	return types.StateOf(e.risk.Positions(e.symbol))
}

// Evaluate runs once per completed candle with the snapshots of the previous and the
// current candle.
//
// Open positions first get their stop/take-profit check; a position without such an exit
// is closed on a double cross against its side. Entries are only considered from flat, so
// a candle that closes a position never re-enters on the same close.
func (e *Engine) Evaluate(c types.Candle, prev, cur types.IndicatorSnapshot) Decision {
	positions := e.risk.Positions(e.symbol)
	event := Detect(prev, cur)

	d := Decision{
		Candle:      c,
		Snapshot:    cur,
		Event:       event,
		StateBefore: types.StateOf(positions),
		Open:        optional.None[types.Side](),
	}

	for _, pos := range positions {
		if exit, ok := e.risk.CheckExits(pos, c); ok {
			d.Exits = append(d.Exits, PositionExit{Position: pos, Exit: exit})

			continue
		}

		if event.Agrees(pos.Side.Opposite()) {
			d.Exits = append(d.Exits, PositionExit{
				Position: pos,
				Exit: types.Exit{
					Reason:   types.ExitReasonSignal,
					Fraction: pos.RemainingFraction,
					Price:    c.Close,
				},
			})
		}
	}

	if d.StateBefore != types.StateFlat {
		return d
	}

	var side types.Side

	switch {
	case event.Bullish():
		side = types.SideLong
	case event.Bearish():
		side = types.SideShort
	default:
		return d
	}

	if !e.risk.CanOpen(e.symbol, c.OpenTime) {
		d.Blocked = true

		return d
	}

	d.Open = optional.Some(side)

	return d
}
