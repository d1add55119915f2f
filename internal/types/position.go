package types

import "time"

type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}

	return SideLong
}

// PositionState is the per-symbol state of the decision state machine.
type PositionState string

const (
	StateFlat  PositionState = "flat"
	StateLong  PositionState = "long"
	StateShort PositionState = "short"
)

// StateOf derives the state machine state from the open positions of a symbol.
func StateOf(positions []Position) PositionState {
	if len(positions) == 0 {
		return StateFlat
	}

	if positions[0].Side == SideLong {
		return StateLong
	}

	return StateShort
}

// Position is an open position. Stop and take-profit levels are fixed when it opens.
type Position struct {
	ID          string    `yaml:"id" json:"id" csv:"id"`
	Symbol      string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side        Side      `yaml:"side" json:"side" csv:"side"`
	EntryPrice  float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryATR    float64   `yaml:"entry_atr" json:"entry_atr" csv:"entry_atr"`
	Size        float64   `yaml:"size" json:"size" csv:"size"`
	StopLoss    float64   `yaml:"stop_loss" json:"stop_loss" csv:"stop_loss"`
	TakeProfit1 float64   `yaml:"take_profit_1" json:"take_profit_1" csv:"take_profit_1"`
	TakeProfit2 float64   `yaml:"take_profit_2" json:"take_profit_2" csv:"take_profit_2"`
	OpenedAt    time.Time `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
	// RemainingFraction of the original size still open, 1 at open and 0 once closed.
	RemainingFraction float64 `yaml:"remaining_fraction" json:"remaining_fraction" csv:"remaining_fraction"`
	// RemainingSize is the open quantity in base units.
	RemainingSize float64 `yaml:"remaining_size" json:"remaining_size" csv:"remaining_size"`
	RealizedPnL   float64 `yaml:"realized_pnl" json:"realized_pnl" csv:"realized_pnl"`
	TP1Taken      bool    `yaml:"tp1_taken" json:"tp1_taken" csv:"tp1_taken"`
}

// ExchangePosition is a position as reported by an exchange, used for reconciliation.
type ExchangePosition struct {
	Symbol     string
	Side       Side
	Size       float64
	EntryPrice float64
}
