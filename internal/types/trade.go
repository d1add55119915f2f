package types

import "time"

type ExitReason string

const (
	ExitReasonStopLoss      ExitReason = "stop_loss"
	ExitReasonTakeProfit1   ExitReason = "take_profit_1"
	ExitReasonTakeProfit2   ExitReason = "take_profit_2"
	ExitReasonSignal        ExitReason = "signal"
	ExitReasonEndOfBacktest ExitReason = "end_of_backtest"
	// ExitReasonReconciled marks a position the exchange no longer reports.
	ExitReasonReconciled ExitReason = "reconciled"
)

// Exit is a single exit action produced for a position on one candle.
type Exit struct {
	Reason   ExitReason
	Fraction float64
	Price    float64
}

// TradeLogEntry is appended for every fill that reduces a position.
// A position that takes TP1 and then stops out produces two entries.
type TradeLogEntry struct {
	PositionID string     `yaml:"position_id" json:"position_id" csv:"position_id"`
	Symbol     string     `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side       Side       `yaml:"side" json:"side" csv:"side"`
	EntryPrice float64    `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  float64    `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Size       float64    `yaml:"size" json:"size" csv:"size"`
	Fraction   float64    `yaml:"fraction" json:"fraction" csv:"fraction"`
	PnL        float64    `yaml:"pnl" json:"pnl" csv:"pnl"`
	OpenedAt   time.Time  `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
	ClosedAt   time.Time  `yaml:"closed_at" json:"closed_at" csv:"closed_at"`
	Reason     ExitReason `yaml:"reason" json:"reason" csv:"reason"`
	// Final is true on the entry that brought the position to zero.
	Final bool `yaml:"final" json:"final" csv:"final"`
}
