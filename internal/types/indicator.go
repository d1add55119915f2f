package types

import "time"

// IndicatorSnapshot holds every indicator value at one candle close.
// It only exists once all lookbacks are satisfied.
type IndicatorSnapshot struct {
	Time       time.Time `yaml:"time" json:"time"`
	Close      float64   `yaml:"close" json:"close"`
	EMAFast    float64   `yaml:"ema_fast" json:"ema_fast"`
	EMASlow    float64   `yaml:"ema_slow" json:"ema_slow"`
	MACDLine   float64   `yaml:"macd_line" json:"macd_line"`
	MACDSignal float64   `yaml:"macd_signal" json:"macd_signal"`
	ATR        float64   `yaml:"atr" json:"atr"`
}
