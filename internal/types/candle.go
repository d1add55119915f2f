package types

import (
	"time"

	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// Candle is one completed OHLCV bar. Candles are never mutated after they are produced.
type Candle struct {
	OpenTime time.Time `yaml:"open_time" json:"open_time" csv:"open_time"`
	Open     float64   `yaml:"open" json:"open" csv:"open"`
	High     float64   `yaml:"high" json:"high" csv:"high"`
	Low      float64   `yaml:"low" json:"low" csv:"low"`
	Close    float64   `yaml:"close" json:"close" csv:"close"`
	Volume   float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// After reports whether c opens strictly after other.
func (c Candle) After(other Candle) bool {
	return c.OpenTime.After(other.OpenTime)
}

// CheckOrder returns an error unless candles are strictly increasing by open time.
// Gaps are fine, duplicates and reordering are not.
func CheckOrder(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].After(candles[i-1]) {
			return errors.Newf(errors.ErrCodeCandleOutOfOrder,
				"candle %d at %s does not follow %s",
				i, candles[i].OpenTime.Format(time.RFC3339), candles[i-1].OpenTime.Format(time.RFC3339))
		}
	}

	return nil
}

var timeframes = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
}

// ParseTimeframe converts an exchange interval such as "15m" into its duration.
func ParseTimeframe(timeframe string) (time.Duration, error) {
	d, ok := timeframes[timeframe]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe %q", timeframe)
	}

	return d, nil
}
