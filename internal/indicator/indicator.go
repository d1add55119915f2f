// Package indicator computes EMA, MACD and ATR over an ordered candle sequence.
//
// All recursion lives in value-typed accumulators that are threaded through each call,
// so two series can be computed side by side and the same candles always produce the
// same snapshots bit for bit.
package indicator

import (
	"iter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// Config holds the indicator periods.
type Config struct {
	EMAFast    int `yaml:"ema_fast" json:"ema_fast" jsonschema:"default=9" validate:"gt=0"`
	EMASlow    int `yaml:"ema_slow" json:"ema_slow" jsonschema:"default=21" validate:"gt=0"`
	MACDFast   int `yaml:"macd_fast" json:"macd_fast" jsonschema:"default=12" validate:"gt=0"`
	MACDSlow   int `yaml:"macd_slow" json:"macd_slow" jsonschema:"default=26" validate:"gt=0"`
	MACDSignal int `yaml:"macd_signal" json:"macd_signal" jsonschema:"default=9" validate:"gt=0"`
	ATRPeriod  int `yaml:"atr_period" json:"atr_period" jsonschema:"default=14" validate:"gt=0"`
}

// DefaultConfig returns EMA 9/21, MACD 12/26/9 and ATR 14.
func DefaultConfig() Config {
	return Config{
		EMAFast:    9,
		EMASlow:    21,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ATRPeriod:  14,
	}
}

// Validate checks that every period is positive and the fast lines are faster than the slow ones.
func (c Config) Validate() error {
	periods := map[string]int{
		"ema_fast":    c.EMAFast,
		"ema_slow":    c.EMASlow,
		"macd_fast":   c.MACDFast,
		"macd_slow":   c.MACDSlow,
		"macd_signal": c.MACDSignal,
		"atr_period":  c.ATRPeriod,
	}
	for name, p := range periods {
		if p <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, p)
		}
	}

	if c.EMAFast >= c.EMASlow {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "ema_fast (%d) must be smaller than ema_slow (%d)", c.EMAFast, c.EMASlow)
	}

	if c.MACDFast >= c.MACDSlow {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "macd_fast (%d) must be smaller than macd_slow (%d)", c.MACDFast, c.MACDSlow)
	}

	return nil
}

// Lookback is the number of candles needed before the first snapshot exists.
func (c Config) Lookback() int {
	return max(c.EMASlow, c.MACDSlow+c.MACDSignal-1, c.ATRPeriod)
}

// Accumulator is the combined indicator state after some prefix of a candle series.
type Accumulator struct {
	emaFast EMAState
	emaSlow EMAState
	macd    MACDState
	atr     ATRState
	seen    int
	last    time.Time
}

// NewAccumulator returns the empty state for cfg.
func NewAccumulator(cfg Config) Accumulator {
	return Accumulator{
		emaFast: NewEMAState(cfg.EMAFast),
		emaSlow: NewEMAState(cfg.EMASlow),
		macd:    NewMACDState(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		atr:     NewATRState(cfg.ATRPeriod),
	}
}

// Seen returns how many candles have been fed.
func (a Accumulator) Seen() int {
	return a.seen
}

// LastTime is the open time of the last candle fed, zero before the first.
func (a Accumulator) LastTime() time.Time {
	return a.last
}

// Next feeds one candle and returns the new state plus the snapshot at its close,
// None while any indicator is still warming up. A candle that does not open strictly
// after the previous one is rejected and the receiver is returned unchanged.
func (a Accumulator) Next(c types.Candle) (Accumulator, optional.Option[types.IndicatorSnapshot], error) {
	if a.seen > 0 && !c.OpenTime.After(a.last) {
		return a, optional.None[types.IndicatorSnapshot](), errors.Newf(errors.ErrCodeCandleOutOfOrder,
			"candle at %s does not follow %s", c.OpenTime.Format(time.RFC3339), a.last.Format(time.RFC3339))
	}

	var (
		fast, slow, atr optional.Option[float64]
		macd            optional.Option[MACDValue]
	)

	a.emaFast, fast = a.emaFast.Next(c.Close)
	a.emaSlow, slow = a.emaSlow.Next(c.Close)
	a.macd, macd = a.macd.Next(c.Close)
	a.atr, atr = a.atr.Next(c)
	a.seen++
	a.last = c.OpenTime

	if fast.IsNone() || slow.IsNone() || macd.IsNone() || atr.IsNone() {
		return a, optional.None[types.IndicatorSnapshot](), nil
	}

	m := macd.Unwrap()

	return a, optional.Some(types.IndicatorSnapshot{
		Time:       c.OpenTime,
		Close:      c.Close,
		EMAFast:    fast.Unwrap(),
		EMASlow:    slow.Unwrap(),
		MACDLine:   m.Line,
		MACDSignal: m.Signal,
		ATR:        atr.Unwrap(),
	}), nil
}

// Series lazily yields one snapshot per candle from the end of warm-up onward.
// Every range over the result starts from an empty accumulator, so it can be replayed.
// Iteration stops after the first out-of-order candle error.
func Series(candles []types.Candle, cfg Config) iter.Seq2[types.IndicatorSnapshot, error] {
	return func(yield func(types.IndicatorSnapshot, error) bool) {
		acc := NewAccumulator(cfg)

		for _, c := range candles {
			var (
				snap optional.Option[types.IndicatorSnapshot]
				err  error
			)

			acc, snap, err = acc.Next(c)
			if err != nil {
				yield(types.IndicatorSnapshot{}, err)

				return
			}

			if snap.IsSome() {
				if !yield(snap.Unwrap(), nil) {
					return
				}
			}
		}
	}
}

// Latest returns the snapshot at the last candle, or an InsufficientDataError when
// there are fewer candles than the lookback.
func Latest(candles []types.Candle, cfg Config) (types.IndicatorSnapshot, error) {
	if len(candles) < cfg.Lookback() {
		return types.IndicatorSnapshot{}, errors.NewInsufficientDataErrorf(cfg.Lookback(), len(candles), "",
			"indicators need %d candles, got %d", cfg.Lookback(), len(candles))
	}

	var (
		last  types.IndicatorSnapshot
		found bool
	)

	for snap, err := range Series(candles, cfg) {
		if err != nil {
			return types.IndicatorSnapshot{}, err
		}

		last = snap
		found = true
	}

	if !found {
		return types.IndicatorSnapshot{}, errors.NewInsufficientDataErrorf(cfg.Lookback(), len(candles), "",
			"indicators need %d candles, got %d", cfg.Lookback(), len(candles))
	}

	return last, nil
}
