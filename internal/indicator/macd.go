package indicator

import (
	"github.com/moznion/go-optional"
)

// MACDValue is one MACD reading.
type MACDValue struct {
	Line   float64
	Signal float64
}

// MACDState carries the three EMAs behind MACD. The signal EMA only sees line values,
// so it starts once the slow EMA is seeded.
type MACDState struct {
	fast   EMAState
	slow   EMAState
	signal EMAState
}

func NewMACDState(fast, slow, signal int) MACDState {
	return MACDState{
		fast:   NewEMAState(fast),
		slow:   NewEMAState(slow),
		signal: NewEMAState(signal),
	}
}

// Next feeds one close. The result is None until both the line and its signal exist.
func (s MACDState) Next(price float64) (MACDState, optional.Option[MACDValue]) {
	var fast, slow optional.Option[float64]

	s.fast, fast = s.fast.Next(price)
	s.slow, slow = s.slow.Next(price)

	if fast.IsNone() || slow.IsNone() {
		return s, optional.None[MACDValue]()
	}

	line := fast.Unwrap() - slow.Unwrap()

	var signal optional.Option[float64]

	s.signal, signal = s.signal.Next(line)
	if signal.IsNone() {
		return s, optional.None[MACDValue]()
	}

	return s, optional.Some(MACDValue{Line: line, Signal: signal.Unwrap()})
}
