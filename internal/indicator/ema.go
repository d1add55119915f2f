package indicator

import (
	"github.com/moznion/go-optional"
)

// EMAState is the rolling state of an exponential moving average.
// It is a value type: Next never mutates the receiver.
type EMAState struct {
	period int
	count  int
	sum    float64
	value  float64
}

// NewEMAState creates an empty EMA accumulator for the given period.
func NewEMAState(period int) EMAState {
	return EMAState{period: period}
}

// Period returns the configured period.
func (s EMAState) Period() int {
	return s.period
}

// Next feeds one value and returns the new state together with the EMA, which is None
// until period values have been seen. The first value is the simple average of those
// period values, every later one uses alpha = 2/(period+1).
func (s EMAState) Next(v float64) (EMAState, optional.Option[float64]) {
	if s.count < s.period {
		s.sum += v
		s.count++

		if s.count < s.period {
			return s, optional.None[float64]()
		}

		s.value = s.sum / float64(s.period)

		return s, optional.Some(s.value)
	}

	alpha := 2.0 / float64(s.period+1)
	s.value = (v * alpha) + (s.value * (1 - alpha))

	return s, optional.Some(s.value)
}
