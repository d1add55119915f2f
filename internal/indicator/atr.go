package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/types"
)

// ATRState is a Wilder-smoothed average true range.
type ATRState struct {
	period    int
	count     int
	sum       float64
	value     float64
	prevClose float64
	hasPrev   bool
}

func NewATRState(period int) ATRState {
	return ATRState{period: period}
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(c types.Candle, prevClose float64) float64 {
	return math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}

// Next feeds one candle. The first candle has no previous close and contributes high-low.
func (s ATRState) Next(c types.Candle) (ATRState, optional.Option[float64]) {
	tr := c.High - c.Low
	if s.hasPrev {
		tr = TrueRange(c, s.prevClose)
	}

	s.prevClose = c.Close
	s.hasPrev = true

	if s.count < s.period {
		s.sum += tr
		s.count++

		if s.count < s.period {
			return s, optional.None[float64]()
		}

		s.value = s.sum / float64(s.period)

		return s, optional.Some(s.value)
	}

	s.value = (s.value*float64(s.period-1) + tr) / float64(s.period)

	return s, optional.Some(s.value)
}
