package indicator

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/stretchr/testify/suite"
)

type ATRTestSuite struct {
	suite.Suite
}

func TestATRSuite(t *testing.T) {
	suite.Run(t, new(ATRTestSuite))
}

func (suite *ATRTestSuite) TestTrueRange() {
	c := types.Candle{High: 12, Low: 10, Close: 11}
	suite.Equal(2.0, TrueRange(c, 11))
	// gap up: previous close far below
	suite.Equal(7.0, TrueRange(c, 5))
	// gap down: previous close far above
	suite.Equal(8.0, TrueRange(c, 18))
}

func (suite *ATRTestSuite) TestConstantRange() {
	state := NewATRState(3)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var values []float64

	for i := 0; i < 6; i++ {
		c := types.Candle{OpenTime: start.Add(time.Duration(i) * time.Minute), Open: 100, High: 101, Low: 99, Close: 100}

		next, v := state.Next(c)
		state = next
		if v.IsSome() {
			values = append(values, v.Unwrap())
		}
	}

	suite.Equal([]float64{2, 2, 2, 2}, values)
}

func (suite *ATRTestSuite) TestWilderSmoothing() {
	state := NewATRState(2)
	candles := []types.Candle{
		{High: 11, Low: 9, Close: 10},  // tr 2 (no previous close)
		{High: 12, Low: 10, Close: 11}, // tr 2
		{High: 15, Low: 11, Close: 14}, // tr 4
	}

	var last float64

	for _, c := range candles {
		next, v := state.Next(c)
		state = next
		if v.IsSome() {
			last = v.Unwrap()
		}
	}

	// seed (2+2)/2 = 2, then (2*1 + 4)/2 = 3
	suite.Equal(3.0, last)
}
