package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type EMATestSuite struct {
	suite.Suite
}

func TestEMASuite(t *testing.T) {
	suite.Run(t, new(EMATestSuite))
}

func (suite *EMATestSuite) TestSeedsWithSimpleAverage() {
	state := NewEMAState(3)

	state, v := state.Next(1)
	suite.True(v.IsNone())
	state, v = state.Next(2)
	suite.True(v.IsNone())
	state, v = state.Next(3)
	suite.True(v.IsSome())
	suite.Equal(2.0, v.Unwrap())

	// alpha = 0.5
	state, v = state.Next(4)
	suite.Equal(3.0, v.Unwrap())
	_, v = state.Next(5)
	suite.Equal(4.0, v.Unwrap())
	suite.Equal(3, state.Period())
}

func (suite *EMATestSuite) TestNextDoesNotMutateReceiver() {
	state := NewEMAState(2)
	state, _ = state.Next(10)
	state, _ = state.Next(20)

	a, va := state.Next(30)
	b, vb := state.Next(30)
	suite.Equal(va.Unwrap(), vb.Unwrap())
	suite.Equal(a, b)

	// branching from the same state gives independent results
	_, vc := state.Next(0)
	suite.NotEqual(va.Unwrap(), vc.Unwrap())
}

func (suite *EMATestSuite) TestMatchesReferenceFormula() {
	closes := []float64{22.27, 22.19, 22.08, 22.17, 22.18, 22.13, 22.23, 22.43, 22.24, 22.29, 22.15, 22.39, 22.38, 22.61}
	period := 10

	expected := 0.0
	for _, c := range closes[:period] {
		expected += c
	}

	expected /= float64(period)
	alpha := 2.0 / float64(period+1)

	for _, c := range closes[period:] {
		expected = c*alpha + expected*(1-alpha)
	}

	state := NewEMAState(period)
	last := 0.0

	for _, c := range closes {
		var v float64

		next, opt := state.Next(c)
		state = next
		if opt.IsSome() {
			v = opt.Unwrap()
			last = v
		}
	}

	suite.Equal(expected, last)
}
