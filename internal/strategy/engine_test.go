package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type EngineTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	risk   *mocks.MockRiskView
	engine *Engine
	candle types.Candle
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.risk = mocks.NewMockRiskView(suite.ctrl)
	suite.engine = NewEngine("BTCUSDT", suite.risk)
	suite.candle = types.Candle{
		OpenTime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Open:     100, High: 102, Low: 99, Close: 101,
	}
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

var (
	bullPrev = snap(9, 10, -1, 0)
	bullCur  = snap(11, 10, 1, 0)
	bearPrev = snap(11, 10, 1, 0)
	bearCur  = snap(9, 10, -1, 0)
)

func (suite *EngineTestSuite) TestFlatToLong() {
	suite.risk.EXPECT().Positions("BTCUSDT").Return(nil)
	suite.risk.EXPECT().CanOpen("BTCUSDT", suite.candle.OpenTime).Return(true)

	d := suite.engine.Evaluate(suite.candle, bullPrev, bullCur)
	suite.Equal(types.StateFlat, d.StateBefore)
	suite.True(d.Open.IsSome())
	suite.Equal(types.SideLong, d.Open.Unwrap())
	suite.False(d.Blocked)
	suite.Empty(d.Exits)
}

func (suite *EngineTestSuite) TestFlatToShort() {
	suite.risk.EXPECT().Positions("BTCUSDT").Return(nil)
	suite.risk.EXPECT().CanOpen("BTCUSDT", gomock.Any()).Return(true)

	d := suite.engine.Evaluate(suite.candle, bearPrev, bearCur)
	suite.Equal(types.SideShort, d.Open.Unwrap())
}

func (suite *EngineTestSuite) TestSingleCrossDoesNotOpen() {
	suite.risk.EXPECT().Positions("BTCUSDT").Return(nil)

	d := suite.engine.Evaluate(suite.candle, snap(9, 10, 1, 0), snap(11, 10, 2, 0))
	suite.True(d.Open.IsNone())
	suite.False(d.Blocked)
}

func (suite *EngineTestSuite) TestBlockedByRisk() {
	suite.risk.EXPECT().Positions("BTCUSDT").Return(nil)
	suite.risk.EXPECT().CanOpen("BTCUSDT", gomock.Any()).Return(false)

	d := suite.engine.Evaluate(suite.candle, bullPrev, bullCur)
	suite.True(d.Open.IsNone())
	suite.True(d.Blocked)
}

func (suite *EngineTestSuite) TestOppositeDoubleCrossClosesWithoutReentry() {
	long := types.Position{ID: "p1", Symbol: "BTCUSDT", Side: types.SideLong, RemainingFraction: 0.5}
	suite.risk.EXPECT().Positions("BTCUSDT").Return([]types.Position{long})
	suite.risk.EXPECT().CheckExits(long, suite.candle).Return(types.Exit{}, false)

	d := suite.engine.Evaluate(suite.candle, bearPrev, bearCur)
	suite.Equal(types.StateLong, d.StateBefore)
	suite.Require().Len(d.Exits, 1)
	suite.Equal(types.Exit{Reason: types.ExitReasonSignal, Fraction: 0.5, Price: 101}, d.Exits[0].Exit)
	// the bearish double cross would open a short from flat, but not on the closing candle
	suite.True(d.Open.IsNone())
}

func (suite *EngineTestSuite) TestRiskExitTakesPrecedenceOverSignal() {
	long := types.Position{ID: "p1", Symbol: "BTCUSDT", Side: types.SideLong, RemainingFraction: 1}
	stop := types.Exit{Reason: types.ExitReasonStopLoss, Fraction: 1, Price: 96}
	suite.risk.EXPECT().Positions("BTCUSDT").Return([]types.Position{long})
	suite.risk.EXPECT().CheckExits(long, suite.candle).Return(stop, true)

	d := suite.engine.Evaluate(suite.candle, bearPrev, bearCur)
	suite.Require().Len(d.Exits, 1)
	suite.Equal(stop, d.Exits[0].Exit)
}

func (suite *EngineTestSuite) TestSameSideCrossKeepsPosition() {
	long := types.Position{ID: "p1", Symbol: "BTCUSDT", Side: types.SideLong, RemainingFraction: 1}
	suite.risk.EXPECT().Positions("BTCUSDT").Return([]types.Position{long})
	suite.risk.EXPECT().CheckExits(long, suite.candle).Return(types.Exit{}, false)

	d := suite.engine.Evaluate(suite.candle, bullPrev, bullCur)
	suite.Empty(d.Exits)
	suite.True(d.Open.IsNone())
}

func (suite *EngineTestSuite) TestPartialExitKeepsState() {
	short := types.Position{ID: "p1", Symbol: "BTCUSDT", Side: types.SideShort, RemainingFraction: 1}
	tp1 := types.Exit{Reason: types.ExitReasonTakeProfit1, Fraction: 0.5, Price: 94}
	suite.risk.EXPECT().Positions("BTCUSDT").Return([]types.Position{short}).Times(2)
	suite.risk.EXPECT().CheckExits(short, suite.candle).Return(tp1, true)

	d := suite.engine.Evaluate(suite.candle, snap(9, 10, -1, 0), snap(8, 10, -2, 0))
	suite.Equal(types.StateShort, d.StateBefore)
	suite.Require().Len(d.Exits, 1)
	suite.Equal(types.StateShort, suite.engine.State())
}
