package risk

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ManagerTestSuite struct {
	suite.Suite
	manager *Manager
	day     time.Time
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupTest() {
	cfg := DefaultConfig()
	cfg.QuantityPrecision = 6

	m, err := NewManager(cfg)
	suite.Require().NoError(err)

	suite.manager = m
	suite.day = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
}

func (suite *ManagerTestSuite) open(side types.Side, price, atr float64, at time.Time) types.Position {
	pos, err := suite.manager.OpenPosition("BTCUSDT", side, price, atr, 10000, at)
	suite.Require().NoError(err)

	return pos
}

func (suite *ManagerTestSuite) TestLevelsLong() {
	pos := suite.open(types.SideLong, 100, 2, suite.day)

	suite.Equal(100-2*2.0, pos.StopLoss)
	suite.Equal(100+3*2.0, pos.TakeProfit1)
	suite.Equal(100+5*2.0, pos.TakeProfit2)
	suite.Equal(1.0, pos.RemainingFraction)
	suite.Equal(pos.Size, pos.RemainingSize)
}

func (suite *ManagerTestSuite) TestLevelsShort() {
	pos := suite.open(types.SideShort, 100, 2, suite.day)

	suite.Equal(104.0, pos.StopLoss)
	suite.Equal(94.0, pos.TakeProfit1)
	suite.Equal(90.0, pos.TakeProfit2)
}

func (suite *ManagerTestSuite) TestRiskBasedSize() {
	balance, atr := 10000.0, 150.0
	pos, err := suite.manager.OpenPosition("BTCUSDT", types.SideLong, 42000, atr, balance, suite.day)
	suite.Require().NoError(err)

	expected := balance * 0.01 / (2 * atr)
	suite.InDelta(expected, pos.Size, 1e-6)
	suite.LessOrEqual(pos.Size, expected)

	// losing the whole position at the stop costs the risk budget
	loss := (pos.EntryPrice - pos.StopLoss) * pos.Size
	suite.InDelta(balance*0.01, loss, 0.01)
}

func (suite *ManagerTestSuite) TestSizeRoundsDownToPrecision() {
	cfg := DefaultConfig()
	cfg.QuantityPrecision = 3

	m, err := NewManager(cfg)
	suite.Require().NoError(err)

	// 10000*0.01/(2*7) = 7.142857...
	suite.Equal(7.142, m.Size(7, 10000))

	_, err = m.PlanOpen("BTCUSDT", types.SideLong, 100, 1e9, 10, suite.day)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	_, err = m.PlanOpen("BTCUSDT", types.SideLong, 100, 0, 10000, suite.day)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *ManagerTestSuite) TestPositionIDIsStable() {
	a := PositionID("BTCUSDT", types.SideLong, suite.day)
	b := PositionID("BTCUSDT", types.SideLong, suite.day.In(time.FixedZone("X", 3600)))
	c := PositionID("BTCUSDT", types.SideShort, suite.day)

	suite.Equal(a, b)
	suite.NotEqual(a, c)
	suite.Len(a, 36)
}

func (suite *ManagerTestSuite) TestConcurrentPositionCap() {
	suite.open(types.SideLong, 100, 2, suite.day)
	suite.open(types.SideShort, 100, 2, suite.day.Add(time.Minute))
	suite.False(suite.manager.CanOpen("BTCUSDT", suite.day.Add(2*time.Minute)))

	before := suite.manager.Positions("")
	_, err := suite.manager.OpenPosition("ETHUSDT", types.SideLong, 10, 1, 10000, suite.day.Add(2*time.Minute))
	suite.Error(err)
	suite.True(errors.IsRiskLimit(err))
	suite.False(errors.IsFatal(err))

	suite.Equal(before, suite.manager.Positions(""))
	suite.Equal(2, suite.manager.TradesToday(suite.day))
}

func (suite *ManagerTestSuite) TestDailyTradeCap() {
	at := suite.day
	for i := 0; i < 6; i++ {
		pos := suite.open(types.SideLong, 100, 2, at)
		_, err := suite.manager.ClosePosition(pos.ID, 101, types.ExitReasonSignal, at.Add(time.Minute))
		suite.Require().NoError(err)
		at = at.Add(time.Hour)
	}

	suite.Equal(6, suite.manager.TradesToday(at))
	suite.Equal(0, suite.manager.OpenCount())

	_, err := suite.manager.OpenPosition("BTCUSDT", types.SideLong, 100, 2, 10000, at)
	suite.True(errors.IsRiskLimit(err))

	// same calendar day, still blocked
	_, err = suite.manager.PlanOpen("BTCUSDT", types.SideLong, 100, 2, 10000, time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC))
	suite.True(errors.IsRiskLimit(err))

	nextDay := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	suite.True(suite.manager.CanOpen("BTCUSDT", nextDay))
	suite.open(types.SideLong, 100, 2, nextDay)
	suite.Equal(1, suite.manager.TradesToday(nextDay))
}

func (suite *ManagerTestSuite) TestOpenBeyondCapIsFatal() {
	intent, err := suite.manager.PlanOpen("BTCUSDT", types.SideLong, 100, 2, 10000, suite.day)
	suite.Require().NoError(err)

	suite.open(types.SideLong, 100, 2, suite.day.Add(time.Minute))
	suite.open(types.SideShort, 100, 2, suite.day.Add(2*time.Minute))

	_, err = suite.manager.Open(intent, types.Fill{Price: 100})
	suite.True(errors.IsFatal(err))
}

func (suite *ManagerTestSuite) TestOpenSameIDTwiceIsFatal() {
	intent, err := suite.manager.PlanOpen("BTCUSDT", types.SideLong, 100, 2, 10000, suite.day)
	suite.Require().NoError(err)

	_, err = suite.manager.Open(intent, types.Fill{})
	suite.Require().NoError(err)

	_, err = suite.manager.Open(intent, types.Fill{})
	suite.True(errors.IsFatal(err))
}

func (suite *ManagerTestSuite) TestFillPriceMovesLevels() {
	intent, err := suite.manager.PlanOpen("BTCUSDT", types.SideLong, 100, 2, 10000, suite.day)
	suite.Require().NoError(err)

	pos, err := suite.manager.Open(intent, types.Fill{Price: 101})
	suite.Require().NoError(err)
	suite.Equal(101.0, pos.EntryPrice)
	suite.Equal(97.0, pos.StopLoss)
	suite.Equal(2.0, pos.EntryATR)
}

func (suite *ManagerTestSuite) TestPartialThenFinalExit() {
	pos := suite.open(types.SideLong, 100, 2, suite.day)

	tp1, err := suite.manager.PlanExit(pos.ID, types.Exit{Reason: types.ExitReasonTakeProfit1, Fraction: 0.5, Price: 106}, suite.day.Add(time.Hour))
	suite.Require().NoError(err)
	suite.False(tp1.Final)

	entry, err := suite.manager.ApplyExit(tp1, types.Fill{})
	suite.Require().NoError(err)
	suite.Equal(106.0, entry.ExitPrice)
	suite.Equal(0.5, entry.Fraction)
	suite.InDelta(6*pos.Size*0.5, entry.PnL, 1e-9)
	suite.False(entry.Final)

	after, ok := suite.manager.Position(pos.ID)
	suite.True(ok)
	suite.True(after.TP1Taken)
	suite.Equal(0.5, after.RemainingFraction)
	suite.Equal(types.StateLong, types.StateOf(suite.manager.Positions("BTCUSDT")))

	final, err := suite.manager.ClosePosition(pos.ID, 110, types.ExitReasonTakeProfit2, suite.day.Add(2*time.Hour))
	suite.Require().NoError(err)
	suite.True(final.Final)
	suite.Equal(0.5, final.Fraction)

	_, ok = suite.manager.Position(pos.ID)
	suite.False(ok)
	suite.Equal(0, suite.manager.OpenCount())

	log := suite.manager.TradeLog()
	suite.Len(log, 2)
	suite.InDelta(pos.Size, log[0].Size+log[1].Size, 1e-12)
	suite.InDelta(log[0].PnL+log[1].PnL, suite.manager.RealizedPnL().InexactFloat64(), 1e-9)
}

func (suite *ManagerTestSuite) TestShortPnL() {
	pos := suite.open(types.SideShort, 100, 2, suite.day)

	entry, err := suite.manager.ClosePosition(pos.ID, 90, types.ExitReasonSignal, suite.day.Add(time.Hour))
	suite.Require().NoError(err)
	suite.InDelta(10*pos.Size, entry.PnL, 1e-9)
}

func (suite *ManagerTestSuite) TestInconsistentExits() {
	_, err := suite.manager.ClosePosition("missing", 100, types.ExitReasonSignal, suite.day)
	suite.True(errors.IsFatal(err))

	pos := suite.open(types.SideLong, 100, 2, suite.day)

	_, err = suite.manager.PlanExit(pos.ID, types.Exit{Reason: types.ExitReasonSignal, Fraction: 1.5, Price: 100}, suite.day)
	suite.True(errors.IsFatal(err))

	_, err = suite.manager.PlanExit(pos.ID, types.Exit{Reason: types.ExitReasonSignal, Fraction: 0, Price: 100}, suite.day)
	suite.True(errors.IsFatal(err))

	over := types.OrderIntent{
		Kind:       types.IntentClose,
		PositionID: pos.ID,
		Side:       pos.Side,
		Size:       pos.Size * 2,
		Fraction:   1,
		Price:      100,
		Final:      true,
	}
	_, err = suite.manager.ApplyExit(over, types.Fill{})
	suite.True(errors.IsFatal(err))

	_, err = suite.manager.ApplyExit(types.OrderIntent{Kind: types.IntentOpen, PositionID: pos.ID}, types.Fill{})
	suite.True(errors.IsFatal(err))

	suite.True(errors.IsFatal(suite.manager.Forget("missing")))
	suite.Len(suite.manager.TradeLog(), 0)
}

func (suite *ManagerTestSuite) TestRestoreAndForget() {
	pos := types.Position{
		ID:         "restored",
		Symbol:     "BTCUSDT",
		Side:       types.SideLong,
		EntryPrice: 100,
		Size:       0.5,
		StopLoss:   96,
	}
	suite.Require().NoError(suite.manager.Restore(pos))
	suite.True(errors.IsFatal(suite.manager.Restore(pos)))

	got, ok := suite.manager.Position("restored")
	suite.True(ok)
	suite.Equal(1.0, got.RemainingFraction)
	suite.Equal(0.5, got.RemainingSize)
	suite.Equal(0, suite.manager.TradesToday(suite.day))

	suite.InDelta(5.0, suite.manager.UnrealizedPnL("BTCUSDT", 110).InexactFloat64(), 1e-12)
	suite.True(suite.manager.UnrealizedPnL("ETHUSDT", 110).IsZero())

	suite.NoError(suite.manager.Forget("restored"))
	suite.Equal(0, suite.manager.OpenCount())
	suite.Len(suite.manager.TradeLog(), 0)
}

func (suite *ManagerTestSuite) TestPositionsAreOrderedAndFiltered() {
	first := suite.open(types.SideLong, 100, 2, suite.day)
	second, err := suite.manager.OpenPosition("ETHUSDT", types.SideShort, 10, 1, 10000, suite.day.Add(time.Minute))
	suite.Require().NoError(err)

	all := suite.manager.Positions("")
	suite.Require().Len(all, 2)
	suite.Equal(first.ID, all[0].ID)
	suite.Equal(second.ID, all[1].ID)

	suite.Len(suite.manager.Positions("ETHUSDT"), 1)
}

func (suite *ManagerTestSuite) TestIndependentManagers() {
	other, err := NewManager(DefaultConfig())
	suite.Require().NoError(err)

	suite.open(types.SideLong, 100, 2, suite.day)
	suite.Equal(0, other.OpenCount())
	suite.Equal(0, other.TradesToday(suite.day))
}

func (suite *ManagerTestSuite) TestInvalidConfig() {
	cfg := DefaultConfig()
	cfg.TakeProfit2ATR = 1
	_, err := NewManager(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	cfg = DefaultConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	_, err = NewManager(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimezone))
}
