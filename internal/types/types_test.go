package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) TestCheckOrder() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []Candle{
		{OpenTime: base},
		{OpenTime: base.Add(15 * time.Minute)},
		// gap is allowed
		{OpenTime: base.Add(time.Hour)},
	}
	suite.NoError(CheckOrder(candles))

	duplicate := append([]Candle{}, candles...)
	duplicate = append(duplicate, Candle{OpenTime: base.Add(time.Hour)})
	err := CheckOrder(duplicate)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeCandleOutOfOrder))

	reversed := []Candle{candles[1], candles[0]}
	suite.Error(CheckOrder(reversed))
	suite.NoError(CheckOrder(nil))
}

func (suite *TypesTestSuite) TestParseTimeframe() {
	d, err := ParseTimeframe("15m")
	suite.NoError(err)
	suite.Equal(15*time.Minute, d)

	d, err = ParseTimeframe("4h")
	suite.NoError(err)
	suite.Equal(4*time.Hour, d)

	_, err = ParseTimeframe("7m")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *TypesTestSuite) TestStateOf() {
	suite.Equal(StateFlat, StateOf(nil))
	suite.Equal(StateLong, StateOf([]Position{{Side: SideLong}}))
	suite.Equal(StateShort, StateOf([]Position{{Side: SideShort}}))
	suite.Equal(SideShort, SideLong.Opposite())
	suite.Equal(SideLong, SideShort.Opposite())
}

func (suite *TypesTestSuite) TestCrossoverEventAgrees() {
	bull := CrossoverEvent{EMA: CrossoverEMABull, MACD: CrossoverMACDBull}
	suite.True(bull.Bullish())
	suite.True(bull.Agrees(SideLong))
	suite.False(bull.Agrees(SideShort))

	mixed := CrossoverEvent{EMA: CrossoverEMABull, MACD: CrossoverNone}
	suite.False(mixed.Bullish())
	suite.False(mixed.Bearish())

	bear := CrossoverEvent{EMA: CrossoverEMABear, MACD: CrossoverMACDBear}
	suite.True(bear.Agrees(SideShort))
}

func (suite *TypesTestSuite) TestOrderIntentValidate() {
	open := OrderIntent{
		Kind:        IntentOpen,
		PositionID:  "7d444840-9dc0-11d1-b245-5ffdce74fad2",
		Symbol:      "BTCUSDT",
		Side:        SideLong,
		Price:       100,
		Size:        0.5,
		Fraction:    1,
		ATR:         2,
		StopLoss:    96,
		TakeProfit1: 106,
		TakeProfit2: 110,
		Time:        time.Now(),
	}
	suite.NoError(open.Validate())

	missingLevels := open
	missingLevels.StopLoss = 0
	err := missingLevels.Validate()
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrderIntent))

	closeWithoutReason := open
	closeWithoutReason.Kind = IntentClose
	suite.Error(closeWithoutReason.Validate())

	closeWithoutReason.Reason = ExitReasonSignal
	suite.NoError(closeWithoutReason.Validate())

	badSide := open
	badSide.Side = "sideways"
	suite.Error(badSide.Validate())
}

func (suite *TypesTestSuite) TestWriteTradingStats() {
	path := filepath.Join(suite.T().TempDir(), "stats.yaml")
	stats := TradingStats{
		ID:             "run-1",
		Symbol:         "BTCUSDT",
		InitialBalance: 10000,
		FinalBalance:   10250,
		ReturnPercent:  2.5,
		TradeResult:    TradeResult{NumberOfTrades: 3, NumberOfWinningTrades: 2, NumberOfLosingTrades: 1},
	}
	suite.Require().NoError(WriteTradingStats(path, stats))

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)

	var decoded TradingStats
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Equal("BTCUSDT", decoded.Symbol)
	suite.Equal(10250.0, decoded.FinalBalance)
	suite.Equal(2, decoded.TradeResult.NumberOfWinningTrades)
}

func (suite *TypesTestSuite) TestWriteTradingStatsBadPath() {
	err := WriteTradingStats(filepath.Join(suite.T().TempDir(), "missing", "stats.yaml"), TradingStats{})
	suite.True(errors.HasCode(err, errors.ErrCodeResultWriteFailed))
}
