package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) TestOnProcessDataCallbackWithProgress() {
	var progress []int
	callback := OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)
		return nil
	})

	for i := 1; i <= 5; i++ {
		err := callback(i, 5)
		suite.NoError(err)
	}

	suite.Equal([]int{1, 2, 3, 4, 5}, progress)
}

func (suite *EngineTestSuite) TestRangeCarriesBounds() {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	config := BacktestEngineConfig{Symbol: "BTCUSDT", StartTime: optional.Some(start), EndTime: optional.None[time.Time]()}
	r := config.Range()

	suite.Equal(start, r.Start.Unwrap())
	suite.True(r.End.IsNone())
	suite.Equal("BTCUSDT", r.Symbol)
}

func (suite *EngineTestSuite) TestConfigSchema() {
	schema, err := GetConfigSchema()
	suite.Require().NoError(err)

	var parsed map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &parsed))

	properties, ok := parsed["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "initial_balance")
	suite.Contains(properties, "risk")
	suite.NotContains(properties, "StartTime")
}
