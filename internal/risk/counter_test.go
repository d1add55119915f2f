package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type DailyTradeCounterTestSuite struct {
	suite.Suite
}

func TestDailyTradeCounterSuite(t *testing.T) {
	suite.Run(t, new(DailyTradeCounterTestSuite))
}

func (suite *DailyTradeCounterTestSuite) TestRollsOverAtMidnight() {
	c := NewDailyTradeCounter(time.UTC)
	day := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	suite.Equal(0, c.Count(day))
	suite.Equal(1, c.Increment(day))
	suite.Equal(2, c.Increment(day.Add(13*time.Hour)))
	suite.Equal(2, c.Count(day.Add(13*time.Hour+59*time.Minute)))

	next := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	suite.Equal(0, c.Count(next))
	suite.Equal(1, c.Increment(next))
	// the previous day is gone once superseded
	suite.Equal(0, c.Count(day))
}

func (suite *DailyTradeCounterTestSuite) TestUsesConfiguredZone() {
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	c := NewDailyTradeCounter(tokyo)

	// 14:00 UTC is 23:00 in UTC+9, 15:30 UTC is already the next day there
	late := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	afterMidnight := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)

	c.Increment(late)
	suite.Equal(1, c.Count(late))
	suite.Equal(0, c.Count(afterMidnight))

	utc := NewDailyTradeCounter(nil)
	utc.Increment(late)
	suite.Equal(1, utc.Count(afterMidnight))
}

func (suite *DailyTradeCounterTestSuite) TestConfigLocation() {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	suite.NoError(err)
	suite.Equal(time.UTC, loc)

	cfg.Timezone = ""
	loc, err = cfg.Location()
	suite.NoError(err)
	suite.Equal(time.UTC, loc)
}
