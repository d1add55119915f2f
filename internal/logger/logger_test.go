package logger

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type LoggerTestSuite struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTestSuite))
}

func (suite *LoggerTestSuite) TestNewLogger() {
	logger, err := NewLogger()
	suite.NoError(err)
	suite.NotNil(logger)
	suite.NotNil(logger.Logger)
	suite.True(logger.Core().Enabled(zap.InfoLevel))
	suite.False(logger.Core().Enabled(zap.DebugLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithLevel() {
	logger, err := NewLoggerWithLevel("debug")
	suite.NoError(err)
	suite.True(logger.Core().Enabled(zap.DebugLevel))

	logger, err = NewLoggerWithLevel("warn")
	suite.NoError(err)
	suite.False(logger.Core().Enabled(zap.InfoLevel))
}

func (suite *LoggerTestSuite) TestNewLoggerWithInvalidLevel() {
	logger, err := NewLoggerWithLevel("loud")
	suite.Error(err)
	suite.Nil(logger)
}

func (suite *LoggerTestSuite) TestNopLogger() {
	logger := NewNopLogger()
	suite.NotNil(logger.Logger)

	// Should not panic
	logger.Info("discarded", zap.String("symbol", "BTCUSDT"))
	suite.NoError(logger.Sync())
}

func (suite *LoggerTestSuite) TestLoggerSyncNilLogger() {
	logger := &Logger{Logger: nil}
	suite.NoError(logger.Sync())
}
