package datasource

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/mocks"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	ds      *DuckDBDataSource
	candles []types.Candle
	path    string
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	suite.candles = mocks.CandlesFromCloses(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Hour, 1, closes...)
	suite.path = filepath.Join(suite.T().TempDir(), "BTCUSDT_1h.parquet")

	w := writer.NewDuckDBWriter(suite.path)
	suite.Require().NoError(w.Initialize())

	// written in reverse with a second symbol mixed in
	for i := len(suite.candles) - 1; i >= 0; i-- {
		suite.Require().NoError(w.Write("BTCUSDT", suite.candles[i]))
	}

	suite.Require().NoError(w.Write("ETHUSDT", suite.candles[0]))

	_, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Require().NoError(w.Close())

	ds, err := NewDataSource(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(ds.Initialize(suite.path))
	suite.ds = ds
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	if suite.ds != nil {
		suite.ds.Close()
	}
}

func (suite *DuckDBDataSourceTestSuite) collect(r Range) []types.Candle {
	var out []types.Candle

	for c, err := range suite.ds.ReadAll(r) {
		suite.Require().NoError(err)

		out = append(out, c)
	}

	return out
}

func (suite *DuckDBDataSourceTestSuite) TestReadAllIsOrdered() {
	got := suite.collect(Range{Symbol: "BTCUSDT"})

	suite.Require().Len(got, len(suite.candles))
	suite.Equal(suite.candles, got)
	suite.NoError(types.CheckOrder(got))
}

func (suite *DuckDBDataSourceTestSuite) TestReadAllWithinRange() {
	got := suite.collect(Range{
		Symbol: "BTCUSDT",
		Start:  optional.Some(suite.candles[5].OpenTime),
		End:    optional.Some(suite.candles[9].OpenTime),
	})

	suite.Equal(suite.candles[5:10], got)
}

func (suite *DuckDBDataSourceTestSuite) TestReadAllStopsEarly() {
	n := 0

	for _, err := range suite.ds.ReadAll(Range{Symbol: "BTCUSDT"}) {
		suite.Require().NoError(err)

		n++
		if n == 3 {
			break
		}
	}

	suite.Equal(3, n)
}

func (suite *DuckDBDataSourceTestSuite) TestCount() {
	count, err := suite.ds.Count(Range{Symbol: "BTCUSDT"})
	suite.Require().NoError(err)
	suite.Equal(len(suite.candles), count)

	count, err = suite.ds.Count(Range{})
	suite.Require().NoError(err)
	suite.Equal(len(suite.candles)+1, count)

	count, err = suite.ds.Count(Range{Symbol: "BTCUSDT", Start: optional.Some(suite.candles[25].OpenTime)})
	suite.Require().NoError(err)
	suite.Equal(5, count)
}

func (suite *DuckDBDataSourceTestSuite) TestGetAllSymbols() {
	symbols, err := suite.ds.GetAllSymbols()
	suite.Require().NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, symbols)
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeMissingFile() {
	ds, err := NewDataSource(logger.NewNopLogger())
	suite.Require().NoError(err)
	defer ds.Close()

	err = ds.Initialize(filepath.Join(suite.T().TempDir(), "missing.parquet"))
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *DuckDBDataSourceTestSuite) TestReadAllBeforeInitialize() {
	ds, err := NewDataSource(logger.NewNopLogger())
	suite.Require().NoError(err)
	defer ds.Close()

	for _, err := range ds.ReadAll(Range{}) {
		suite.True(errors.HasCode(err, errors.ErrCodeQueryFailed))
	}
}
