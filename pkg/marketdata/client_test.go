package marketdata

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

// fakeProvider writes a fixed set of candles to whatever writer it is given.
type fakeProvider struct {
	writer  writer.MarketDataWriter
	candles []types.Candle
	err     error
}

func (f *fakeProvider) ConfigWriter(w writer.MarketDataWriter) {
	f.writer = w
}

func (f *fakeProvider) Download(_ context.Context, symbol string, _ string, _ time.Time, _ time.Time, onProgress provider.OnDownloadProgress) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	if err := f.writer.Initialize(); err != nil {
		return "", err
	}

	for i, c := range f.candles {
		if err := f.writer.Write(symbol, c); err != nil {
			return "", err
		}

		if onProgress != nil {
			onProgress(float64(i+1), float64(len(f.candles)), "")
		}
	}

	return f.writer.Finalize()
}

type ClientTestSuite struct {
	suite.Suite
	tempDir string
	params  DownloadParams
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
	suite.params = DownloadParams{
		Symbol:    "BTCUSDT",
		Interval:  "15m",
		StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *ClientTestSuite) config() ClientConfig {
	return ClientConfig{
		ProviderType: provider.ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     filepath.Join(suite.tempDir, "data"),
	}
}

func (suite *ClientTestSuite) TestNewClientValidation() {
	_, err := NewClient(ClientConfig{}, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	client, err := NewClient(suite.config(), nil)
	suite.Require().NoError(err)
	suite.NotNil(client)
}

func (suite *ClientTestSuite) TestDownloadWritesParquet() {
	candle := types.Candle{OpenTime: suite.params.StartDate, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 3}

	var calls int

	client := NewClientWithProvider(suite.config(), &fakeProvider{candles: []types.Candle{candle}},
		func(_, _ float64, _ string) { calls++ })

	path, err := client.Download(context.Background(), suite.params)
	suite.Require().NoError(err)

	suite.Equal(filepath.Join(suite.tempDir, "data", "BTCUSDT_15m_2024-03-01_2024-03-02.parquet"), path)
	suite.FileExists(path)
	suite.Equal(1, calls)
}

func (suite *ClientTestSuite) TestDownloadValidation() {
	client := NewClientWithProvider(suite.config(), &fakeProvider{}, nil)

	params := suite.params
	params.EndDate = params.StartDate.Add(-time.Hour)
	_, err := client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	params = suite.params
	params.Interval = "2d"
	_, err = client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *ClientTestSuite) TestProviderErrorKeepsItsCode() {
	client := NewClientWithProvider(suite.config(),
		&fakeProvider{err: errors.New(errors.ErrCodeMarketDataFetchFailed, "503")}, nil)

	_, err := client.Download(context.Background(), suite.params)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
}

func (suite *ClientTestSuite) TestOutputFileName() {
	suite.Equal("BTCUSDT_15m_2024-03-01_2024-03-02.parquet", OutputFileName(suite.params))
}
