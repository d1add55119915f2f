package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	argoerrors "github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockWriter records candles instead of writing them.
type mockWriter struct {
	initialized   bool
	initializeErr error
	writeErr      error
	outputPath    string
	symbols       []string
	written       []types.Candle
	finalized     int
}

func (m *mockWriter) Initialize() error {
	if m.initializeErr != nil {
		return m.initializeErr
	}

	m.initialized = true

	return nil
}

func (m *mockWriter) Write(symbol string, candle types.Candle) error {
	if m.writeErr != nil {
		return m.writeErr
	}

	m.symbols = append(m.symbols, symbol)
	m.written = append(m.written, candle)

	return nil
}

func (m *mockWriter) Finalize() (string, error) {
	m.finalized++

	return m.outputPath, nil
}

func (m *mockWriter) Close() error {
	return nil
}

func (m *mockWriter) GetOutputPath() string {
	return m.outputPath
}

// mockBinanceAPIClient serves one page per call.
type mockBinanceAPIClient struct {
	pages  [][]*futures.Kline
	errs   []error
	calls  int
	starts []int64
	limit  int
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockBinanceKlinesService{client: m}
}

type mockBinanceKlinesService struct {
	client *mockBinanceAPIClient
}

func (s *mockBinanceKlinesService) Symbol(string) BinanceKlinesService   { return s }
func (s *mockBinanceKlinesService) Interval(string) BinanceKlinesService { return s }
func (s *mockBinanceKlinesService) EndTime(int64) BinanceKlinesService   { return s }

func (s *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.client.starts = append(s.client.starts, startTime)

	return s
}

func (s *mockBinanceKlinesService) Limit(limit int) BinanceKlinesService {
	s.client.limit = limit

	return s
}

func (s *mockBinanceKlinesService) Do(_ context.Context) ([]*futures.Kline, error) {
	call := s.client.calls
	s.client.calls++

	if call < len(s.client.errs) && s.client.errs[call] != nil {
		return nil, s.client.errs[call]
	}

	if len(s.client.pages) == 0 {
		return nil, nil
	}

	page := s.client.pages[0]
	s.client.pages = s.client.pages[1:]

	return page, nil
}

var start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func klines(from, count int) []*futures.Kline {
	out := make([]*futures.Kline, count)

	for i := range count {
		openTime := start.Add(time.Duration(from+i) * time.Hour)
		price := strconv.Itoa(100 + from + i)
		out[i] = &futures.Kline{
			OpenTime:  openTime.UnixMilli(),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    "1",
			CloseTime: openTime.Add(time.Hour).UnixMilli() - 1,
		}
	}

	return out
}

type BinanceDownloadTestSuite struct {
	suite.Suite
	api    *mockBinanceAPIClient
	writer *mockWriter
	client *BinanceClient
}

func TestBinanceDownloadSuite(t *testing.T) {
	suite.Run(t, new(BinanceDownloadTestSuite))
}

func (suite *BinanceDownloadTestSuite) SetupTest() {
	suite.api = &mockBinanceAPIClient{}
	suite.writer = &mockWriter{outputPath: "/tmp/out.parquet"}
	suite.client = NewBinanceClientWithAPI(suite.api)
	suite.client.now = func() time.Time { return start.AddDate(1, 0, 0) }
	suite.client.backOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	suite.client.ConfigWriter(suite.writer)
}

func (suite *BinanceDownloadTestSuite) TestPagesUntilShortPage() {
	suite.api.pages = [][]*futures.Kline{klines(0, binancePageSize), klines(binancePageSize, 3)}

	var progress []float64

	path, err := suite.client.Download(context.Background(), "BTCUSDT", "1h", start, start.AddDate(0, 3, 0),
		func(current, _ float64, _ string) { progress = append(progress, current) })
	suite.Require().NoError(err)

	suite.Equal("/tmp/out.parquet", path)
	suite.True(suite.writer.initialized)
	suite.Equal(1, suite.writer.finalized)
	suite.Len(suite.writer.written, binancePageSize+3)
	suite.Equal("BTCUSDT", suite.writer.symbols[0])
	suite.Equal(2, suite.api.calls)
	suite.Equal(binancePageSize, suite.api.limit)
	suite.Equal([]int64{start.UnixMilli(), start.Add(binancePageSize * time.Hour).UnixMilli()}, suite.api.starts)
	suite.Len(progress, 2)

	first := suite.writer.written[0]
	suite.Equal(start, first.OpenTime)
	suite.Equal(100.0, first.Close)
}

func (suite *BinanceDownloadTestSuite) TestFormingCandleIsLeftOut() {
	suite.api.pages = [][]*futures.Kline{klines(0, 3)}
	suite.client.now = func() time.Time { return start.Add(150 * time.Minute) }

	_, err := suite.client.Download(context.Background(), "BTCUSDT", "1h", start, start.Add(3*time.Hour), nil)
	suite.Require().NoError(err)
	suite.Len(suite.writer.written, 2)
}

func (suite *BinanceDownloadTestSuite) TestRetriesFailedPage() {
	suite.api.errs = []error{errors.New("503")}
	suite.api.pages = [][]*futures.Kline{klines(0, 2)}

	_, err := suite.client.Download(context.Background(), "BTCUSDT", "1h", start, start.Add(24*time.Hour), nil)
	suite.Require().NoError(err)
	suite.Equal(2, suite.api.calls)
	suite.Len(suite.writer.written, 2)
}

func (suite *BinanceDownloadTestSuite) TestGivesUpAfterRetries() {
	failure := errors.New("503")
	suite.api.errs = []error{failure, failure, failure}

	_, err := suite.client.Download(context.Background(), "BTCUSDT", "1h", start, start.Add(24*time.Hour), nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeMarketDataFetchFailed))
	suite.Equal(3, suite.api.calls)
	suite.Zero(suite.writer.finalized)
}

func (suite *BinanceDownloadTestSuite) TestInvalidKline() {
	page := klines(0, 1)
	page[0].Close = "abc"
	suite.api.pages = [][]*futures.Kline{page}

	_, err := suite.client.Download(context.Background(), "BTCUSDT", "1h", start, start.Add(24*time.Hour), nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeMarketDataParseFailed))
}

func (suite *BinanceDownloadTestSuite) TestRejectsBadRequests() {
	_, err := suite.client.Download(context.Background(), "BTCUSDT", "7m", start, start.Add(time.Hour), nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeInvalidTimeframe))

	_, err = suite.client.Download(context.Background(), "BTCUSDT", "1h", start, start, nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeInvalidDateRange))

	client := NewBinanceClientWithAPI(suite.api)
	_, err = client.Download(context.Background(), "BTCUSDT", "1h", start, start.Add(time.Hour), nil)
	suite.True(argoerrors.HasCode(err, argoerrors.ErrCodeMarketDataWriteFailed))
}

func (suite *BinanceDownloadTestSuite) TestDownloadOverHTTP() {
	router := mux.NewRouter()
	router.HandleFunc("/fapi/v1/klines", func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("ETHUSDT", r.URL.Query().Get("symbol"))
		suite.Equal("1h", r.URL.Query().Get("interval"))
		suite.Equal(strconv.FormatInt(start.UnixMilli(), 10), r.URL.Query().Get("startTime"))

		rows := [][]any{
			{start.UnixMilli(), "100", "110", "95", "105", "10", start.Add(time.Hour).UnixMilli() - 1, "1000", 12, "5", "500", "0"},
			{start.Add(time.Hour).UnixMilli(), "105", "106", "101", "102", "7", start.Add(2*time.Hour).UnixMilli() - 1, "700", 9, "3", "300", "0"},
		}

		w.Header().Set("Content-Type", "application/json")
		suite.NoError(json.NewEncoder(w).Encode(rows))
	}).Methods(http.MethodGet)

	server := httptest.NewServer(router)
	defer server.Close()

	client, err := NewBinanceClient(server.URL)
	suite.Require().NoError(err)
	client.ConfigWriter(suite.writer)

	_, err = client.Download(context.Background(), "ETHUSDT", "1h", start, start.Add(2*time.Hour), nil)
	suite.Require().NoError(err)
	suite.Require().Len(suite.writer.written, 2)
	suite.Equal(types.Candle{OpenTime: start, Open: 100, High: 110, Low: 95, Close: 105, Volume: 10}, suite.writer.written[0])
}
