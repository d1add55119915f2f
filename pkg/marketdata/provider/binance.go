package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/cenkalti/backoff/v4"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/writer"
)

// binancePageSize is the largest kline page the futures API serves.
const binancePageSize = 1500

// BinanceKlinesService is the part of the futures klines service the downloader uses.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*futures.Kline, error)
}

// BinanceAPIClient abstracts the futures client for testing.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type realBinanceAPIClient struct {
	client *futures.Client
}

func (r *realBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &realBinanceKlinesService{service: r.client.NewKlinesService()}
}

type realBinanceKlinesService struct {
	service *futures.KlinesService
}

func (s *realBinanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.service = s.service.StartTime(startTime)

	return s
}

func (s *realBinanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.service = s.service.EndTime(endTime)

	return s
}

func (s *realBinanceKlinesService) Limit(limit int) BinanceKlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realBinanceKlinesService) Do(ctx context.Context) ([]*futures.Kline, error) {
	return s.service.Do(ctx)
}

// BinanceClient downloads USDT-M futures klines. The klines endpoint is public, so no
// keys are needed.
type BinanceClient struct {
	client  BinanceAPIClient
	writer  writer.MarketDataWriter
	now     func() time.Time
	backOff func() backoff.BackOff
}

// NewBinanceClient creates a downloader against baseURL, or the production futures API
// when baseURL is empty.
func NewBinanceClient(baseURL string) (*BinanceClient, error) {
	client := futures.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}

	return NewBinanceClientWithAPI(&realBinanceAPIClient{client: client}), nil
}

// NewBinanceClientWithAPI creates a downloader around a custom API client.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		client: api,
		now:    time.Now,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.Multiplier = 2

			return backoff.WithMaxRetries(b, 2)
		},
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download pages through the klines of the range and writes every completed candle.
// A candle still forming at the time of the call is left out.
func (c *BinanceClient) Download(ctx context.Context, symbol string, interval string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	period, err := types.ParseTimeframe(interval)
	if err != nil {
		return "", err
	}

	if !endDate.After(startDate) {
		return "", errors.Newf(errors.ErrCodeInvalidDateRange, "end %s is not after start %s",
			endDate.Format(time.RFC3339), startDate.Format(time.RFC3339))
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", err
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	now := c.now()
	current := startMillis

	for current <= endMillis {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		klines, err := c.fetch(ctx, symbol, interval, current, endMillis)
		if err != nil {
			return "", err
		}

		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			candle, err := klineToCandle(k)
			if err != nil {
				return "", err
			}

			if candle.OpenTime.Add(period).After(now) {
				continue
			}

			if err := c.writer.Write(symbol, candle); err != nil {
				return "", err
			}
		}

		current = klines[len(klines)-1].OpenTime + period.Milliseconds()

		if onProgress != nil {
			onProgress(float64(min(current, endMillis)-startMillis), float64(endMillis-startMillis),
				"Downloading "+symbol+" "+interval+" klines from Binance")
		}

		if len(klines) < binancePageSize {
			break
		}
	}

	return c.writer.Finalize()
}

func (c *BinanceClient) fetch(ctx context.Context, symbol, interval string, start, end int64) ([]*futures.Kline, error) {
	return backoff.RetryWithData(func() ([]*futures.Kline, error) {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(start).
			EndTime(end).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s %s klines", symbol, interval)
		}

		return klines, nil
	}, backoff.WithContext(c.backOff(), ctx))
}

func klineToCandle(k *futures.Kline) (types.Candle, error) {
	values := make([]float64, 5)

	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Candle{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", raw)
		}

		values[i] = v
	}

	return types.Candle{
		OpenTime: time.UnixMilli(k.OpenTime).UTC(),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}

var _ Provider = (*BinanceClient)(nil)
