package engine_v1

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	tradingprovider "github.com/rxtech-lab/argo-crossover/internal/trading/provider"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// Poll is the result of one fetch of the polling data source.
type Poll struct {
	// Candles are the completed candles not returned by an earlier poll, oldest first.
	Candles []types.Candle
	// Resync is true on the first poll and whenever the last seen candle is no longer
	// in the fetched window. Indicator history has to be rebuilt from Candles then.
	Resync bool
}

// PollingDataSource fetches the most recent candles on demand. A candle is handed out
// again on every poll until it is committed.
type PollingDataSource struct {
	feed     tradingprovider.CandleFeed
	symbol   string
	interval string
	period   time.Duration
	limit    int
	now      func() time.Time
	lastSeen optional.Option[time.Time]
}

// NewPollingDataSource creates a source for symbol at interval. limit is the number of
// candles fetched per poll and must be larger than the indicator lookback.
func NewPollingDataSource(feed tradingprovider.CandleFeed, symbol, interval string, limit int, now func() time.Time) (*PollingDataSource, error) {
	period, err := types.ParseTimeframe(interval)
	if err != nil {
		return nil, err
	}

	if limit < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "candle limit must be at least 2, got %d", limit)
	}

	if now == nil {
		now = time.Now
	}

	return &PollingDataSource{
		feed:     feed,
		symbol:   symbol,
		interval: interval,
		period:   period,
		limit:    limit,
		now:      now,
		lastSeen: optional.None[time.Time](),
	}, nil
}

// LastSeen is the open time of the newest committed candle.
func (p *PollingDataSource) LastSeen() optional.Option[time.Time] {
	return p.lastSeen
}

// Commit marks every candle up to openTime as processed. Older times are ignored.
func (p *PollingDataSource) Commit(openTime time.Time) {
	if p.lastSeen.IsSome() && !openTime.After(p.lastSeen.Unwrap()) {
		return
	}

	p.lastSeen = optional.Some(openTime)
}

// Poll fetches the window and returns the completed candles newer than the last
// committed one. A candle is completed once its close time is not after now. An empty result with
// a nil error means nothing closed since the last poll.
func (p *PollingDataSource) Poll(ctx context.Context) (Poll, error) {
	candles, err := p.feed.GetCandles(ctx, p.symbol, p.interval, p.limit)
	if err != nil {
		return Poll{}, err
	}

	now := p.now()
	completed := candles[:0:0]

	for _, c := range candles {
		if c.OpenTime.Add(p.period).After(now) {
			continue
		}

		completed = append(completed, c)
	}

	if err := types.CheckOrder(completed); err != nil {
		return Poll{}, err
	}

	if len(completed) == 0 {
		return Poll{}, nil
	}

	if p.lastSeen.IsNone() {
		return Poll{Candles: completed, Resync: true}, nil
	}

	last := p.lastSeen.Unwrap()

	if completed[0].OpenTime.After(last) {
		// the window no longer reaches back to what was processed, candles were missed
		return Poll{Candles: completed, Resync: true}, nil
	}

	fresh := completed[:0:0]

	for _, c := range completed {
		if c.OpenTime.After(last) {
			fresh = append(fresh, c)
		}
	}

	return Poll{Candles: fresh}, nil
}
