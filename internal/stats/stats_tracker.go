// Package stats accumulates trade and equity statistics for backtests and live sessions.
package stats

import (
	"sync"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatsAccumulator holds running statistics. A trade is one position round trip: its
// partial exits are summed and counted once, when the final exit arrives.
type StatsAccumulator struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	RealizedPnL   decimal.Decimal
	GrossProfit   decimal.Decimal
	GrossLoss     decimal.Decimal
	MaxProfit     float64
	MaxLoss       float64
	HoldingTimes  []time.Duration
}

func newStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{
		RealizedPnL: decimal.Zero,
		GrossProfit: decimal.Zero,
		GrossLoss:   decimal.Zero,
	}
}

func (acc *StatsAccumulator) add(pnl decimal.Decimal, holding time.Duration) {
	acc.TotalTrades++

	if pnl.IsPositive() {
		acc.WinningTrades++
		acc.GrossProfit = acc.GrossProfit.Add(pnl)
	} else {
		acc.LosingTrades++
		acc.GrossLoss = acc.GrossLoss.Add(pnl.Neg())
	}

	v := pnl.InexactFloat64()
	if v > acc.MaxProfit {
		acc.MaxProfit = v
	}

	if v < acc.MaxLoss {
		acc.MaxLoss = v
	}

	if holding > 0 {
		acc.HoldingTimes = append(acc.HoldingTimes, holding)
	}
}

// StatsTracker tracks statistics of one symbol. It is safe for concurrent use.
type StatsTracker struct {
	mode           string
	symbol         string
	timeframe      string
	runID          string
	sessionStart   time.Time
	currentDate    string
	initialBalance decimal.Decimal

	// open round trips keyed by position id
	open map[string]decimal.Decimal

	// Daily accumulators (reset on date boundary)
	dailyStats *StatsAccumulator

	// Cumulative accumulators (from session start)
	cumulativeStats *StatsAccumulator

	equity             []types.EquityPoint
	peakEquity         float64
	maxDrawdown        float64
	maxDrawdownPercent float64

	tradesFilePath  string
	equityFilePath  string
	statsOutputPath string

	mu     sync.Mutex
	logger *logger.Logger
}

// NewStatsTracker creates a tracker starting from initialBalance.
func NewStatsTracker(log *logger.Logger, initialBalance float64) *StatsTracker {
	return &StatsTracker{
		initialBalance:  decimal.NewFromFloat(initialBalance),
		open:            make(map[string]decimal.Decimal),
		dailyStats:      newStatsAccumulator(),
		cumulativeStats: newStatsAccumulator(),
		peakEquity:      initialBalance,
		logger:          log,
	}
}

// Initialize sets up the stats tracker with session information.
func (s *StatsTracker) Initialize(mode, symbol, timeframe, runID string, sessionStart time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = mode
	s.symbol = symbol
	s.timeframe = timeframe
	s.runID = runID
	s.sessionStart = sessionStart
	s.currentDate = sessionStart.Format(time.DateOnly)

	s.logger.Info("Stats tracker initialized",
		zap.String("run_id", runID),
		zap.String("mode", mode),
		zap.String("symbol", symbol),
	)
}

// SetFilePaths sets the artifact paths referenced from the summary.
func (s *StatsTracker) SetFilePaths(tradesPath, equityPath, statsPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tradesFilePath = tradesPath
	s.equityFilePath = equityPath
	s.statsOutputPath = statsPath
}

// RecordTrade adds one trade log entry.
func (s *StatsTracker) RecordTrade(entry types.TradeLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pnl, ok := s.open[entry.PositionID]
	if !ok {
		pnl = decimal.Zero
	}

	pnl = pnl.Add(decimal.NewFromFloat(entry.PnL))

	s.dailyStats.RealizedPnL = s.dailyStats.RealizedPnL.Add(decimal.NewFromFloat(entry.PnL))
	s.cumulativeStats.RealizedPnL = s.cumulativeStats.RealizedPnL.Add(decimal.NewFromFloat(entry.PnL))

	if !entry.Final {
		s.open[entry.PositionID] = pnl

		return
	}

	delete(s.open, entry.PositionID)

	holding := entry.ClosedAt.Sub(entry.OpenedAt)
	s.dailyStats.add(pnl, holding)
	s.cumulativeStats.add(pnl, holding)

	s.logger.Debug("Trade recorded",
		zap.String("position_id", entry.PositionID),
		zap.Float64("pnl", pnl.InexactFloat64()),
		zap.Int("total_trades", s.cumulativeStats.TotalTrades),
	)
}

// MarkEquity records the equity at t and updates the drawdown.
func (s *StatsTracker) MarkEquity(t time.Time, equity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.equity = append(s.equity, types.EquityPoint{Time: t, Equity: equity})

	if equity > s.peakEquity {
		s.peakEquity = equity
	}

	drawdown := s.peakEquity - equity
	if drawdown > s.maxDrawdown {
		s.maxDrawdown = drawdown
	}

	if s.peakEquity > 0 {
		if pct := drawdown / s.peakEquity * 100; pct > s.maxDrawdownPercent {
			s.maxDrawdownPercent = pct
		}
	}
}

// EquityCurve returns a copy of the marked equity points.
func (s *StatsTracker) EquityCurve() []types.EquityPoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]types.EquityPoint, len(s.equity))
	copy(out, s.equity)

	return out
}

// HandleDateBoundary resets the daily stats when date differs from the current one and
// returns the stats of the day that ended.
func (s *StatsTracker) HandleDateBoundary(date string) (StatsAccumulator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if date == s.currentDate {
		return StatsAccumulator{}, false
	}

	ended := *s.dailyStats
	oldDate := s.currentDate
	s.currentDate = date
	s.dailyStats = newStatsAccumulator()

	s.logger.Info("Date boundary handled, daily stats reset",
		zap.String("old_date", oldDate),
		zap.String("new_date", date),
		zap.Int("trades", ended.TotalTrades),
		zap.Float64("pnl", ended.RealizedPnL.InexactFloat64()),
	)

	return ended, true
}

// GetDailyStats returns the current daily statistics.
func (s *StatsTracker) GetDailyStats() types.TradingStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.build(s.dailyStats)
}

// GetCumulativeStats returns the statistics since the session started.
func (s *StatsTracker) GetCumulativeStats() types.TradingStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.build(s.cumulativeStats)
}

func (s *StatsTracker) build(acc *StatsAccumulator) types.TradingStats {
	winRate := 0.0
	if acc.TotalTrades > 0 {
		winRate = float64(acc.WinningTrades) / float64(acc.TotalTrades) * 100
	}

	profitFactor := 0.0
	if acc.GrossLoss.IsPositive() {
		profitFactor = acc.GrossProfit.Div(acc.GrossLoss).InexactFloat64()
	}

	final := s.initialBalance.Add(acc.RealizedPnL)

	returnPercent := 0.0
	if s.initialBalance.IsPositive() {
		returnPercent = acc.RealizedPnL.Div(s.initialBalance).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	stats := types.TradingStats{
		ID:                 s.runID,
		Mode:               s.mode,
		Timestamp:          time.Now(),
		Symbol:             s.symbol,
		Timeframe:          s.timeframe,
		Start:              s.sessionStart,
		InitialBalance:     s.initialBalance.InexactFloat64(),
		FinalBalance:       final.InexactFloat64(),
		ReturnPercent:      returnPercent,
		MaxDrawdown:        s.maxDrawdown,
		MaxDrawdownPercent: s.maxDrawdownPercent,
		TradeResult: types.TradeResult{
			NumberOfTrades:        acc.TotalTrades,
			NumberOfWinningTrades: acc.WinningTrades,
			NumberOfLosingTrades:  acc.LosingTrades,
			WinRate:               winRate,
			ProfitFactor:          profitFactor,
		},
		TradePnl: types.TradePnl{
			NetProfit:     acc.RealizedPnL.InexactFloat64(),
			GrossProfit:   acc.GrossProfit.InexactFloat64(),
			GrossLoss:     acc.GrossLoss.InexactFloat64(),
			MaximumLoss:   acc.MaxLoss,
			MaximumProfit: acc.MaxProfit,
		},
		TradesFilePath: s.tradesFilePath,
		EquityFilePath: s.equityFilePath,
	}

	if n := len(s.equity); n > 0 {
		stats.Start = s.equity[0].Time
		stats.End = s.equity[n-1].Time
	}

	return stats
}

// WriteStatsYAML writes the cumulative stats to the configured stats path.
func (s *StatsTracker) WriteStatsYAML() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statsOutputPath == "" {
		return nil // No output path configured
	}

	return types.WriteTradingStats(s.statsOutputPath, s.build(s.cumulativeStats))
}

// GetRunID returns the run ID.
func (s *StatsTracker) GetRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runID
}
