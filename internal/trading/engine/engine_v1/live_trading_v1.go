package engine_v1

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	pipeline "github.com/rxtech-lab/argo-crossover/internal/engine"
	"github.com/rxtech-lab/argo-crossover/internal/ledger"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/notify"
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	"github.com/rxtech-lab/argo-crossover/internal/stats"
	"github.com/rxtech-lab/argo-crossover/internal/trading/engine"
	"github.com/rxtech-lab/argo-crossover/internal/trading/engine/engine_v1/session"
	tradingprovider "github.com/rxtech-lab/argo-crossover/internal/trading/provider"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/zap"
)

// Default configuration values.
const (
	DefaultPollInterval = 60 * time.Second
	DefaultCandleLimit  = 200
)

// LiveTradingEngineV1 implements the LiveTradingEngine interface with a polling loop.
//
// Every tick fetches the recent candles, adopts exchange positions it does not know,
// feeds each newly completed candle through the shared runner and then releases
// positions the exchange no longer holds. A tick always runs to completion; cancellation
// is only observed while sleeping.
type LiveTradingEngineV1 struct {
	config          engine.LiveTradingEngineConfig
	tradingProvider tradingprovider.TradingSystemProvider
	notifier        notify.Notifier
	manager         *risk.Manager
	location        *time.Location
	log             *logger.Logger
	now             func() time.Time
	initialized     bool

	sessionManager *session.SessionManager
	statsTracker   *stats.StatsTracker
	tradesWriter   *ledger.TradesWriter
}

// NewLiveTradingEngineV1 creates a new engine logging to log.
func NewLiveTradingEngineV1(log *logger.Logger) *LiveTradingEngineV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &LiveTradingEngineV1{
		log: log,
		now: time.Now,
	}
}

// SetClock replaces the wall clock used to tell completed candles from forming ones.
func (e *LiveTradingEngineV1) SetClock(now func() time.Time) {
	e.now = now
}

// Initialize implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) Initialize(config engine.LiveTradingEngineConfig) error {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	if config.CandleLimit <= 0 {
		config.CandleLimit = DefaultCandleLimit
	}

	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid live trading config", err)
	}

	if err := config.Indicators.Validate(); err != nil {
		return err
	}

	if _, err := types.ParseTimeframe(config.Interval); err != nil {
		return err
	}

	if config.CandleLimit <= config.Indicators.Lookback() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"candle_limit %d must exceed the indicator lookback %d", config.CandleLimit, config.Indicators.Lookback())
	}

	manager, err := risk.NewManager(config.Risk)
	if err != nil {
		return err
	}

	location, err := config.Risk.Location()
	if err != nil {
		return err
	}

	e.config = config
	e.manager = manager
	e.location = location

	if config.DataOutputPath != "" {
		e.sessionManager = session.NewSessionManager(e.log, location)
		if err := e.sessionManager.Initialize(config.DataOutputPath, e.now()); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to initialize session manager", err)
		}

		if err := e.openTradesWriter(); err != nil {
			return err
		}
	}

	e.initialized = true

	e.log.Debug("Live trading engine initialized",
		zap.String("symbol", config.Symbol),
		zap.String("interval", config.Interval),
		zap.Duration("poll_interval", config.PollInterval),
		zap.Int("candle_limit", config.CandleLimit),
	)

	return nil
}

func (e *LiveTradingEngineV1) openTradesWriter() error {
	w := ledger.NewTradesWriter(e.sessionManager.GetFilePath("trades.parquet"))
	if err := w.Initialize(); err != nil {
		return err
	}

	e.tradesWriter = w

	return nil
}

// SetTradingProvider implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) SetTradingProvider(provider tradingprovider.TradingSystemProvider) error {
	e.tradingProvider = provider
	e.log.Debug("Trading provider set")

	return nil
}

// SetNotifier implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) SetNotifier(notifier notify.Notifier) error {
	e.notifier = notifier

	return nil
}

// Manager exposes the risk manager for inspection.
func (e *LiveTradingEngineV1) Manager() *risk.Manager {
	return e.manager
}

// GetConfigSchema implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) GetConfigSchema() (string, error) {
	return engine.GetConfigSchema()
}

func (e *LiveTradingEngineV1) preRunCheck() error {
	if !e.initialized {
		return errors.New(errors.ErrCodeInvalidConfiguration, "engine not initialized - call Initialize() first")
	}

	if e.tradingProvider == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "trading provider not set - call SetTradingProvider() first")
	}

	if e.notifier == nil {
		e.notifier = notify.NewLogNotifier(e.log)
	}

	return nil
}

// Run implements engine.LiveTradingEngine.
func (e *LiveTradingEngineV1) Run(ctx context.Context, callbacks engine.LiveTradingCallbacks) error {
	var runErr error

	defer func() {
		e.shutdown(runErr)

		if callbacks.OnEngineStop != nil {
			(*callbacks.OnEngineStop)(runErr)
		}
	}()

	if err := e.preRunCheck(); err != nil {
		runErr = err

		return err
	}

	initialBalance, err := e.tradingProvider.GetBalance(ctx, e.config.QuoteAsset)
	if err != nil {
		runErr = errors.Wrap(errors.GetCode(err), "failed to read the starting balance", err)

		return runErr
	}

	e.statsTracker = stats.NewStatsTracker(e.log, initialBalance)
	runID := ""
	runPath := ""

	if e.sessionManager != nil {
		runID = e.sessionManager.GetRunID()
		runPath = e.sessionManager.GetCurrentRunPath()
		e.setStatsPaths()
	}

	e.statsTracker.Initialize("live", e.config.Symbol, e.config.Interval, runID, e.now().In(e.location))

	onError := pipeline.OnErrorCallback(func(err error) {
		e.notifyEvent(ctx, notify.Event{Kind: notify.EventError, Symbol: e.config.Symbol, Time: e.now(), Err: err})

		if callbacks.OnError != nil {
			(*callbacks.OnError)(err)
		}
	})

	runner, err := pipeline.NewRunner(e.config.Symbol, e.config.Indicators, e.manager,
		NewExchangeExecutor(e.tradingProvider, e.manager, e.config.Symbol, e.config.QuoteAsset, e.config.Leverage, e.log, &onError),
		e.log, e.hooks(ctx, callbacks, &onError))
	if err != nil {
		runErr = err

		return err
	}

	source, err := NewPollingDataSource(e.tradingProvider, e.config.Symbol, e.config.Interval, e.config.CandleLimit, e.now)
	if err != nil {
		runErr = err

		return err
	}

	if callbacks.OnEngineStart != nil {
		if err := (*callbacks.OnEngineStart)(e.config.Symbol, e.config.Interval, runPath); err != nil {
			runErr = errors.Wrap(errors.ErrCodeInvalidParameter, "OnEngineStart callback failed", err)

			return runErr
		}
	}

	e.notifyEvent(ctx, notify.Event{
		Kind:    notify.EventStarted,
		Symbol:  e.config.Symbol,
		Time:    e.now(),
		Message: fmt.Sprintf("interval %s, balance %.2f %s", e.config.Interval, initialBalance, e.config.QuoteAsset),
	})

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()

			return runErr
		case <-timer.C:
		}

		tick, err := e.Tick(context.WithoutCancel(ctx), runner, source)
		if err != nil {
			if errors.IsFatal(err) {
				e.log.Error("Fatal error, stopping live trading", zap.Error(err))

				runErr = err

				return err
			}

			onError(err)
		} else if len(tick.Candles) > 0 && callbacks.OnTick != nil {
			if err := (*callbacks.OnTick)(tick); err != nil {
				runErr = err

				return err
			}
		}

		timer.Reset(e.config.PollInterval)
	}
}

// Tick runs one poll: fetch, adopt, evaluate every new candle, release. Errors from
// the exchange end the tick early and are returned; the next tick starts from fresh
// exchange state. A candle is committed to the source only once it was evaluated, so
// candles of a failed tick are polled again.
func (e *LiveTradingEngineV1) Tick(ctx context.Context, runner *pipeline.Runner, source *PollingDataSource) (engine.TickResult, error) {
	result := engine.TickResult{Time: e.now(), State: types.StateOf(e.manager.Positions(e.config.Symbol))}

	poll, err := source.Poll(ctx)
	if err != nil {
		return result, err
	}

	if len(poll.Candles) == 0 {
		return result, nil
	}

	result.Candles = poll.Candles
	result.Resynced = poll.Resync
	candles := poll.Candles

	if poll.Resync {
		runner.Reset()

		for _, c := range candles[:len(candles)-1] {
			if err := runner.Warm(c); err != nil {
				return result, err
			}
		}

		candles = candles[len(candles)-1:]

		e.log.Info("Indicator history rebuilt",
			zap.String("symbol", e.config.Symbol),
			zap.Int("candles", len(poll.Candles)-1),
		)
	}

	if runner.LastSnapshot().IsSome() {
		exchange, err := e.tradingProvider.GetOpenPositions(ctx, e.config.Symbol)
		if err != nil {
			return result, err
		}

		adopted, err := runner.Adopt(exchange)
		if err != nil {
			return result, err
		}

		result.Adopted = adopted
	}

	for _, c := range candles {
		e.handleDateBoundary(ctx, c.OpenTime)

		if err := runner.Step(ctx, c); err != nil {
			return result, err
		}

		source.Commit(c.OpenTime)
		e.markEquity(c)
	}

	if runner.LastSnapshot().IsSome() {
		exchange, err := e.tradingProvider.GetOpenPositions(ctx, e.config.Symbol)
		if err != nil {
			return result, err
		}

		closed, err := runner.Release(exchange)
		if err != nil {
			return result, err
		}

		result.Closed = closed
	}

	result.State = types.StateOf(e.manager.Positions(e.config.Symbol))

	if err := e.statsTracker.WriteStatsYAML(); err != nil {
		e.log.Warn("Failed to write stats", zap.Error(err))
	}

	return result, nil
}

func (e *LiveTradingEngineV1) hooks(ctx context.Context, callbacks engine.LiveTradingCallbacks, onError *pipeline.OnErrorCallback) pipeline.Hooks {
	opened := pipeline.OnPositionOpenedCallback(func(pos types.Position) error {
		e.notifyEvent(ctx, notify.Event{Kind: notify.EventPositionOpened, Symbol: pos.Symbol, Time: pos.OpenedAt, Position: &pos})

		if callbacks.OnPositionOpened != nil {
			return (*callbacks.OnPositionOpened)(pos)
		}

		return nil
	})

	closed := pipeline.OnPositionClosedCallback(func(entry types.TradeLogEntry) error {
		e.statsTracker.RecordTrade(entry)

		if e.tradesWriter != nil {
			if err := e.tradesWriter.Write(entry); err != nil {
				e.log.Warn("Failed to persist trade", zap.String("position_id", entry.PositionID), zap.Error(err))
			}
		}

		e.notifyEvent(ctx, notify.Event{Kind: notify.EventPositionClosed, Symbol: entry.Symbol, Time: entry.ClosedAt, Trade: &entry})

		if callbacks.OnPositionClosed != nil {
			if err := (*callbacks.OnPositionClosed)(entry); err != nil {
				return err
			}
		}

		if callbacks.OnStatsUpdate != nil {
			return (*callbacks.OnStatsUpdate)(e.statsTracker.GetCumulativeStats())
		}

		return nil
	})

	return pipeline.Hooks{
		OnPositionOpened: &opened,
		OnPositionClosed: &closed,
		OnError:          onError,
	}
}

// handleDateBoundary rolls the daily stats and the session folder when a candle opens on
// a new day, and sends the summary of the day that ended.
func (e *LiveTradingEngineV1) handleDateBoundary(ctx context.Context, at time.Time) {
	date := at.In(e.location).Format(time.DateOnly)

	daily := e.statsTracker.GetDailyStats()

	if _, changed := e.statsTracker.HandleDateBoundary(date); !changed {
		return
	}

	e.notifyEvent(ctx, notify.Event{
		Kind:    notify.EventDailySummary,
		Symbol:  e.config.Symbol,
		Time:    at,
		Message: stats.FormatSummary(daily),
	})

	if e.sessionManager == nil {
		return
	}

	moved, err := e.sessionManager.HandleDateBoundary(at)
	if err != nil {
		e.log.Warn("Failed to handle date boundary", zap.Error(err))

		return
	}

	if !moved {
		return
	}

	if e.tradesWriter != nil {
		if err := e.tradesWriter.Close(); err != nil {
			e.log.Warn("Failed to close trades writer", zap.Error(err))
		}
	}

	if err := e.openTradesWriter(); err != nil {
		e.log.Warn("Failed to open trades writer for the new day", zap.Error(err))

		e.tradesWriter = nil
	}

	e.setStatsPaths()
}

func (e *LiveTradingEngineV1) setStatsPaths() {
	e.statsTracker.SetFilePaths(
		e.sessionManager.GetFilePath("trades.parquet"),
		"",
		e.sessionManager.GetFilePath("stats.yaml"),
	)
}

// markEquity marks the balance plus the open pnl at the candle close.
func (e *LiveTradingEngineV1) markEquity(c types.Candle) {
	cumulative := e.statsTracker.GetCumulativeStats()
	unrealized := e.manager.UnrealizedPnL(e.config.Symbol, c.Close).InexactFloat64()

	e.statsTracker.MarkEquity(c.OpenTime, cumulative.FinalBalance+unrealized)
}

func (e *LiveTradingEngineV1) notifyEvent(ctx context.Context, event notify.Event) {
	if err := e.notifier.Notify(ctx, event); err != nil {
		e.log.Warn("Notification failed", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}

func (e *LiveTradingEngineV1) shutdown(runErr error) {
	if e.statsTracker != nil {
		if err := e.statsTracker.WriteStatsYAML(); err != nil {
			e.log.Warn("Failed to write final stats", zap.Error(err))
		}
	}

	if e.tradesWriter != nil {
		if err := e.tradesWriter.Flush(); err != nil {
			e.log.Warn("Failed to flush trades writer", zap.Error(err))
		}

		if err := e.tradesWriter.Close(); err != nil {
			e.log.Warn("Failed to close trades writer", zap.Error(err))
		}
	}

	if e.notifier != nil {
		event := notify.Event{Kind: notify.EventStopped, Symbol: e.config.Symbol, Time: e.now()}
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			event.Err = runErr
		}

		e.notifyEvent(context.Background(), event)
	}
}

// Verify LiveTradingEngineV1 implements engine.LiveTradingEngine interface.
var _ engine.LiveTradingEngine = (*LiveTradingEngineV1)(nil)
