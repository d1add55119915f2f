package engine

import (
	"context"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1/datasource"
	pipeline "github.com/rxtech-lab/argo-crossover/internal/engine"
	"github.com/rxtech-lab/argo-crossover/internal/ledger"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	"github.com/rxtech-lab/argo-crossover/internal/stats"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/id"
	"go.uber.org/zap"
)

// Artifact names inside a run folder.
const (
	TradesParquetFile = "trades.parquet"
	TradesCSVFile     = "trades.csv"
	EquityCurveFile   = "equity_curve.csv"
	StatsFile         = "stats.yaml"
)

// DefaultInitialBalance is the simulated balance used when none is configured.
const DefaultInitialBalance = 10000.0

type BacktestEngineV1 struct {
	config        engine.BacktestEngineConfig
	dataPath      string
	resultsFolder string
	log           *logger.Logger
	datasource    datasource.DataSource
	now           func() time.Time
	initialized   bool
}

func NewBacktestEngineV1(log *logger.Logger) *BacktestEngineV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:        engine.BacktestEngineConfig{},
		dataPath:      "",
		resultsFolder: "",
		log:           log,
		datasource:    nil,
		now:           time.Now,
		initialized:   false,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config engine.BacktestEngineConfig) error {
	if config.InitialBalance == 0 {
		config.InitialBalance = DefaultInitialBalance
	}

	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if err := config.Indicators.Validate(); err != nil {
		return err
	}

	if err := config.Risk.Validate(); err != nil {
		return err
	}

	if _, err := types.ParseTimeframe(config.Interval); err != nil {
		return err
	}

	if config.StartTime.IsSome() && config.EndTime.IsSome() && config.EndTime.Unwrap().Before(config.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidDateRange, "end time is before start time")
	}

	b.config = config
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.String("symbol", config.Symbol),
		zap.String("interval", config.Interval),
		zap.Float64("initial_balance", config.InitialBalance),
	)

	return nil
}

// SetDataPath implements engine.Engine.
func (b *BacktestEngineV1) SetDataPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		b.log.Error("Failed to get absolute path",
			zap.String("path", path),
			zap.Error(err),
		)

		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid data path", err)
	}

	b.dataPath = absPath
	b.log.Debug("Data path set", zap.String("path", absPath))

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.log.Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

func (b *BacktestEngineV1) SetDataSource(datasource datasource.DataSource) error {
	b.datasource = datasource

	return nil
}

// SetClock replaces the clock used to stamp run IDs.
func (b *BacktestEngineV1) SetClock(now func() time.Time) {
	b.now = now
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return engine.GetConfigSchema()
}

// run holds the per-run state threaded through the runner hooks.
type run struct {
	id           string
	folder       string
	manager      *risk.Manager
	statsTracker *stats.StatsTracker
	tradesWriter *ledger.TradesWriter
	equityWriter *ledger.EquityWriter
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (result engine.Result, err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return engine.Result{}, err
	}

	if err := b.datasource.Initialize(b.dataPath); err != nil {
		return engine.Result{}, err
	}

	total, err := b.datasource.Count(b.config.Range())
	if err != nil {
		return engine.Result{}, err
	}

	if total == 0 {
		return engine.Result{}, errors.Newf(errors.ErrCodeDataNotFound, "no %s candles in %s", b.config.Symbol, b.dataPath)
	}

	r, err := b.newRun()
	if err != nil {
		return engine.Result{}, err
	}
	defer r.close(b.log)

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(r.id, b.config.Symbol, total); err != nil {
			return engine.Result{}, errors.Wrap(errors.ErrCodeBacktestInitFailed, "OnBacktestStart callback failed", err)
		}
	}

	runner, err := pipeline.NewRunner(b.config.Symbol, b.config.Indicators, r.manager,
		NewBacktestTrading(r.manager, b.config.InitialBalance), b.log, b.hooks(r, total, callbacks))
	if err != nil {
		return engine.Result{}, err
	}

	b.log.Info("Running backtest",
		zap.String("run_id", r.id),
		zap.String("symbol", b.config.Symbol),
		zap.String("data", b.dataPath),
		zap.Int("candles", total),
	)

	source := &candleSource{ds: b.datasource, r: b.config.Range(), err: nil}
	if err := runner.Run(ctx, source); err != nil {
		return engine.Result{}, err
	}

	if source.err != nil {
		return engine.Result{}, source.err
	}

	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}

	if last := runner.LastCandle(); last.IsSome() {
		c := last.Unwrap()
		if err := runner.CloseAll(c.Close, types.ExitReasonEndOfBacktest, c.OpenTime); err != nil {
			return engine.Result{}, err
		}
	}

	result, err = b.writeResults(r)
	if err != nil {
		return engine.Result{}, err
	}

	if callbacks.OnResultsWritten != nil {
		(*callbacks.OnResultsWritten)(result)
	}

	return result, nil
}

func (b *BacktestEngineV1) newRun() (*run, error) {
	manager, err := risk.NewManager(b.config.Risk)
	if err != nil {
		return nil, err
	}

	runID := id.New(b.now())
	folder := filepath.Join(b.resultsFolder, runID)

	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestNoResultsDir, "failed to create results folder", err)
	}

	tradesWriter := ledger.NewTradesWriter(filepath.Join(folder, TradesParquetFile))
	if err := tradesWriter.Initialize(); err != nil {
		return nil, err
	}

	equityWriter := ledger.NewEquityWriter()
	if err := equityWriter.Initialize(); err != nil {
		tradesWriter.Close()

		return nil, err
	}

	statsTracker := stats.NewStatsTracker(b.log, b.config.InitialBalance)
	statsTracker.Initialize("backtest", b.config.Symbol, b.config.Interval, runID, b.config.StartTime.TakeOr(time.Time{}))
	statsTracker.SetFilePaths(
		filepath.Join(folder, TradesParquetFile),
		filepath.Join(folder, EquityCurveFile),
		filepath.Join(folder, StatsFile),
	)

	return &run{
		id:           runID,
		folder:       folder,
		manager:      manager,
		statsTracker: statsTracker,
		tradesWriter: tradesWriter,
		equityWriter: equityWriter,
	}, nil
}

func (b *BacktestEngineV1) hooks(r *run, total int, callbacks engine.LifecycleCallbacks) pipeline.Hooks {
	processed := 0

	onCandle := pipeline.OnCandleCallback(func(c types.Candle, _ types.IndicatorSnapshot, _ bool) error {
		// positions are marked at the close after this candle's fills
		equity := r.manager.RealizedPnL().
			Add(r.manager.UnrealizedPnL(b.config.Symbol, c.Close)).
			InexactFloat64() + b.config.InitialBalance

		r.statsTracker.MarkEquity(c.OpenTime, equity)

		if err := r.equityWriter.Write(types.EquityPoint{Time: c.OpenTime, Equity: equity}); err != nil {
			return err
		}

		processed++

		if callbacks.OnProcessData != nil {
			return (*callbacks.OnProcessData)(processed, total)
		}

		return nil
	})

	opened := pipeline.OnPositionOpenedCallback(func(pos types.Position) error {
		if callbacks.OnPositionOpened != nil {
			return (*callbacks.OnPositionOpened)(pos)
		}

		return nil
	})

	closed := pipeline.OnPositionClosedCallback(func(entry types.TradeLogEntry) error {
		r.statsTracker.RecordTrade(entry)

		if err := r.tradesWriter.Write(entry); err != nil {
			return err
		}

		if callbacks.OnPositionClosed != nil {
			return (*callbacks.OnPositionClosed)(entry)
		}

		return nil
	})

	onError := pipeline.OnErrorCallback(func(err error) {
		b.log.Warn("Candle skipped", zap.String("run_id", r.id), zap.Error(err))
	})

	return pipeline.Hooks{
		OnCandle:         &onCandle,
		OnDecision:       nil,
		OnPositionOpened: &opened,
		OnPositionClosed: &closed,
		OnError:          &onError,
	}
}

func (b *BacktestEngineV1) writeResults(r *run) (engine.Result, error) {
	if err := r.tradesWriter.Flush(); err != nil {
		return engine.Result{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write trades", err)
	}

	if err := r.tradesWriter.ExportCSV(filepath.Join(r.folder, TradesCSVFile)); err != nil {
		return engine.Result{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write trades csv", err)
	}

	if err := r.equityWriter.Export(filepath.Join(r.folder, EquityCurveFile)); err != nil {
		return engine.Result{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write equity curve", err)
	}

	if err := r.statsTracker.WriteStatsYAML(); err != nil {
		return engine.Result{}, err
	}

	result := engine.Result{
		RunID:        r.id,
		ResultFolder: r.folder,
		Stats:        r.statsTracker.GetCumulativeStats(),
		Trades:       r.manager.TradeLog(),
		Equity:       r.statsTracker.EquityCurve(),
	}

	b.log.Info("Backtest finished",
		zap.String("run_id", r.id),
		zap.String("results", r.folder),
		zap.Int("trades", result.Stats.TradeResult.NumberOfTrades),
		zap.Float64("net_profit", result.Stats.TradePnl.NetProfit),
	)

	return result, nil
}

func (r *run) close(log *logger.Logger) {
	if err := r.tradesWriter.Close(); err != nil {
		log.Warn("Failed to close trades writer", zap.Error(err))
	}

	if err := r.equityWriter.Close(); err != nil {
		log.Warn("Failed to close equity writer", zap.Error(err))
	}
}

func (b *BacktestEngineV1) preRunCheck() error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestInitFailed, "engine not initialized - call Initialize() first")
	}

	if b.dataPath == "" {
		b.log.Error("No data path set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no data path set")
	}

	if b.resultsFolder == "" {
		b.log.Error("No results folder set")

		return errors.New(errors.ErrCodeBacktestNoResultsDir, "no results folder set")
	}

	if b.datasource == nil {
		ds, err := datasource.NewDataSource(b.log)
		if err != nil {
			return err
		}

		b.datasource = ds
	}

	return nil
}

// candleSource replays a datasource range. It stops early once ctx is cancelled and
// keeps the first read error, since the runner only reports source errors.
type candleSource struct {
	ds  datasource.DataSource
	r   datasource.Range
	err error
}

func (s *candleSource) Candles(ctx context.Context) iter.Seq2[types.Candle, error] {
	return func(yield func(types.Candle, error) bool) {
		for c, err := range s.ds.ReadAll(s.r) {
			if ctx.Err() != nil {
				return
			}

			if err != nil {
				s.err = err

				return
			}

			if !yield(c, nil) {
				return
			}
		}
	}
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

// Close releases the data source.
func (b *BacktestEngineV1) Close() error {
	if b.datasource == nil {
		return nil
	}

	return b.datasource.Close()
}
