package engine

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/indicator"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	"github.com/rxtech-lab/argo-crossover/internal/strategy"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/zap"
)

// Runner drives one symbol through indicators, decisions, execution and booking.
// It is not safe for concurrent use; each symbol gets its own Runner.
type Runner struct {
	symbol     string
	cfg        indicator.Config
	acc        indicator.Accumulator
	prev       optional.Option[types.IndicatorSnapshot]
	lastCandle optional.Option[types.Candle]
	manager    *risk.Manager
	engine     *strategy.Engine
	executor   FillExecutor
	log        *logger.Logger
	hooks      Hooks
}

// NewRunner validates the indicator config and returns a runner with an empty history.
func NewRunner(symbol string, cfg indicator.Config, manager *risk.Manager, executor FillExecutor, log *logger.Logger, hooks Hooks) (*Runner, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if manager == nil || executor == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "risk manager and executor are required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Runner{
		symbol:     symbol,
		cfg:        cfg,
		acc:        indicator.NewAccumulator(cfg),
		prev:       optional.None[types.IndicatorSnapshot](),
		lastCandle: optional.None[types.Candle](),
		manager:    manager,
		engine:     strategy.NewEngine(symbol, manager),
		executor:   executor,
		log:        log,
		hooks:      hooks,
	}, nil
}

func (r *Runner) Symbol() string {
	return r.symbol
}

// Manager returns the risk manager the runner books into.
func (r *Runner) Manager() *risk.Manager {
	return r.manager
}

// LastCandle is the most recent candle fed to the runner.
func (r *Runner) LastCandle() optional.Option[types.Candle] {
	return r.lastCandle
}

// LastSnapshot is the indicator snapshot at the most recent candle, None while warming up.
func (r *Runner) LastSnapshot() optional.Option[types.IndicatorSnapshot] {
	return r.prev
}

// Run feeds every candle of source through Step until the source ends.
// Source errors are reported and skipped unless fatal. Each candle is processed to
// completion even when ctx is cancelled meanwhile.
func (r *Runner) Run(ctx context.Context, source CandleSource) error {
	for c, err := range source.Candles(ctx) {
		if err != nil {
			if errors.IsFatal(err) {
				return err
			}

			r.report(err)

			continue
		}

		if err := r.Step(context.WithoutCancel(ctx), c); err != nil {
			return err
		}
	}

	return nil
}

// Reset drops the indicator history, keeping positions. The next candles warm up again.
func (r *Runner) Reset() {
	r.acc = indicator.NewAccumulator(r.cfg)
	r.prev = optional.None[types.IndicatorSnapshot]()
}

// Warm feeds a candle into the indicators without evaluating it. Live trading uses it to
// catch up on history that is too old to act on.
func (r *Runner) Warm(c types.Candle) error {
	_, err := r.advance(c)

	return err
}

// Step feeds one completed candle and, once two snapshots exist, evaluates it and applies
// the resulting exits and entry. Only fatal errors and aborting callbacks are returned.
func (r *Runner) Step(ctx context.Context, c types.Candle) error {
	prev := r.prev

	snap, err := r.advance(c)
	if err != nil {
		return err
	}

	if snap.IsNone() || prev.IsNone() {
		return r.onCandle(c, snap)
	}

	d := r.engine.Evaluate(c, prev.Unwrap(), snap.Unwrap())

	if r.hooks.OnDecision != nil {
		if err := (*r.hooks.OnDecision)(d); err != nil {
			return err
		}
	}

	for _, pe := range d.Exits {
		if err := r.exit(ctx, pe.Position, pe.Exit, c.OpenTime); err != nil {
			return err
		}
	}

	if d.Blocked {
		r.log.Info("Entry blocked by risk limits",
			zap.String("symbol", r.symbol),
			zap.Time("candle", c.OpenTime),
			zap.Int("open_positions", r.manager.OpenCount()),
			zap.Int("trades_today", r.manager.TradesToday(c.OpenTime)),
		)
	}

	if d.Open.IsSome() {
		if err := r.open(ctx, d.Open.Unwrap(), c, snap.Unwrap()); err != nil {
			return err
		}
	}

	return r.onCandle(c, snap)
}

func (r *Runner) advance(c types.Candle) (optional.Option[types.IndicatorSnapshot], error) {
	acc, snap, err := r.acc.Next(c)
	if err != nil {
		return snap, err
	}

	r.acc = acc
	r.lastCandle = optional.Some(c)

	if snap.IsSome() {
		r.prev = snap
	}

	return snap, nil
}

func (r *Runner) onCandle(c types.Candle, snap optional.Option[types.IndicatorSnapshot]) error {
	if r.hooks.OnCandle == nil {
		return nil
	}

	return (*r.hooks.OnCandle)(c, snap.TakeOr(types.IndicatorSnapshot{}), snap.IsSome())
}

func (r *Runner) exit(ctx context.Context, pos types.Position, exit types.Exit, at time.Time) error {
	intent, err := r.manager.PlanExit(pos.ID, exit, at)
	if err != nil {
		return err
	}

	fill, err := r.executor.Execute(ctx, intent)
	if err != nil {
		if errors.IsFatal(err) {
			return err
		}

		// the position stays open and is checked again on the next candle
		r.report(errors.Wrapf(errors.GetCode(err), err, "exit %s of position %s failed", exit.Reason, pos.ID))

		return nil
	}

	entry, err := r.manager.ApplyExit(intent, fill)
	if err != nil {
		return err
	}

	r.log.Info("Position reduced",
		zap.String("symbol", r.symbol),
		zap.String("position_id", entry.PositionID),
		zap.String("reason", string(entry.Reason)),
		zap.Float64("price", entry.ExitPrice),
		zap.Float64("size", entry.Size),
		zap.Float64("pnl", entry.PnL),
		zap.Bool("final", entry.Final),
	)

	if r.hooks.OnPositionClosed != nil {
		return (*r.hooks.OnPositionClosed)(entry)
	}

	return nil
}

func (r *Runner) open(ctx context.Context, side types.Side, c types.Candle, snap types.IndicatorSnapshot) error {
	balance, err := r.executor.Balance(ctx)
	if err != nil {
		r.report(errors.Wrap(errors.GetCode(err), "cannot read balance, skipping entry", err))

		return nil
	}

	intent, err := r.manager.PlanOpen(r.symbol, side, c.Close, snap.ATR, balance, c.OpenTime)
	if err != nil {
		if errors.IsFatal(err) {
			return err
		}

		r.log.Info("Entry skipped",
			zap.String("symbol", r.symbol),
			zap.String("side", string(side)),
			zap.Float64("balance", balance),
			zap.Float64("atr", snap.ATR),
			zap.Error(err),
		)

		return nil
	}

	fill, err := r.executor.Execute(ctx, intent)
	if err != nil {
		if errors.IsFatal(err) {
			return err
		}

		r.report(errors.Wrapf(errors.GetCode(err), err, "open %s %s failed", side, r.symbol))

		return nil
	}

	pos, err := r.manager.Open(intent, fill)
	if err != nil {
		return err
	}

	r.log.Info("Position opened",
		zap.String("symbol", r.symbol),
		zap.String("position_id", pos.ID),
		zap.String("side", string(pos.Side)),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("size", pos.Size),
		zap.Float64("stop_loss", pos.StopLoss),
		zap.Float64("take_profit_1", pos.TakeProfit1),
		zap.Float64("take_profit_2", pos.TakeProfit2),
	)

	if r.hooks.OnPositionOpened != nil {
		return (*r.hooks.OnPositionOpened)(pos)
	}

	return nil
}

func (r *Runner) report(err error) {
	r.log.Warn("Skipping after error", zap.String("symbol", r.symbol), zap.Error(err))

	if r.hooks.OnError != nil {
		(*r.hooks.OnError)(err)
	}
}

// CloseAll closes whatever remains of every position of the symbol at price without going
// through the executor. The backtest uses it at the end of data.
func (r *Runner) CloseAll(price float64, reason types.ExitReason, at time.Time) error {
	for _, pos := range r.manager.Positions(r.symbol) {
		entry, err := r.manager.ClosePosition(pos.ID, price, reason, at)
		if err != nil {
			return err
		}

		if r.hooks.OnPositionClosed != nil {
			if err := (*r.hooks.OnPositionClosed)(entry); err != nil {
				return err
			}
		}
	}

	return nil
}
