package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rxtech-lab/argo-crossover/internal/trading/engine"
	enginev1 "github.com/rxtech-lab/argo-crossover/internal/trading/engine/engine_v1"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func tradeCommand() *cli.Command {
	return &cli.Command{
		Name:  "trade",
		Usage: "Run the live polling loop until interrupted",
		Flags: []cli.Flag{
			configFlag(),
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between polls, overrides live.poll_interval",
			},
		},
		Action: tradeAction,
	}
}

func tradeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	defer log.Sync() //nolint:errcheck

	if cmd.IsSet("interval") {
		cfg.Live.PollInterval = cmd.Duration("interval")
	}

	provider, err := cfg.TradingProvider(log)
	if err != nil {
		return err
	}

	notifier, err := cfg.Notifier(log)
	if err != nil {
		return err
	}

	defer notifier.Close()

	trader := enginev1.NewLiveTradingEngineV1(log)
	if err := trader.Initialize(cfg.LiveEngineConfig()); err != nil {
		return err
	}

	if err := trader.SetTradingProvider(provider); err != nil {
		return err
	}

	if err := trader.SetNotifier(notifier); err != nil {
		return err
	}

	out := cmd.Root().Writer

	onStart := engine.OnEngineStartCallback(func(symbol string, interval string, runPath string) error {
		fmt.Fprintf(out, "trading %s %s via %s, polling every %s\n", symbol, interval, cfg.Exchange.Provider, cfg.Live.PollInterval)

		if runPath != "" {
			fmt.Fprintf(out, "session data in %s\n", runPath)
		}

		return nil
	})
	onOpened := engine.OnPositionOpenedCallback(func(pos types.Position) error {
		fmt.Fprintf(out, "opened %s %s %.4f @ %.2f (sl %.2f, tp1 %.2f, tp2 %.2f)\n",
			pos.Side, pos.Symbol, pos.Size, pos.EntryPrice, pos.StopLoss, pos.TakeProfit1, pos.TakeProfit2)

		return nil
	})
	onClosed := engine.OnPositionClosedCallback(func(entry types.TradeLogEntry) error {
		fmt.Fprintf(out, "closed %s %s %.4f @ %.2f (%s) pnl %.2f\n",
			entry.Side, entry.Symbol, entry.Size, entry.ExitPrice, entry.Reason, entry.PnL)

		return nil
	})
	onError := engine.OnErrorCallback(func(err error) {
		log.Warn("Tick failed", zap.Error(err))
	})

	err = trader.Run(ctx, engine.LiveTradingCallbacks{
		OnEngineStart:    &onStart,
		OnPositionOpened: &onOpened,
		OnPositionClosed: &onClosed,
		OnError:          &onError,
	})
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "stopped")

		return nil
	}

	return err
}
