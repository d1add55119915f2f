package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-crossover/internal/backtest/engine"
	enginev1 "github.com/rxtech-lab/argo-crossover/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-crossover/internal/config"
	"github.com/rxtech-lab/argo-crossover/internal/stats"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay the strategy over historical candles",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Parquet `FILE` with the candles. Downloaded when omitted.",
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Results `DIR`, overrides backtest.results_folder",
			},
		}, dateFlags()...),
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	defer log.Sync() //nolint:errcheck

	if cmd.IsSet("results") {
		cfg.Backtest.ResultsFolder = cmd.String("results")
	}

	out := cmd.Root().Writer
	start, end := dateRange(cmd, cfg.Backtest.Days, time.Now())

	dataPath := cmd.String("data")
	if dataPath == "" {
		dataPath, err = cachedOrDownload(ctx, cfg, start, end, out)
		if err != nil {
			return err
		}
	}

	backtester := enginev1.NewBacktestEngineV1(log)
	defer backtester.Close()

	bounds := cfg.BacktestEngineConfig(optional.Some(start), optional.Some(end.Add(-time.Nanosecond)))
	if cmd.String("data") != "" && !cmd.IsSet(flagStart) && !cmd.IsSet(flagEnd) {
		// a given file is replayed whole unless dates are asked for
		bounds = cfg.BacktestEngineConfig(optional.None[time.Time](), optional.None[time.Time]())
	}

	if err := backtester.Initialize(bounds); err != nil {
		return err
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		return err
	}

	if err := backtester.SetResultsFolder(cfg.Backtest.ResultsFolder); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	onStart := engine.OnBacktestStartCallback(func(runID string, symbol string, total int) error {
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(fmt.Sprintf("Replaying %s (%s)", symbol, runID)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		return nil
	})
	onProcess := engine.OnProcessDataCallback(func(current int, _ int) error {
		return bar.Set(current)
	})

	result, err := backtester.Run(ctx, engine.LifecycleCallbacks{
		OnBacktestStart: &onStart,
		OnProcessData:   &onProcess,
	})
	if err != nil {
		return err
	}

	_ = bar.Finish()

	_, err = fmt.Fprintf(out, "%s\nresults in %s\n", stats.FormatSummary(result.Stats), result.ResultFolder)

	return err
}

// cachedOrDownload reuses a file of an earlier download of the same range.
func cachedOrDownload(ctx context.Context, cfg config.Config, start, end time.Time, out io.Writer) (string, error) {
	path := filepath.Join(cfg.Backtest.DataFolder, marketdata.OutputFileName(marketdata.DownloadParams{
		Symbol:    cfg.Symbol,
		Interval:  cfg.Interval,
		StartDate: start,
		EndDate:   end,
	}))

	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	return download(ctx, cfg, start, end, out)
}
