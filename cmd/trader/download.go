package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/config"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata"
	"github.com/rxtech-lab/argo-crossover/pkg/marketdata/provider"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download completed candles of the configured symbol into a parquet file",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output `DIR`, overrides backtest.data_folder",
			},
		}, dateFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			defer log.Sync() //nolint:errcheck

			if cmd.IsSet("output") {
				cfg.Backtest.DataFolder = cmd.String("output")
			}

			start, end := dateRange(cmd, cfg.Backtest.Days, time.Now())

			path, err := download(ctx, cfg, start, end, cmd.Root().Writer)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.Root().Writer, "saved %s\n", path)

			return err
		},
	}
}

// dateRange reads --start-date and --end-date. A missing end is today and a missing start
// is days before the end.
func dateRange(cmd *cli.Command, days int, now time.Time) (time.Time, time.Time) {
	end := now.UTC().Truncate(24 * time.Hour)
	if cmd.IsSet(flagEnd) {
		end = cmd.Timestamp(flagEnd)
	}

	start := end.AddDate(0, 0, -days)
	if cmd.IsSet(flagStart) {
		start = cmd.Timestamp(flagStart)
	}

	return start, end
}

func download(ctx context.Context, cfg config.Config, start, end time.Time, out io.Writer) (string, error) {
	bar := progressbar.NewOptions(1000,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s %s", cfg.Symbol, cfg.Interval)),
		progressbar.OptionClearOnFinish(),
	)

	var onProgress provider.OnDownloadProgress = func(current float64, total float64, _ string) {
		if total > 0 {
			_ = bar.Set(int(current / total * 1000))
		}
	}

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType: provider.ProviderBinance,
		WriterType:   marketdata.WriterDuckDB,
		DataPath:     cfg.Backtest.DataFolder,
	}, onProgress)
	if err != nil {
		return "", err
	}

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Symbol:    cfg.Symbol,
		Interval:  cfg.Interval,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return "", err
	}

	_ = bar.Finish()

	return path, nil
}
