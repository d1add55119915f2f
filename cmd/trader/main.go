package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/config"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/urfave/cli/v3"

	// timezones for the daily trade counter on hosts without zoneinfo
	_ "time/tzdata"
)

const (
	flagConfig = "config"
	flagStart  = "start-date"
	flagEnd    = "end-date"
)

// Flags are built per command because a flag keeps its parsed value.
func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagConfig,
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config `FILE`. Defaults apply when omitted.",
		Sources: cli.EnvVars("TRADER_CONFIG"),
	}
}

func dateFlags() []cli.Flag {
	layouts := cli.TimestampConfig{Layouts: []string{time.DateOnly}, Timezone: time.UTC}

	return []cli.Flag{
		&cli.TimestampFlag{
			Name:   flagStart,
			Usage:  "First day in `YYYY-MM-DD` format",
			Config: layouts,
		},
		&cli.TimestampFlag{
			Name:   flagEnd,
			Usage:  "Last day in `YYYY-MM-DD` format, exclusive. Defaults to today.",
			Config: layouts,
		},
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "trader",
		Usage: "EMA/MACD crossover trading on Binance USD-M futures",
		Commands: []*cli.Command{
			tradeCommand(),
			backtestCommand(),
			downloadCommand(),
			schemaCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config named by --config and a logger at its level.
func setup(cmd *cli.Command) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String(flagConfig))
	if err != nil {
		return config.Config{}, nil, err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, log, nil
}
