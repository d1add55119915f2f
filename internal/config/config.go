// Package config loads the YAML file shared by the trade, backtest and download commands.
//
// Values missing from the file keep their defaults. Credentials may be left out of the
// file and supplied through the environment instead.
package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	backtestengine "github.com/rxtech-lab/argo-crossover/internal/backtest/engine"
	"github.com/rxtech-lab/argo-crossover/internal/indicator"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/notify"
	"github.com/rxtech-lab/argo-crossover/internal/risk"
	tradingengine "github.com/rxtech-lab/argo-crossover/internal/trading/engine"
	tradingprovider "github.com/rxtech-lab/argo-crossover/internal/trading/provider"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/strategy"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvBinanceAPIKey    = "BINANCE_API_KEY"
	EnvBinanceSecretKey = "BINANCE_SECRET_KEY"
	EnvSMTPPassword     = "SMTP_PASSWORD"
	EnvTelegramToken    = "TELEGRAM_BOT_TOKEN"
)

// notifyBuffer is how many events may wait for a slow notification channel.
const notifyBuffer = 64

type Config struct {
	Symbol   string `yaml:"symbol" json:"symbol" jsonschema:"description=Futures symbol,default=BTCUSDT" validate:"required"`
	Interval string `yaml:"interval" json:"interval" jsonschema:"description=Candle timeframe,default=15m" validate:"required"`
	LogLevel string `yaml:"log_level" json:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`

	Indicators indicator.Config `yaml:"indicators" json:"indicators"`
	Risk       risk.Config      `yaml:"risk" json:"risk"`
	Exchange   ExchangeConfig   `yaml:"exchange" json:"exchange"`
	Live       LiveConfig       `yaml:"live" json:"live"`
	Backtest   BacktestConfig   `yaml:"backtest" json:"backtest"`
	Notify     NotifyConfig     `yaml:"notify" json:"notify"`
}

type ExchangeConfig struct {
	Provider tradingprovider.ProviderType `yaml:"provider" json:"provider" jsonschema:"enum=paper,enum=binance-testnet,enum=binance-live,default=paper" validate:"oneof=paper binance-testnet binance-live"`
	// Binance keys are only checked for the binance providers.
	Binance tradingprovider.BinanceProviderConfig `yaml:"binance" json:"binance" validate:"-"`
}

type LiveConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" jsonschema:"type=string,default=60s" validate:"gt=0"`
	CandleLimit  int           `yaml:"candle_limit" json:"candle_limit" jsonschema:"default=200" validate:"gt=1"`
	// DataOutputPath receives the per-day session folders. Empty disables them.
	DataOutputPath string `yaml:"data_output_path" json:"data_output_path" jsonschema:"default=sessions"`
	// PaperBalance is the starting balance of the paper provider.
	PaperBalance float64 `yaml:"paper_balance" json:"paper_balance" jsonschema:"default=10000" validate:"gt=0"`
}

type BacktestConfig struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance" jsonschema:"default=10000" validate:"gt=0"`
	// DataFolder is where downloaded candles are kept.
	DataFolder    string `yaml:"data_folder" json:"data_folder" jsonschema:"default=data" validate:"required"`
	ResultsFolder string `yaml:"results_folder" json:"results_folder" jsonschema:"default=results" validate:"required"`
	// Days is the replayed range when no dates are given.
	Days int `yaml:"days" json:"days" jsonschema:"default=30" validate:"gt=0"`
}

type NotifyConfig struct {
	Email    notify.EmailConfig    `yaml:"email" json:"email"`
	Telegram notify.TelegramConfig `yaml:"telegram" json:"telegram"`
}

// Default returns a paper trading setup on BTCUSDT 15m with the stock strategy parameters.
func Default() Config {
	return Config{
		Symbol:     "BTCUSDT",
		Interval:   "15m",
		LogLevel:   "info",
		Indicators: indicator.DefaultConfig(),
		Risk:       risk.DefaultConfig(),
		Exchange: ExchangeConfig{
			Provider: tradingprovider.ProviderPaper,
			Binance:  tradingprovider.DefaultBinanceProviderConfig(),
		},
		Live: LiveConfig{
			PollInterval:   60 * time.Second,
			CandleLimit:    200,
			DataOutputPath: "sessions",
			PaperBalance:   10000,
		},
		Backtest: BacktestConfig{
			InitialBalance: 10000,
			DataFolder:     "data",
			ResultsFolder:  "results",
			Days:           30,
		},
		Notify: NotifyConfig{
			Email: notify.EmailConfig{Port: 587},
		},
	}
}

// Load reads path over the defaults, applies the environment and validates the result.
// An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ApplyEnv overrides the credentials with the environment variables that are set.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvBinanceAPIKey); ok {
		c.Exchange.Binance.ApiKey = v
	}

	if v, ok := lookup(EnvBinanceSecretKey); ok {
		c.Exchange.Binance.SecretKey = v
	}

	if v, ok := lookup(EnvSMTPPassword); ok {
		c.Notify.Email.Password = v
	}

	if v, ok := lookup(EnvTelegramToken); ok {
		c.Notify.Telegram.Token = v
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if _, err := types.ParseTimeframe(c.Interval); err != nil {
		return err
	}

	if err := c.Indicators.Validate(); err != nil {
		return err
	}

	if err := c.Risk.Validate(); err != nil {
		return err
	}

	if c.Live.CandleLimit <= c.Indicators.Lookback() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"live.candle_limit %d must exceed the indicator lookback %d", c.Live.CandleLimit, c.Indicators.Lookback())
	}

	if c.Exchange.Provider != tradingprovider.ProviderPaper {
		if err := c.Exchange.Binance.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// LiveEngineConfig is the live engine configuration for this file.
func (c Config) LiveEngineConfig() tradingengine.LiveTradingEngineConfig {
	return tradingengine.LiveTradingEngineConfig{
		Symbol:         c.Symbol,
		Interval:       c.Interval,
		PollInterval:   c.Live.PollInterval,
		CandleLimit:    c.Live.CandleLimit,
		QuoteAsset:     c.quoteAsset(),
		Leverage:       max(c.Exchange.Binance.Leverage, 1),
		DataOutputPath: c.Live.DataOutputPath,
		Indicators:     c.Indicators,
		Risk:           c.Risk,
	}
}

// BacktestEngineConfig is the backtest configuration for the given replay bounds.
func (c Config) BacktestEngineConfig(start, end optional.Option[time.Time]) backtestengine.BacktestEngineConfig {
	return backtestengine.BacktestEngineConfig{
		Symbol:         c.Symbol,
		Interval:       c.Interval,
		InitialBalance: c.Backtest.InitialBalance,
		StartTime:      start,
		EndTime:        end,
		Indicators:     c.Indicators,
		Risk:           c.Risk,
	}
}

// TradingProvider builds the exchange the live engine trades on.
func (c Config) TradingProvider(log *logger.Logger) (tradingprovider.TradingSystemProvider, error) {
	return tradingprovider.NewTradingSystemProvider(c.Exchange.Provider, c.Exchange.Binance, c.Live.PaperBalance, log)
}

// Notifier fans events out to the log and every enabled channel. The caller closes it
// to deliver what is still queued.
func (c Config) Notifier(log *logger.Logger) (*notify.Async, error) {
	channels := notify.Multi{notify.NewLogNotifier(log)}

	if c.Notify.Email.Enabled {
		channels = append(channels, notify.NewEmailNotifier(c.Notify.Email))
	}

	if c.Notify.Telegram.Enabled {
		telegram, err := notify.NewTelegramNotifier(c.Notify.Telegram)
		if err != nil {
			return nil, err
		}

		channels = append(channels, telegram)
	}

	return notify.NewAsync(channels, log, notifyBuffer), nil
}

func (c Config) quoteAsset() string {
	if c.Exchange.Binance.QuoteAsset == "" {
		return "USDT"
	}

	return c.Exchange.Binance.QuoteAsset
}

// Schema returns the JSON schema of the config file.
func Schema() (string, error) {
	return strategy.ToJSONSchema(&Config{}) //nolint:exhaustruct // Empty config for schema generation
}
