package risk

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// Config holds the sizing and cap parameters of the risk manager.
type Config struct {
	// RiskPerTrade is the fraction of balance lost if a position is stopped out.
	RiskPerTrade    float64 `yaml:"risk_per_trade" json:"risk_per_trade" jsonschema:"default=0.01" validate:"gt=0,lte=1"`
	MaxPositions    int     `yaml:"max_positions" json:"max_positions" jsonschema:"default=2" validate:"gt=0"`
	MaxTradesPerDay int     `yaml:"max_trades_per_day" json:"max_trades_per_day" jsonschema:"default=6" validate:"gt=0"`
	// ATR multipliers for the protective levels.
	StopLossATR    float64 `yaml:"stop_loss_atr" json:"stop_loss_atr" jsonschema:"default=2" validate:"gt=0"`
	TakeProfit1ATR float64 `yaml:"take_profit_1_atr" json:"take_profit_1_atr" jsonschema:"default=3" validate:"gt=0"`
	TakeProfit2ATR float64 `yaml:"take_profit_2_atr" json:"take_profit_2_atr" jsonschema:"default=5" validate:"gtfield=TakeProfit1ATR"`
	// TakeProfit1Fraction is the part of the position closed at TP1.
	TakeProfit1Fraction float64 `yaml:"take_profit_1_fraction" json:"take_profit_1_fraction" jsonschema:"default=0.5" validate:"gt=0,lt=1"`
	// QuantityPrecision is the number of decimals order sizes are rounded down to.
	QuantityPrecision int `yaml:"quantity_precision" json:"quantity_precision" jsonschema:"default=3" validate:"gte=0,lte=12"`
	// Timezone decides where the daily trade counter rolls over. IANA name, UTC by default.
	Timezone string `yaml:"timezone" json:"timezone" jsonschema:"default=UTC"`
}

// DefaultConfig mirrors the strategy's stock parameters.
func DefaultConfig() Config {
	return Config{
		RiskPerTrade:        0.01,
		MaxPositions:        2,
		MaxTradesPerDay:     6,
		StopLossATR:         2,
		TakeProfit1ATR:      3,
		TakeProfit2ATR:      5,
		TakeProfit1Fraction: 0.5,
		QuantityPrecision:   3,
		Timezone:            "UTC",
	}
}

// Validate checks the config and resolves the timezone.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid risk config", err)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location returns the timezone of the daily counter.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidTimezone, err, "unknown timezone %q", c.Timezone)
	}

	return loc, nil
}
