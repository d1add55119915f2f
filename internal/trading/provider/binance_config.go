package tradingprovider

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// BinanceProviderConfig contains configuration for Binance futures trading.
// The keys are usually injected from the environment rather than the config file.
type BinanceProviderConfig struct {
	ApiKey    string `yaml:"api_key" json:"apiKey" jsonschema:"title=API Key,description=Binance API key" validate:"required"`
	SecretKey string `yaml:"secret_key" json:"secretKey" jsonschema:"title=Secret Key,description=Binance API secret key" validate:"required"`
	// BaseURL overrides the futures endpoint, mainly for tests.
	BaseURL string `yaml:"base_url" json:"baseUrl" jsonschema:"title=Base URL,description=Override of the futures REST endpoint"`
	Testnet bool   `yaml:"testnet" json:"testnet" jsonschema:"title=Testnet,description=Use the futures testnet,default=true"`
	// Leverage applied before every entry.
	Leverage int `yaml:"leverage" json:"leverage" jsonschema:"title=Leverage,minimum=1,maximum=125,default=1" validate:"gte=0,lte=125"`
	// QuoteAsset is the asset whose balance sizes positions.
	QuoteAsset     string `yaml:"quote_asset" json:"quoteAsset" jsonschema:"title=Quote Asset,default=USDT"`
	PricePrecision int    `yaml:"price_precision" json:"pricePrecision" jsonschema:"title=Price Precision,description=Decimals sent for stop prices,default=2" validate:"gte=0,lte=8"`
	Retry          RetryPolicy `yaml:"retry" json:"retry" jsonschema:"title=Retry policy"`
}

// DefaultBinanceProviderConfig returns the testnet configuration without keys.
func DefaultBinanceProviderConfig() BinanceProviderConfig {
	return BinanceProviderConfig{
		Testnet:        true,
		Leverage:       1,
		QuoteAsset:     "USDT",
		PricePrecision: 2,
		Retry:          DefaultRetryPolicy(),
	}
}

// RetryPolicy bounds the retries of a single exchange call.
type RetryPolicy struct {
	Attempts   int           `yaml:"attempts" json:"attempts" jsonschema:"minimum=1,default=3" validate:"gte=0"`
	Delay      time.Duration `yaml:"delay" json:"delay" jsonschema:"type=string,default=2s" validate:"gte=0"`
	Multiplier float64       `yaml:"multiplier" json:"multiplier" jsonschema:"default=2" validate:"gte=0"`
}

// DefaultRetryPolicy is three attempts, two seconds apart, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: 2 * time.Second, Multiplier: 2}
}

var validate = validator.New()

// Validate validates the BinanceProviderConfig struct.
func (c *BinanceProviderConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid binance provider config", err)
	}

	return nil
}
