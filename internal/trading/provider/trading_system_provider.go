package tradingprovider

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/rxtech-lab/argo-crossover/pkg/strategy"
)

// TradingSystemProvider is the exchange surface the live trader needs.
// Implementations return errors coded as external failures for anything that went over the wire.
type TradingSystemProvider interface {
	// GetCandles returns up to limit of the most recent candles, oldest first.
	// The last candle may still be forming.
	GetCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error)
	// GetBalance returns the wallet balance of asset.
	GetBalance(ctx context.Context, asset string) (float64, error)
	// PlaceOrder places a single order
	PlaceOrder(ctx context.Context, order OrderRequest) (OrderResult, error)
	// CancelOrder cancels an order
	CancelOrder(ctx context.Context, symbol string, orderID string) error
	// CancelAllOrders cancels every open order of symbol
	CancelAllOrders(ctx context.Context, symbol string) error
	// GetOpenPositions returns the non-zero positions of symbol
	GetOpenPositions(ctx context.Context, symbol string) ([]types.ExchangePosition, error)
	// SetLeverage sets the leverage used for new positions of symbol
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// EntrySide is the order side that opens a position on side.
func EntrySide(side types.Side) OrderSide {
	if side == types.SideShort {
		return OrderSideSell
	}

	return OrderSideBuy
}

// ExitSide is the order side that reduces a position on side.
func ExitSide(side types.Side) OrderSide {
	if side == types.SideShort {
		return OrderSideBuy
	}

	return OrderSideSell
}

type OrderType string

const (
	OrderTypeMarket           OrderType = "MARKET"
	OrderTypeStopMarket       OrderType = "STOP_MARKET"
	OrderTypeTakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

// OrderRequest is a single order. StopPrice is required for stop and take-profit orders.
type OrderRequest struct {
	Symbol        string    `validate:"required"`
	Side          OrderSide `validate:"required,oneof=BUY SELL"`
	Type          OrderType `validate:"required,oneof=MARKET STOP_MARKET TAKE_PROFIT_MARKET"`
	Quantity      float64   `validate:"gt=0"`
	StopPrice     float64   `validate:"required_unless=Type MARKET,gte=0"`
	ReduceOnly    bool
	ClientOrderID string `validate:"max=36"`
	// ReferencePrice is the price the caller expects. Paper trading fills market orders at it.
	ReferencePrice float64 `validate:"gte=0"`
}

// OrderResult is what the exchange reported for a placed order. A market order that was not
// filled synchronously has zero AvgPrice and ExecutedQty.
type OrderResult struct {
	OrderID       string
	ClientOrderID string
	Status        string
	AvgPrice      float64
	ExecutedQty   float64
}

type ProviderType string

const (
	ProviderBinanceTestnet ProviderType = "binance-testnet"
	ProviderBinanceLive    ProviderType = "binance-live"
	ProviderPaper          ProviderType = "paper"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderBinanceTestnet: {
		Name:           string(ProviderBinanceTestnet),
		DisplayName:    "Binance Futures Testnet",
		Description:    "Binance USD-M futures testnet, real order flow without real funds",
		IsPaperTrading: true,
	},
	ProviderBinanceLive: {
		Name:           string(ProviderBinanceLive),
		DisplayName:    "Binance Futures",
		Description:    "Binance USD-M futures with real funds",
		IsPaperTrading: false,
	},
	ProviderPaper: {
		Name:           string(ProviderPaper),
		DisplayName:    "Paper",
		Description:    "Public Binance candles with in-memory fills",
		IsPaperTrading: true,
	},
}

func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific trading provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema for a provider's configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderBinanceTestnet, ProviderBinanceLive, ProviderPaper:
		return strategy.ToJSONSchema(BinanceProviderConfig{})
	default:
		return "", fmt.Errorf("unsupported trading provider: %s", providerName)
	}
}

// NewTradingSystemProvider creates a provider. Paper trading reads candles from the public
// Binance endpoints and keeps orders in memory, starting from initialBalance. A nil log
// discards the provider's diagnostics.
func NewTradingSystemProvider(providerType ProviderType, config BinanceProviderConfig, initialBalance float64, log *logger.Logger) (TradingSystemProvider, error) {
	switch providerType {
	case ProviderBinanceTestnet, ProviderBinanceLive:
		config.Testnet = providerType == ProviderBinanceTestnet
		if err := config.Validate(); err != nil {
			return nil, err
		}
	case ProviderPaper:
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported trading provider: %s", providerType)
	}

	binance, err := NewBinanceTradingSystemProvider(config)
	if err != nil {
		return nil, err
	}

	binance.SetLogger(log)

	if providerType == ProviderPaper {
		return NewPaperTradingSystemProvider(binance, initialBalance), nil
	}

	return binance, nil
}
