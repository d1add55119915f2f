package tradingprovider

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/internal/utils"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service interfaces for mocking the Binance futures API

// KlinesService interface for fetching candles.
type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	Limit(limit int) KlinesService
	Do(ctx context.Context) ([]*futures.Kline, error)
}

// GetBalanceService interface for reading wallet balances.
type GetBalanceService interface {
	Do(ctx context.Context) ([]*futures.Balance, error)
}

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side futures.SideType) CreateOrderService
	Type(orderType futures.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	StopPrice(stopPrice string) CreateOrderService
	ReduceOnly(reduceOnly bool) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*futures.CreateOrderResponse, error)
}

// CancelOrderService interface for canceling orders.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*futures.CancelOrderResponse, error)
}

// CancelAllOpenOrdersService interface for canceling all open orders for a symbol.
type CancelAllOpenOrdersService interface {
	Symbol(symbol string) CancelAllOpenOrdersService
	Do(ctx context.Context) error
}

// GetPositionRiskService interface for listing positions.
type GetPositionRiskService interface {
	Symbol(symbol string) GetPositionRiskService
	Do(ctx context.Context) ([]*futures.PositionRisk, error)
}

// ChangeLeverageService interface for changing the leverage of a symbol.
type ChangeLeverageService interface {
	Symbol(symbol string) ChangeLeverageService
	Leverage(leverage int) ChangeLeverageService
	Do(ctx context.Context) (*futures.SymbolLeverage, error)
}

// BinanceClient interface abstracts the Binance futures client for testing.
type BinanceClient interface {
	NewKlinesService() KlinesService
	NewGetBalanceService() GetBalanceService
	NewCreateOrderService() CreateOrderService
	NewCancelOrderService() CancelOrderService
	NewCancelAllOpenOrdersService() CancelAllOpenOrdersService
	NewGetPositionRiskService() GetPositionRiskService
	NewChangeLeverageService() ChangeLeverageService
}

// realBinanceClient wraps the actual futures.Client.
type realBinanceClient struct {
	client *futures.Client
}

func (r *realBinanceClient) NewKlinesService() KlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

func (r *realBinanceClient) NewGetBalanceService() GetBalanceService {
	return &realGetBalanceService{service: r.client.NewGetBalanceService()}
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService().NewOrderResponseType(futures.NewOrderRespTypeRESULT)}
}

func (r *realBinanceClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realBinanceClient) NewCancelAllOpenOrdersService() CancelAllOpenOrdersService {
	return &realCancelAllOpenOrdersService{service: r.client.NewCancelAllOpenOrdersService()}
}

func (r *realBinanceClient) NewGetPositionRiskService() GetPositionRiskService {
	return &realGetPositionRiskService{service: r.client.NewGetPositionRiskService()}
}

func (r *realBinanceClient) NewChangeLeverageService() ChangeLeverageService {
	return &realChangeLeverageService{service: r.client.NewChangeLeverageService()}
}

// Real service wrappers

type realKlinesService struct {
	service *futures.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) KlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realKlinesService) Interval(interval string) KlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realKlinesService) Limit(limit int) KlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*futures.Kline, error) {
	return s.service.Do(ctx)
}

type realGetBalanceService struct {
	service *futures.GetBalanceService
}

func (s *realGetBalanceService) Do(ctx context.Context) ([]*futures.Balance, error) {
	return s.service.Do(ctx)
}

type realCreateOrderService struct {
	service *futures.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side futures.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType futures.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) StopPrice(stopPrice string) CreateOrderService {
	s.service = s.service.StopPrice(stopPrice)

	return s
}

func (s *realCreateOrderService) ReduceOnly(reduceOnly bool) CreateOrderService {
	s.service = s.service.ReduceOnly(reduceOnly)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*futures.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *futures.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*futures.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realCancelAllOpenOrdersService struct {
	service *futures.CancelAllOpenOrdersService
}

func (s *realCancelAllOpenOrdersService) Symbol(symbol string) CancelAllOpenOrdersService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelAllOpenOrdersService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

type realGetPositionRiskService struct {
	service *futures.GetPositionRiskService
}

func (s *realGetPositionRiskService) Symbol(symbol string) GetPositionRiskService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetPositionRiskService) Do(ctx context.Context) ([]*futures.PositionRisk, error) {
	return s.service.Do(ctx)
}

type realChangeLeverageService struct {
	service *futures.ChangeLeverageService
}

func (s *realChangeLeverageService) Symbol(symbol string) ChangeLeverageService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realChangeLeverageService) Leverage(leverage int) ChangeLeverageService {
	s.service = s.service.Leverage(leverage)

	return s
}

func (s *realChangeLeverageService) Do(ctx context.Context) (*futures.SymbolLeverage, error) {
	return s.service.Do(ctx)
}

// BinanceTradingSystemProvider implements TradingSystemProvider on Binance USD-M futures.
// It is stateless - all data is fetched directly from the Binance API.
type BinanceTradingSystemProvider struct {
	client         BinanceClient
	pricePrecision int
	retry          RetryPolicy
	log            *logger.Logger
}

// NewBinanceTradingSystemProvider creates a futures provider.
// If config.BaseURL is set, it takes precedence over config.Testnet.
func NewBinanceTradingSystemProvider(config BinanceProviderConfig) (*BinanceTradingSystemProvider, error) {
	if config.Testnet {
		futures.UseTestnet = true
	}

	client := futures.NewClient(config.ApiKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return newBinanceTradingSystemProviderWithClient(&realBinanceClient{client: client}, config), nil
}

// newBinanceTradingSystemProviderWithClient creates a provider with a custom client.
// This is used for testing with mock clients.
func newBinanceTradingSystemProviderWithClient(client BinanceClient, config BinanceProviderConfig) *BinanceTradingSystemProvider {
	return &BinanceTradingSystemProvider{
		client:         client,
		pricePrecision: config.PricePrecision,
		retry:          config.Retry,
		log:            logger.NewNopLogger(),
	}
}

// SetLogger sets the logger for soft failures such as unreadable order responses.
func (b *BinanceTradingSystemProvider) SetLogger(log *logger.Logger) {
	if log != nil {
		b.log = log
	}
}

// GetCandles fetches the latest klines. The forming candle is included as the last element.
func (b *BinanceTradingSystemProvider) GetCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error) {
	klines, err := withRetry(ctx, b.retry, func() ([]*futures.Kline, error) {
		klines, err := b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeExternalCallFailure, err, "failed to fetch %s %s klines", symbol, interval)
		}

		return klines, nil
	})
	if err != nil {
		return nil, err
	}

	candles := make([]types.Candle, 0, len(klines))

	for _, k := range klines {
		c, err := klineToCandle(k)
		if err != nil {
			return nil, err
		}

		candles = append(candles, c)
	}

	return candles, nil
}

func klineToCandle(k *futures.Kline) (types.Candle, error) {
	values := make([]float64, 5)

	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Candle{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", raw)
		}

		values[i] = v
	}

	return types.Candle{
		OpenTime: time.UnixMilli(k.OpenTime).UTC(),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}

// GetBalance returns the wallet balance of asset, zero when the account has none.
func (b *BinanceTradingSystemProvider) GetBalance(ctx context.Context, asset string) (float64, error) {
	balances, err := withRetry(ctx, b.retry, func() ([]*futures.Balance, error) {
		balances, err := b.client.NewGetBalanceService().Do(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeExternalCallFailure, "failed to get balance from Binance", err)
		}

		return balances, nil
	})
	if err != nil {
		return 0, err
	}

	for _, balance := range balances {
		if balance.Asset != asset {
			continue
		}

		v, err := strconv.ParseFloat(balance.Balance, 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrCodeExternalCallFailure, err, "invalid %s balance %q", asset, balance.Balance)
		}

		return v, nil
	}

	return 0, nil
}

// PlaceOrder places a single order. Orders are not retried: a timeout may still have
// reached the exchange, and the next reconciliation picks that up.
func (b *BinanceTradingSystemProvider) PlaceOrder(ctx context.Context, order OrderRequest) (OrderResult, error) {
	if err := validate.Struct(order); err != nil {
		return OrderResult{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order", err)
	}

	var side futures.SideType

	switch order.Side {
	case OrderSideBuy:
		side = futures.SideTypeBuy
	case OrderSideSell:
		side = futures.SideTypeSell
	default:
		return OrderResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", order.Side)
	}

	var orderType futures.OrderType

	switch order.Type {
	case OrderTypeMarket:
		orderType = futures.OrderTypeMarket
	case OrderTypeStopMarket:
		orderType = futures.OrderTypeStopMarket
	case OrderTypeTakeProfitMarket:
		orderType = futures.OrderTypeTakeProfitMarket
	default:
		return OrderResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order type: %s", order.Type)
	}

	service := b.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(side).
		Type(orderType).
		Quantity(utils.FormatQuantity(order.Quantity))

	if order.Type != OrderTypeMarket {
		service = service.StopPrice(decimal.NewFromFloat(order.StopPrice).Round(int32(b.pricePrecision)).String())
	}

	if order.ReduceOnly {
		service = service.ReduceOnly(true)
	}

	if order.ClientOrderID != "" {
		service = service.NewClientOrderID(order.ClientOrderID)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return OrderResult{}, errors.Wrap(errors.ErrCodeOrderFailed, "failed to place order on Binance", err)
	}

	result := OrderResult{
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: resp.ClientOrderID,
		Status:        string(resp.Status),
	}

	// zero on acknowledgements without a synchronous fill
	result.AvgPrice = b.fillField(result, "avg_price", resp.AvgPrice)
	result.ExecutedQty = b.fillField(result, "executed_qty", resp.ExecutedQuantity)

	return result, nil
}

// fillField parses a numeric field of an order response. Unreadable values count as zero,
// so the caller falls back to the requested price and quantity.
func (b *BinanceTradingSystemProvider) fillField(result OrderResult, field, raw string) float64 {
	if raw == "" {
		return 0
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		b.log.Debug("Unreadable order response field",
			zap.String("order_id", result.OrderID),
			zap.String("field", field),
			zap.String("value", raw),
			zap.Error(err),
		)

		return 0
	}

	return v
}

// CancelOrder cancels an order by its exchange id.
func (b *BinanceTradingSystemProvider) CancelOrder(ctx context.Context, symbol string, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid order id %q", orderID)
	}

	_, err = withRetry(ctx, b.retry, func() (*futures.CancelOrderResponse, error) {
		resp, err := b.client.NewCancelOrderService().Symbol(symbol).OrderID(id).Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeExternalCallFailure, err, "failed to cancel order %s", orderID)
		}

		return resp, nil
	})

	return err
}

// CancelAllOrders cancels every open order of symbol.
func (b *BinanceTradingSystemProvider) CancelAllOrders(ctx context.Context, symbol string) error {
	_, err := withRetry(ctx, b.retry, func() (struct{}, error) {
		if err := b.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx); err != nil {
			return struct{}{}, errors.Wrapf(errors.ErrCodeExternalCallFailure, err, "failed to cancel open orders of %s", symbol)
		}

		return struct{}{}, nil
	})

	return err
}

// GetOpenPositions returns the non-zero one-way positions of symbol.
// A negative position amount is a short.
func (b *BinanceTradingSystemProvider) GetOpenPositions(ctx context.Context, symbol string) ([]types.ExchangePosition, error) {
	risks, err := withRetry(ctx, b.retry, func() ([]*futures.PositionRisk, error) {
		risks, err := b.client.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeExternalCallFailure, err, "failed to get positions of %s", symbol)
		}

		return risks, nil
	})
	if err != nil {
		return nil, err
	}

	positions := make([]types.ExchangePosition, 0, len(risks))

	for _, r := range risks {
		amount, err := strconv.ParseFloat(r.PositionAmt, 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeExternalCallFailure, err, "invalid position amount %q", r.PositionAmt)
		}

		if amount == 0 {
			continue
		}

		entry, _ := strconv.ParseFloat(r.EntryPrice, 64)

		side := types.SideLong
		if amount < 0 {
			side = types.SideShort
			amount = -amount
		}

		positions = append(positions, types.ExchangePosition{
			Symbol:     r.Symbol,
			Side:       side,
			Size:       amount,
			EntryPrice: entry,
		})
	}

	return positions, nil
}

// SetLeverage sets the leverage of symbol.
func (b *BinanceTradingSystemProvider) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := withRetry(ctx, b.retry, func() (*futures.SymbolLeverage, error) {
		resp, err := b.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeExternalCallFailure, err, "failed to set leverage of %s to %d", symbol, leverage)
		}

		return resp, nil
	})

	return err
}
