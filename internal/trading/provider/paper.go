package tradingprovider

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/internal/utils"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/shopspring/decimal"
)

// CandleFeed is the read-only market data part of a provider.
type CandleFeed interface {
	GetCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error)
}

// paperLot is one entry order. Exits realize against the lot whose client order id they
// carry, so two entries at different prices keep their own pnl.
type paperLot struct {
	key   string
	size  decimal.Decimal
	entry float64
}

type paperPosition struct {
	side types.Side
	lots []*paperLot
}

func (p *paperPosition) size() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.lots {
		total = total.Add(l.size)
	}

	return total
}

// entry is the size weighted average entry price, as an exchange reports it.
func (p *paperPosition) entry() float64 {
	total := p.size()
	if total.IsZero() {
		return 0
	}

	notional := decimal.Zero
	for _, l := range p.lots {
		notional = notional.Add(l.size.Mul(decimal.NewFromFloat(l.entry)))
	}

	return notional.Div(total).InexactFloat64()
}

// reduce takes qty off the matching lot first and then off the oldest lots.
func (p *paperPosition) reduce(key string, qty decimal.Decimal, price float64) decimal.Decimal {
	realized := decimal.Zero

	ordered := make([]*paperLot, 0, len(p.lots))
	for _, l := range p.lots {
		if l.key == key {
			ordered = append([]*paperLot{l}, ordered...)
		} else {
			ordered = append(ordered, l)
		}
	}

	for _, l := range ordered {
		if qty.IsZero() {
			break
		}

		take := decimal.Min(qty, l.size)
		realized = realized.Add(utils.RealizedPnL(p.side, l.entry, price, take.InexactFloat64()))
		l.size = l.size.Sub(take)
		qty = qty.Sub(take)
	}

	kept := p.lots[:0]
	for _, l := range p.lots {
		if l.size.IsPositive() {
			kept = append(kept, l)
		}
	}

	p.lots = kept

	return realized
}

// lotKey is the compact position id carried by a client order id. Entries carry the
// position id itself, exits carry it compacted with a suffix.
func lotKey(clientOrderID string, entry bool) string {
	if entry {
		return strings.ReplaceAll(clientOrderID, "-", "")
	}

	key, _, _ := strings.Cut(clientOrderID, "-")

	return key
}

// PaperTradingSystemProvider fills market orders in memory at their reference price and
// nets each symbol into one position like a one-way futures account.
// Stop and take-profit orders are only recorded; they never trigger, so exits happen when
// the trader closes on a completed candle.
type PaperTradingSystemProvider struct {
	mu        sync.Mutex
	feed      CandleFeed
	initial   decimal.Decimal
	realized  decimal.Decimal
	positions map[string]*paperPosition
	orders    map[string]OrderRequest
	leverage  map[string]int
	seq       int64
}

func NewPaperTradingSystemProvider(feed CandleFeed, initialBalance float64) *PaperTradingSystemProvider {
	return &PaperTradingSystemProvider{
		feed:      feed,
		initial:   decimal.NewFromFloat(initialBalance),
		realized:  decimal.Zero,
		positions: make(map[string]*paperPosition),
		orders:    make(map[string]OrderRequest),
		leverage:  make(map[string]int),
	}
}

func (p *PaperTradingSystemProvider) GetCandles(ctx context.Context, symbol string, interval string, limit int) ([]types.Candle, error) {
	return p.feed.GetCandles(ctx, symbol, interval, limit)
}

// GetBalance is the initial balance plus everything realized so far, for any asset.
func (p *PaperTradingSystemProvider) GetBalance(_ context.Context, _ string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.initial.Add(p.realized).InexactFloat64(), nil
}

func (p *PaperTradingSystemProvider) PlaceOrder(_ context.Context, order OrderRequest) (OrderResult, error) {
	if err := validate.Struct(order); err != nil {
		return OrderResult{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid order", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	id := strconv.FormatInt(p.seq, 10)

	if order.Type != OrderTypeMarket {
		p.orders[id] = order

		return OrderResult{OrderID: id, ClientOrderID: order.ClientOrderID, Status: "NEW"}, nil
	}

	if order.ReferencePrice <= 0 {
		return OrderResult{}, errors.New(errors.ErrCodeOrderFailed, "paper market orders need a reference price")
	}

	qty := decimal.NewFromFloat(order.Quantity)
	pos, open := p.positions[order.Symbol]

	switch {
	case !open:
		if order.ReduceOnly {
			return OrderResult{}, errors.Newf(errors.ErrCodeOrderFailed, "reduce-only order without a %s position", order.Symbol)
		}

		side := types.SideLong
		if order.Side == OrderSideSell {
			side = types.SideShort
		}

		p.positions[order.Symbol] = &paperPosition{
			side: side,
			lots: []*paperLot{{key: lotKey(order.ClientOrderID, true), size: qty, entry: order.ReferencePrice}},
		}
	case order.Side == ExitSide(pos.side):
		if qty.GreaterThan(pos.size()) {
			return OrderResult{}, errors.Newf(errors.ErrCodeOrderFailed, "order of %s exceeds the %s position of %s", qty, order.Symbol, pos.size())
		}

		p.realized = p.realized.Add(pos.reduce(lotKey(order.ClientOrderID, false), qty, order.ReferencePrice))

		if len(pos.lots) == 0 {
			delete(p.positions, order.Symbol)
		}
	case !order.ReduceOnly:
		// one-way mode: a second entry on the same side adds to the position
		pos.lots = append(pos.lots, &paperLot{key: lotKey(order.ClientOrderID, true), size: qty, entry: order.ReferencePrice})
	default:
		return OrderResult{}, errors.Newf(errors.ErrCodeOrderFailed, "reduce-only %s order on a %s %s position", order.Side, pos.side, order.Symbol)
	}

	return OrderResult{
		OrderID:       id,
		ClientOrderID: order.ClientOrderID,
		Status:        "FILLED",
		AvgPrice:      order.ReferencePrice,
		ExecutedQty:   order.Quantity,
	}, nil
}

func (p *PaperTradingSystemProvider) CancelOrder(_ context.Context, _ string, orderID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.orders[orderID]; !ok {
		return errors.Newf(errors.ErrCodeOrderFailed, "unknown order %s", orderID)
	}

	delete(p.orders, orderID)

	return nil
}

func (p *PaperTradingSystemProvider) CancelAllOrders(_ context.Context, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, o := range p.orders {
		if o.Symbol == symbol {
			delete(p.orders, id)
		}
	}

	return nil
}

func (p *PaperTradingSystemProvider) GetOpenPositions(_ context.Context, symbol string) ([]types.ExchangePosition, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[symbol]
	if !ok {
		return nil, nil
	}

	return []types.ExchangePosition{{
		Symbol:     symbol,
		Side:       pos.side,
		Size:       pos.size().InexactFloat64(),
		EntryPrice: pos.entry(),
	}}, nil
}

func (p *PaperTradingSystemProvider) SetLeverage(_ context.Context, symbol string, leverage int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.leverage[symbol] = leverage

	return nil
}

// OpenOrders returns the resting stop and take-profit orders of symbol.
func (p *PaperTradingSystemProvider) OpenOrders(symbol string) []OrderRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []OrderRequest

	for _, o := range p.orders {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}

	return out
}

// ReplayFeed serves a fixed candle history as if it were arriving live. Only the first
// Visible candles are returned; Advance reveals one more.
type ReplayFeed struct {
	mu      sync.Mutex
	candles []types.Candle
	visible int
}

func NewReplayFeed(candles []types.Candle, visible int) *ReplayFeed {
	return &ReplayFeed{candles: candles, visible: min(visible, len(candles))}
}

// Advance reveals the next candle and reports whether there was one.
func (f *ReplayFeed) Advance() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.visible >= len(f.candles) {
		return false
	}

	f.visible++

	return true
}

func (f *ReplayFeed) GetCandles(_ context.Context, _ string, _ string, limit int) ([]types.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	from := max(0, f.visible-limit)
	out := make([]types.Candle, f.visible-from)
	copy(out, f.candles[from:f.visible])

	return out, nil
}
