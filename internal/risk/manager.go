// Package risk owns open positions, the daily trade counter and the trade log.
//
// A Manager is an explicit handle. Drivers receive it by reference, so independent
// backtests in one process never share counters or positions. Every mutation goes
// through its mutex, which makes it the single ordering authority for the global
// position cap and the per-day trade cap.
package risk

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/internal/utils"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"github.com/shopspring/decimal"
)

// book is the manager's private view of a position. Quantities and fractions are
// tracked in decimal so repeated partial exits never drift.
type book struct {
	pos               types.Position
	seq               int
	remainingSize     decimal.Decimal
	remainingFraction decimal.Decimal
	realized          decimal.Decimal
}

func (b *book) snapshot() types.Position {
	p := b.pos
	p.RemainingSize = b.remainingSize.InexactFloat64()
	p.RemainingFraction = b.remainingFraction.InexactFloat64()
	p.RealizedPnL = b.realized.InexactFloat64()

	return p
}

type Manager struct {
	mu        sync.Mutex
	cfg       Config
	counter   *DailyTradeCounter
	positions map[string]*book
	seq       int
	tradeLog  []types.TradeLogEntry
	realized  decimal.Decimal
}

// NewManager validates cfg and returns an empty manager.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:       cfg,
		counter:   NewDailyTradeCounter(loc),
		positions: make(map[string]*book),
		realized:  decimal.Zero,
	}, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// PositionID derives a stable id from the symbol, side and candle time, so a replay of the
// same candles produces the same ids in every mode.
func PositionID(symbol string, side types.Side, at time.Time) string {
	name := symbol + "|" + string(side) + "|" + at.UTC().Format(time.RFC3339Nano)

	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// CanOpen reports whether a new position is allowed at at.
// The symbol is accepted for interface symmetry; both caps are process wide.
func (m *Manager) CanOpen(symbol string, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.canOpenLocked(at) == nil
}

func (m *Manager) canOpenLocked(at time.Time) error {
	if len(m.positions) >= m.cfg.MaxPositions {
		return errors.Newf(errors.ErrCodeRiskLimitExceeded, "max positions reached (%d)", m.cfg.MaxPositions)
	}

	if today := m.counter.Count(at); today >= m.cfg.MaxTradesPerDay {
		return errors.Newf(errors.ErrCodeRiskLimitExceeded, "max trades per day reached (%d)", m.cfg.MaxTradesPerDay)
	}

	return nil
}

// Levels returns the stop-loss and both take-profit prices for an entry.
func (m *Manager) Levels(side types.Side, entry, atr float64) (stopLoss, takeProfit1, takeProfit2 float64) {
	if side == types.SideShort {
		return entry + m.cfg.StopLossATR*atr, entry - m.cfg.TakeProfit1ATR*atr, entry - m.cfg.TakeProfit2ATR*atr
	}

	return entry - m.cfg.StopLossATR*atr, entry + m.cfg.TakeProfit1ATR*atr, entry + m.cfg.TakeProfit2ATR*atr
}

// Size is the risk based position size: losing it at the stop costs balance*RiskPerTrade.
// It is rounded down to the configured quantity precision.
func (m *Manager) Size(atr, balance float64) float64 {
	risk := decimal.NewFromFloat(balance).Mul(decimal.NewFromFloat(m.cfg.RiskPerTrade))
	stopDistance := decimal.NewFromFloat(m.cfg.StopLossATR).Mul(decimal.NewFromFloat(atr))

	if stopDistance.Sign() <= 0 {
		return 0
	}

	return risk.Div(stopDistance).RoundDown(int32(m.cfg.QuantityPrecision)).InexactFloat64()
}

// PlanOpen builds the open intent for a new position. It fails with a risk-limit error when
// a cap is reached and with an invalid-parameter error when the size rounds to zero.
// Nothing is recorded until Open is called with the fill.
func (m *Manager) PlanOpen(symbol string, side types.Side, price, atr, balance float64, at time.Time) (types.OrderIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.canOpenLocked(at); err != nil {
		return types.OrderIntent{}, err
	}

	if price <= 0 || atr <= 0 || balance <= 0 {
		return types.OrderIntent{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"cannot size a position with price %v, atr %v, balance %v", price, atr, balance)
	}

	size := m.Size(atr, balance)
	if size <= 0 {
		return types.OrderIntent{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"position size rounds to zero at precision %d", m.cfg.QuantityPrecision)
	}

	sl, tp1, tp2 := m.Levels(side, price, atr)

	return types.OrderIntent{
		Kind:        types.IntentOpen,
		PositionID:  PositionID(symbol, side, at),
		Symbol:      symbol,
		Side:        side,
		Price:       price,
		Size:        size,
		Fraction:    1,
		ATR:         atr,
		StopLoss:    sl,
		TakeProfit1: tp1,
		TakeProfit2: tp2,
		Time:        at,
	}, nil
}

// Open records a filled open intent. Opening past a cap or reusing an id is a contract
// violation, reported as inconsistent position state.
func (m *Manager) Open(intent types.OrderIntent, fill types.Fill) (types.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if intent.Kind != types.IntentOpen {
		return types.Position{}, errors.Newf(errors.ErrCodeInconsistentPositionState, "open called with a %s intent", intent.Kind)
	}

	if _, exists := m.positions[intent.PositionID]; exists {
		return types.Position{}, errors.Newf(errors.ErrCodeInconsistentPositionState, "position %s is already open", intent.PositionID)
	}

	if err := m.canOpenLocked(intent.Time); err != nil {
		return types.Position{}, errors.Wrap(errors.ErrCodeInconsistentPositionState, "open beyond risk caps", err)
	}

	entry := intent.Price
	if fill.Price > 0 {
		entry = fill.Price
	}

	size := intent.Size
	if fill.Size > 0 {
		size = fill.Size
	}

	sl, tp1, tp2 := m.Levels(intent.Side, entry, intent.ATR)

	m.seq++
	b := &book{
		pos: types.Position{
			ID:          intent.PositionID,
			Symbol:      intent.Symbol,
			Side:        intent.Side,
			EntryPrice:  entry,
			EntryATR:    intent.ATR,
			Size:        size,
			StopLoss:    sl,
			TakeProfit1: tp1,
			TakeProfit2: tp2,
			OpenedAt:    intent.Time,
		},
		seq:               m.seq,
		remainingSize:     decimal.NewFromFloat(size),
		remainingFraction: decimal.NewFromInt(1),
		realized:          decimal.Zero,
	}

	m.positions[b.pos.ID] = b
	m.counter.Increment(intent.Time)

	return b.snapshot(), nil
}

// OpenPosition plans and records a position filled exactly at price.
func (m *Manager) OpenPosition(symbol string, side types.Side, price, atr, balance float64, at time.Time) (types.Position, error) {
	intent, err := m.PlanOpen(symbol, side, price, atr, balance, at)
	if err != nil {
		return types.Position{}, err
	}

	return m.Open(intent, types.Fill{Price: price, Size: intent.Size, Time: at})
}

// PlanExit turns an exit action into a close intent with the quantity to send.
// A partial exit that would round to nothing, or to everything, closes the remainder.
func (m *Manager) PlanExit(positionID string, exit types.Exit, at time.Time) (types.OrderIntent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.planExitLocked(positionID, exit, at)
}

func (m *Manager) planExitLocked(positionID string, exit types.Exit, at time.Time) (types.OrderIntent, error) {
	b, ok := m.positions[positionID]
	if !ok {
		return types.OrderIntent{}, errors.Newf(errors.ErrCodeInconsistentPositionState, "position %s is not open", positionID)
	}

	fraction := decimal.NewFromFloat(exit.Fraction)
	if fraction.Sign() <= 0 || fraction.GreaterThan(b.remainingFraction) {
		return types.OrderIntent{}, errors.Newf(errors.ErrCodeInconsistentPositionState,
			"cannot close %s of position %s with %s remaining", fraction, positionID, b.remainingFraction)
	}

	final := fraction.Equal(b.remainingFraction)
	qty := b.remainingSize

	if !final {
		qty = decimal.NewFromFloat(b.pos.Size).Mul(fraction).RoundDown(int32(m.cfg.QuantityPrecision))
		if qty.Sign() <= 0 || qty.GreaterThanOrEqual(b.remainingSize) {
			final = true
			fraction = b.remainingFraction
			qty = b.remainingSize
		}
	}

	return types.OrderIntent{
		Kind:       types.IntentClose,
		PositionID: positionID,
		Symbol:     b.pos.Symbol,
		Side:       b.pos.Side,
		Price:      exit.Price,
		Size:       qty.InexactFloat64(),
		Fraction:   fraction.InexactFloat64(),
		Reason:     exit.Reason,
		Final:      final,
		Time:       at,
	}, nil
}

// ApplyExit books a filled close intent: realizes pnl, appends to the trade log and
// removes the position once nothing remains.
func (m *Manager) ApplyExit(intent types.OrderIntent, fill types.Fill) (types.TradeLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.applyExitLocked(intent, fill)
}

func (m *Manager) applyExitLocked(intent types.OrderIntent, fill types.Fill) (types.TradeLogEntry, error) {
	if intent.Kind != types.IntentClose {
		return types.TradeLogEntry{}, errors.Newf(errors.ErrCodeInconsistentPositionState, "apply exit called with a %s intent", intent.Kind)
	}

	b, ok := m.positions[intent.PositionID]
	if !ok {
		return types.TradeLogEntry{}, errors.Newf(errors.ErrCodeInconsistentPositionState, "position %s is not open", intent.PositionID)
	}

	qty := decimal.NewFromFloat(intent.Size)
	fraction := decimal.NewFromFloat(intent.Fraction)

	if qty.Sign() <= 0 || qty.GreaterThan(b.remainingSize) || fraction.GreaterThan(b.remainingFraction) {
		return types.TradeLogEntry{}, errors.Newf(errors.ErrCodeInconsistentPositionState,
			"exit of %s (%s) exceeds what remains of position %s", qty, fraction, intent.PositionID)
	}

	if intent.Final && !qty.Equal(b.remainingSize) {
		return types.TradeLogEntry{}, errors.Newf(errors.ErrCodeInconsistentPositionState,
			"final exit of %s leaves %s open on position %s", qty, b.remainingSize.Sub(qty), intent.PositionID)
	}

	price := intent.Price
	if fill.Price > 0 {
		price = fill.Price
	}

	pnl := utils.RealizedPnL(b.pos.Side, b.pos.EntryPrice, price, intent.Size)

	b.remainingSize = b.remainingSize.Sub(qty)
	b.remainingFraction = b.remainingFraction.Sub(fraction)
	b.realized = b.realized.Add(pnl)
	m.realized = m.realized.Add(pnl)

	if intent.Final {
		b.remainingSize = decimal.Zero
		b.remainingFraction = decimal.Zero
	}

	if intent.Reason == types.ExitReasonTakeProfit1 {
		b.pos.TP1Taken = true
	}

	entry := types.TradeLogEntry{
		PositionID: b.pos.ID,
		Symbol:     b.pos.Symbol,
		Side:       b.pos.Side,
		EntryPrice: b.pos.EntryPrice,
		ExitPrice:  price,
		Size:       intent.Size,
		Fraction:   intent.Fraction,
		PnL:        pnl.InexactFloat64(),
		OpenedAt:   b.pos.OpenedAt,
		ClosedAt:   intent.Time,
		Reason:     intent.Reason,
		Final:      intent.Final,
	}
	m.tradeLog = append(m.tradeLog, entry)

	if intent.Final {
		delete(m.positions, b.pos.ID)
	}

	return entry, nil
}

// ClosePosition closes whatever remains of a position at price.
func (m *Manager) ClosePosition(positionID string, price float64, reason types.ExitReason, at time.Time) (types.TradeLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.positions[positionID]
	if !ok {
		return types.TradeLogEntry{}, errors.Newf(errors.ErrCodeInconsistentPositionState, "position %s is not open", positionID)
	}

	intent, err := m.planExitLocked(positionID, types.Exit{
		Reason:   reason,
		Fraction: b.remainingFraction.InexactFloat64(),
		Price:    price,
	}, at)
	if err != nil {
		return types.TradeLogEntry{}, err
	}

	return m.applyExitLocked(intent, types.Fill{Price: price, Size: intent.Size, Time: at})
}

// Restore adopts a position that exists on the exchange but not in memory.
// It does not count against today's trades.
func (m *Manager) Restore(pos types.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.positions[pos.ID]; exists {
		return errors.Newf(errors.ErrCodeInconsistentPositionState, "position %s is already open", pos.ID)
	}

	remaining := pos.RemainingSize
	if remaining <= 0 {
		remaining = pos.Size
	}

	fraction := pos.RemainingFraction
	if fraction <= 0 {
		fraction = 1
	}

	m.seq++
	m.positions[pos.ID] = &book{
		pos:               pos,
		seq:               m.seq,
		remainingSize:     decimal.NewFromFloat(remaining),
		remainingFraction: decimal.NewFromFloat(fraction),
		realized:          decimal.NewFromFloat(pos.RealizedPnL),
	}

	return nil
}

// Forget drops a position without booking a trade.
func (m *Manager) Forget(positionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.positions[positionID]; !ok {
		return errors.Newf(errors.ErrCodeInconsistentPositionState, "position %s is not open", positionID)
	}

	delete(m.positions, positionID)

	return nil
}

// Positions returns the open positions of symbol in opening order. An empty symbol returns all.
func (m *Manager) Positions(symbol string) []types.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	books := make([]*book, 0, len(m.positions))
	for _, b := range m.positions {
		if symbol == "" || b.pos.Symbol == symbol {
			books = append(books, b)
		}
	}

	sort.Slice(books, func(i, j int) bool { return books[i].seq < books[j].seq })

	out := make([]types.Position, len(books))
	for i, b := range books {
		out[i] = b.snapshot()
	}

	return out
}

// Position returns one open position.
func (m *Manager) Position(positionID string) (types.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.positions[positionID]
	if !ok {
		return types.Position{}, false
	}

	return b.snapshot(), true
}

// OpenCount is the number of live positions across all symbols.
func (m *Manager) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.positions)
}

// TradesToday returns how many positions were opened on the day containing at.
func (m *Manager) TradesToday(at time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counter.Count(at)
}

// TradeLog returns a copy of every booked exit in order.
func (m *Manager) TradeLog() []types.TradeLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.TradeLogEntry, len(m.tradeLog))
	copy(out, m.tradeLog)

	return out
}

// RealizedPnL is the sum of every booked exit.
func (m *Manager) RealizedPnL() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.realized
}

// UnrealizedPnL marks the open quantity of symbol at price.
func (m *Manager) UnrealizedPnL(symbol string, price float64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := decimal.Zero

	for _, b := range m.positions {
		if symbol != "" && b.pos.Symbol != symbol {
			continue
		}

		total = total.Add(utils.RealizedPnL(b.pos.Side, b.pos.EntryPrice, price, b.remainingSize.InexactFloat64()))
	}

	return total
}
