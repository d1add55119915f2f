// Package notify delivers trade and error events to humans. Delivery is best effort:
// a failed notification is logged and never stops trading.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-crossover/internal/types"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
	"go.uber.org/multierr"
)

type EventKind string

const (
	EventPositionOpened EventKind = "position_opened"
	EventPositionClosed EventKind = "position_closed"
	EventError          EventKind = "error"
	EventStarted        EventKind = "started"
	EventStopped        EventKind = "stopped"
	// EventDailySummary carries the stats of a finished trading day in Message.
	EventDailySummary EventKind = "daily_summary"
)

// Event is one notification. Position is set for opens, Trade for closes and Err for errors.
type Event struct {
	Kind     EventKind
	Symbol   string
	Time     time.Time
	Position *types.Position
	Trade    *types.TradeLogEntry
	Err      error
	Message  string
}

// Subject is a one-line summary, used as the email subject.
func (e Event) Subject() string {
	switch e.Kind {
	case EventPositionOpened:
		if e.Position != nil {
			return fmt.Sprintf("[%s] opened %s", e.Symbol, e.Position.Side)
		}
	case EventPositionClosed:
		if e.Trade != nil {
			return fmt.Sprintf("[%s] %s %s, pnl %.2f", e.Symbol, e.Trade.Side, e.Trade.Reason, e.Trade.PnL)
		}
	case EventError:
		return fmt.Sprintf("[%s] error", e.Symbol)
	}

	return fmt.Sprintf("[%s] %s", e.Symbol, e.Kind)
}

// Text renders the full event body.
func (e Event) Text() string {
	var b strings.Builder

	b.WriteString(e.Subject())
	b.WriteString("\n")

	if p := e.Position; p != nil {
		fmt.Fprintf(&b, "entry %.8g size %.8g\nstop %.8g tp1 %.8g tp2 %.8g\n",
			p.EntryPrice, p.Size, p.StopLoss, p.TakeProfit1, p.TakeProfit2)
	}

	if t := e.Trade; t != nil {
		fmt.Fprintf(&b, "entry %.8g exit %.8g size %.8g (%.0f%%)\n",
			t.EntryPrice, t.ExitPrice, t.Size, t.Fraction*100)
	}

	if e.Err != nil {
		fmt.Fprintf(&b, "%v\n", e.Err)
	}

	if e.Message != "" {
		b.WriteString(e.Message)
		b.WriteString("\n")
	}

	if !e.Time.IsZero() {
		b.WriteString(e.Time.UTC().Format(time.RFC3339))
	}

	return strings.TrimRight(b.String(), "\n")
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Multi sends every event to all notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var err error

	for _, n := range m {
		if nerr := n.Notify(ctx, event); nerr != nil {
			err = multierr.Append(err, nerr)
		}
	}

	if err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "notification failed", err)
	}

	return nil
}
