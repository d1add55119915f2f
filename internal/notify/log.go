package notify

import (
	"context"

	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"go.uber.org/zap"
)

// LogNotifier writes events to the structured log. It is always enabled.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	fields := []zap.Field{
		zap.String("kind", string(event.Kind)),
		zap.String("symbol", event.Symbol),
	}

	if event.Position != nil {
		fields = append(fields,
			zap.String("position_id", event.Position.ID),
			zap.String("side", string(event.Position.Side)),
			zap.Float64("entry", event.Position.EntryPrice),
		)
	}

	if event.Trade != nil {
		fields = append(fields,
			zap.String("position_id", event.Trade.PositionID),
			zap.String("reason", string(event.Trade.Reason)),
			zap.Float64("pnl", event.Trade.PnL),
		)
	}

	if event.Message != "" {
		fields = append(fields, zap.String("message", event.Message))
	}

	if event.Err != nil {
		n.log.Error("Notification", append(fields, zap.Error(event.Err))...)

		return nil
	}

	n.log.Info("Notification", fields...)

	return nil
}
