package notify

import (
	"context"
	"sync"

	"github.com/rxtech-lab/argo-crossover/internal/logger"
	"go.uber.org/zap"
)

// Async queues events and delivers them from a single goroutine so a slow channel never
// delays a trading tick. Events beyond the buffer are dropped with a warning.
type Async struct {
	next   Notifier
	log    *logger.Logger
	events chan Event
	wg     sync.WaitGroup
	once   sync.Once
}

func NewAsync(next Notifier, log *logger.Logger, buffer int) *Async {
	a := &Async{
		next:   next,
		log:    log,
		events: make(chan Event, buffer),
	}

	a.wg.Add(1)

	go a.loop()

	return a
}

func (a *Async) loop() {
	defer a.wg.Done()

	for event := range a.events {
		if err := a.next.Notify(context.Background(), event); err != nil {
			a.log.Warn("Notification failed", zap.String("kind", string(event.Kind)), zap.Error(err))
		}
	}
}

// Notify enqueues the event and never blocks. It must not be called after Close.
func (a *Async) Notify(_ context.Context, event Event) error {
	select {
	case a.events <- event:
	default:
		a.log.Warn("Notification queue full, dropping event", zap.String("kind", string(event.Kind)))
	}

	return nil
}

// Close delivers what is queued and stops the worker.
func (a *Async) Close() {
	a.once.Do(func() {
		close(a.events)
	})
	a.wg.Wait()
}
