// internal/event/dispatcher.go
package event

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Listener consumes dispatched events. Delivery is at-least-once: a listener
// may see the same event again after a partial failure and must dedupe on
// the event ID.
type Listener interface {
	Name() string
	Handle(ctx context.Context, ev *Event) error
}

// OutboxStore is the persistence the dispatcher drains. Rows are written by
// producers inside their own transactions and marked published here.
type OutboxStore interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRow, error)
	MarkPublished(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// Dispatcher polls the outbox and fans events out to registered listeners.
// It runs on its own goroutine so delivery latency never lands on the
// request thread that produced the event.
type Dispatcher struct {
	store     OutboxStore
	listeners []Listener
	interval  time.Duration
	batch     int
	logger    *zap.Logger
}

func NewDispatcher(store OutboxStore, interval time.Duration, batch int, logger *zap.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &Dispatcher{
		store:    store,
		interval: interval,
		batch:    batch,
		logger:   logger,
	}
}

// Register adds a listener. Must be called before Run.
func (d *Dispatcher) Register(l Listener) {
	d.listeners = append(d.listeners, l)
}

// Run drains the outbox until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchPending(ctx)
		}
	}
}

// DispatchPending delivers one batch of unpublished events. A row is marked
// published only when every listener handled it; otherwise its attempt
// counter grows and it is retried on a later tick.
func (d *Dispatcher) DispatchPending(ctx context.Context) {
	rows, err := d.store.FetchUnpublished(ctx, d.batch)
	if err != nil {
		d.logger.Error("outbox fetch failed", zap.Error(err))
		return
	}

	for _, row := range rows {
		ev, err := Unmarshal(row.Payload)
		if err != nil {
			// Undecodable payloads can never succeed; drop them.
			d.logger.Error("dropping undecodable outbox row",
				zap.String("event_id", row.ID),
				zap.Error(err),
			)
			if err := d.store.MarkPublished(ctx, row.ID); err != nil {
				d.logger.Error("failed to drop outbox row", zap.String("event_id", row.ID), zap.Error(err))
			}
			continue
		}

		if d.deliver(ctx, ev) {
			if err := d.store.MarkPublished(ctx, row.ID); err != nil {
				d.logger.Error("failed to mark event published",
					zap.String("event_id", row.ID),
					zap.Error(err),
				)
			}
		} else {
			if err := d.store.MarkFailed(ctx, row.ID); err != nil {
				d.logger.Error("failed to record delivery failure",
					zap.String("event_id", row.ID),
					zap.Error(err),
				)
			}
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev *Event) bool {
	ok := true
	for _, l := range d.listeners {
		if err := l.Handle(ctx, ev); err != nil {
			ok = false
			d.logger.Warn("listener failed, event will be retried",
				zap.String("listener", l.Name()),
				zap.String("event_id", ev.ID),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
		}
	}
	return ok
}
