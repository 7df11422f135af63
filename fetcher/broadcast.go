package fetcher

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

// Subscription is one observer's handle on the event stream. C is closed on
// Unsubscribe.
type Subscription struct {
	C chan Event
}

// Broadcaster fans fetch events out to live observers. Publish hands the
// event to a single delivery goroutine over a bounded channel, so producing
// progress never blocks on a slow observer; delivery per observer is
// best-effort, at most once.
type Broadcaster struct {
	events chan Event
	logger *zap.Logger

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewBroadcaster(buffer int, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		events: make(chan Event, buffer),
		logger: logger,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Publish enqueues an event for delivery. When the buffer is full the
// oldest undelivered event is evicted rather than blocking the producer.
func (b *Broadcaster) Publish(e Event) {
	if len(b.events) == cap(b.events) {
		select {
		case dropped := <-b.events:
			b.logger.Debug("broadcaster: event buffer full, dropped oldest", zap.String("status", dropped.Status))
		default:
		}
	}

	select {
	case b.events <- e:
	default:
	}
}

func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{C: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}

	delete(b.subs, sub)
	close(sub.C)
}

// Run delivers published events until the context is canceled. It owns the
// only receive side of the publish channel.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.events:
			b.deliver(e)
		}
	}
}

func (b *Broadcaster) deliver(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		select {
		case sub.C <- e:
		default:
			b.logger.Debug("broadcaster: slow subscriber, event dropped", zap.String("status", e.Status))
		}
	}
}
