// internal/app/system/pubsub/pubsub.go

// Package pubsub provides the in-process event bus that fans mutation
// events out to active GraphQL subscriptions.
//
// A single Bus is created at startup and carried in the request context
// of every query, mutation, and subscription, so resolvers publish and
// subscribe against the same instance regardless of which transport the
// operation arrived on.
package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber channel capacity. Publishes to a
// subscriber whose buffer is full are dropped, not blocked on.
const subscriberBuffer = 32

// Bus is an in-process publish/subscribe fan-out.
// It is safe for concurrent use.
type Bus struct {
	mu      sync.RWMutex
	topics  map[string]map[uuid.UUID]chan any
	dropped map[string]uint64
}

// TopicStats describes one topic's current fan-out state.
type TopicStats struct {
	Subscribers int
	Dropped     uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		topics:  make(map[string]map[uuid.UUID]chan any),
		dropped: make(map[string]uint64),
	}
}

// Subscribe registers a subscriber for topic. The returned channel is
// closed and the subscription removed when ctx is canceled, so callers
// never unsubscribe explicitly.
func (b *Bus) Subscribe(ctx context.Context, topic string) <-chan any {
	ch := make(chan any, subscriberBuffer)
	id := uuid.New()

	b.mu.Lock()
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[uuid.UUID]chan any)
		b.topics[topic] = subs
	}
	subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		if subs, ok := b.topics[topic]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(b.topics, topic)
			}
		}
		// Close under the lock so Publish never sends on a closed channel.
		close(ch)
		b.mu.Unlock()
	}()

	return ch
}

// Publish delivers payload to every current subscriber of topic.
// A subscriber whose buffer is full is skipped and the drop counted;
// publishers never block on slow consumers.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.topics[topic] {
		select {
		case ch <- payload:
		default:
			b.dropped[topic]++
		}
	}
}

// Stats reports per-topic subscriber and drop counts. Topics that have
// recorded drops are included even after their last subscriber is gone.
func (b *Bus) Stats() map[string]TopicStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]TopicStats, len(b.topics))
	for topic, subs := range b.topics {
		out[topic] = TopicStats{Subscribers: len(subs), Dropped: b.dropped[topic]}
	}
	for topic, n := range b.dropped {
		if _, ok := out[topic]; !ok {
			out[topic] = TopicStats{Dropped: n}
		}
	}
	return out
}

type ctxKey string

const busKey ctxKey = "pubsub_bus"

// NewContext returns a copy of ctx that carries the bus.
func NewContext(ctx context.Context, b *Bus) context.Context {
	return context.WithValue(ctx, busKey, b)
}

// FromContext extracts the bus placed in ctx by NewContext.
func FromContext(ctx context.Context) (*Bus, bool) {
	b, ok := ctx.Value(busKey).(*Bus)
	return b, ok
}
