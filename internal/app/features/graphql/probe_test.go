package graphql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	gql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/features/graphql"
	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/app/system/metrics"
	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
)

// probeSDL is a minimal schema whose resolvers report what the
// transport put in their context.
const probeSDL = `
	schema {
		query: Query
		subscription: Subscription
	}

	type Query {
		busMatches: Boolean!
	}

	type Subscription {
		viewerSeen: Boolean!
		ticks: String!
	}
`

type probeResolver struct {
	bus *pubsub.Bus
}

// BusMatches reports whether the context carries the same bus instance
// the handler was built with.
func (r *probeResolver) BusMatches(ctx context.Context) bool {
	b, ok := pubsub.FromContext(ctx)
	return ok && b == r.bus
}

// ViewerSeen emits a single event saying whether a viewer was present
// in the subscription context, then completes.
func (r *probeResolver) ViewerSeen(ctx context.Context) (<-chan bool, error) {
	_, ok := auth.ViewerFrom(ctx)
	out := make(chan bool, 1)
	out <- ok
	close(out)
	return out, nil
}

// Ticks relays string events published on the "ticks" topic.
func (r *probeResolver) Ticks(ctx context.Context) (<-chan string, error) {
	bus, ok := pubsub.FromContext(ctx)
	if !ok {
		return nil, errors.New("no bus in context")
	}
	events := bus.Subscribe(ctx, "ticks")
	out := make(chan string)
	go func() {
		defer close(out)
		for evt := range events {
			s, ok := evt.(string)
			if !ok {
				continue
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func newTestHandler(t *testing.T) (*graphql.Handler, *pubsub.Bus) {
	t.Helper()

	bus := pubsub.New()
	schema, err := gql.ParseSchema(probeSDL, &probeResolver{bus: bus}, gql.MaxParallelism(4))
	if err != nil {
		t.Fatalf("parse probe schema: %v", err)
	}

	return graphql.NewHandler(schema, bus, metrics.New(), zap.NewNop()), bus
}

// waitForSubscriber blocks until the bus shows a subscriber on topic.
// Subscription resolvers register asynchronously, so tests must not
// publish before the registration lands.
func waitForSubscriber(t *testing.T, bus *pubsub.Bus, topic string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if stats := bus.Stats(); stats[topic].Subscribers > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("no subscriber appeared on topic %q", topic)
}
