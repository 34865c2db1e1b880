// internal/app/bootstrap/services.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	gql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	graphqlfeature "github.com/dalemusser/pulsehub/internal/app/features/graphql"
	"github.com/dalemusser/pulsehub/internal/app/graph"
	commentstore "github.com/dalemusser/pulsehub/internal/app/store/comments"
	loginstore "github.com/dalemusser/pulsehub/internal/app/store/logins"
	poststore "github.com/dalemusser/pulsehub/internal/app/store/posts"
	userstore "github.com/dalemusser/pulsehub/internal/app/store/users"
	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/app/system/metrics"
	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
	"github.com/dalemusser/pulsehub/internal/app/system/ratelimit"
	"github.com/dalemusser/pulsehub/internal/app/system/workers"
)

// busStatsInterval is how often the worker samples the bus for the
// per-topic gauges.
const busStatsInterval = 15 * time.Second

// Services bundles everything built after the database is up: the
// event bus, the parsed schema, and the handlers that serve it.
type Services struct {
	Bus      *pubsub.Bus
	Tokens   *auth.TokenIssuer
	Limiter  *ratelimit.LoginLimiter
	Metrics  *metrics.Metrics
	Resolver *graph.Resolver
	Schema   *gql.Schema
	GraphQL  *graphqlfeature.Handler
	BusStats *workers.BusStats
}

// Startup builds the query engine and its supporting services. It runs
// after the database connection and schema setup succeed, and before
// the HTTP handler is built, so a listener never appears without a
// working engine behind it.
func Startup(ctx context.Context, cfg Config, deps DBDeps, logger *zap.Logger) (*Services, error) {
	tokens, err := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	bus := pubsub.New()
	m := metrics.New()

	resolver := &graph.Resolver{
		Stores: graph.Stores{
			Users:    userstore.New(deps.MongoDatabase),
			Posts:    poststore.New(deps.MongoDatabase),
			Comments: commentstore.New(deps.MongoDatabase),
			Logins:   loginstore.New(deps.MongoDatabase),
		},
		Tokens:  tokens,
		Limiter: ratelimit.NewLoginLimiter(),
		Log:     logger,
	}

	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	logger.Info("query engine ready")

	stats := workers.NewBusStats(bus, m, logger, busStatsInterval)
	stats.Start()

	return &Services{
		Bus:      bus,
		Tokens:   tokens,
		Limiter:  resolver.Limiter,
		Metrics:  m,
		Resolver: resolver,
		Schema:   schema,
		GraphQL:  graphqlfeature.NewHandler(schema, bus, m, logger),
		BusStats: stats,
	}, nil
}
