// Package graphql serves the GraphQL API over HTTP and websocket on a
// single path. Queries and mutations arrive as POST bodies; subscriptions
// arrive over a websocket upgrade speaking either the graphql-ws or
// graphql-transport-ws subprotocol.
package graphql

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	gql "github.com/graph-gophers/graphql-go"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/limits"
	"github.com/dalemusser/pulsehub/internal/app/system/metrics"
	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
)

// Handler executes GraphQL operations against the parsed schema. The
// bus it carries is placed on every request context, so resolvers on
// both transports publish and subscribe against the same instance.
type Handler struct {
	Schema  *gql.Schema
	Bus     *pubsub.Bus
	Metrics *metrics.Metrics
	Log     *zap.Logger

	upgrader  websocket.Upgrader
	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

// NewHandler creates a GraphQL handler around a parsed schema.
func NewHandler(schema *gql.Schema, bus *pubsub.Bus, m *metrics.Metrics, logger *zap.Logger) *Handler {
	h := &Handler{
		Schema:  schema,
		Bus:     bus,
		Metrics: m,
		Log:     logger,
		clients: make(map[*wsClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		Subprotocols:    []string{protoGraphQLTransportWS, protoGraphQLWS},
		// Upgrades are open to any origin. The subscription context
		// carries no identity, so the handshake guards nothing; the
		// CORS allow-list applies to the POST transport only.
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return h
}

// graphQLRequest is the standard POST body.
type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// ServeQuery handles POST /graphql.
//
// Execution errors ride back inside the response body exactly as the
// engine produced them; only requests that never reach the engine
// (unreadable or oversized bodies, subscriptions over POST) get a 400.
func (h *Handler) ServeQuery(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxGraphQLRequestSize)

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Log.Debug("unreadable graphql request", zap.Error(err))
		writeErrors(w, http.StatusBadRequest, "could not read request body as a GraphQL query")
		return
	}

	kind := operationKind(req.Query)
	if kind == "subscription" {
		writeErrors(w, http.StatusBadRequest, "subscriptions require a websocket connection")
		return
	}

	ctx := pubsub.NewContext(r.Context(), h.Bus)

	started := time.Now()
	resp := h.Schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	h.Metrics.RecordOperation(kind)
	h.Metrics.RecordDuration(time.Since(started))
	h.Metrics.RecordErrors(len(resp.Errors))

	for _, qerr := range resp.Errors {
		h.Log.Error("graphql error",
			zap.String("kind", kind),
			zap.String("operation", req.OperationName),
			zap.Error(qerr),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Warn("failed to write graphql response", zap.Error(err))
	}
}

// operationKind classifies a query string as query, mutation, or
// subscription by its first keyword. Shorthand documents ("{ ... }")
// are queries.
func operationKind(query string) string {
	s := query
	for {
		s = strings.TrimLeft(s, " \t\r\n,")
		if !strings.HasPrefix(s, "#") {
			break
		}
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
	}
	switch {
	case strings.HasPrefix(s, "mutation"):
		return "mutation"
	case strings.HasPrefix(s, "subscription"):
		return "subscription"
	default:
		return "query"
	}
}

// writeErrors sends a GraphQL-shaped errors payload for requests that
// never reached the engine.
func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	type gqlError struct {
		Message string `json:"message"`
	}
	errs := make([]gqlError, 0, len(messages))
	for _, m := range messages {
		errs = append(errs, gqlError{Message: m})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"errors": errs})
}
