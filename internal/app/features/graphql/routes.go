package graphql

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// Routes serves the whole GraphQL surface on one path. POST executes
// queries and mutations, a websocket upgrade on GET starts the
// subscription transport, and a plain GET serves the playground.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	play := playground.Handler("PulseHub", "/graphql")

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		if websocket.IsWebSocketUpgrade(req) {
			h.ServeWS(w, req)
			return
		}
		play.ServeHTTP(w, req)
	})
	r.Post("/", h.ServeQuery)

	return r
}
