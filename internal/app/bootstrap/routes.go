// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	graphqlfeature "github.com/dalemusser/pulsehub/internal/app/features/graphql"
	healthfeature "github.com/dalemusser/pulsehub/internal/app/features/health"
	"github.com/dalemusser/pulsehub/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler.
//
// The middleware order matters: CORS answers preflights before auth
// runs, and auth resolves bearer tokens into an optional viewer for
// everything below it. Requests with no or bad credentials proceed
// anonymously; nothing at this layer rejects them.
func BuildHandler(cfg Config, deps DBDeps, svc *Services, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.Middleware(svc.Tokens, logger))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus exposition for this process's private registry
	r.Method(http.MethodGet, "/metrics", svc.Metrics.Handler())

	// The whole GraphQL surface: POST execution, websocket
	// subscriptions, and the playground share one path.
	r.Mount("/graphql", graphqlfeature.Routes(svc.GraphQL))

	return r, nil
}

// DegradedHandler answers when post-database startup failed and
// STRICT_STARTUP is off: the process stays up for diagnostics, but the
// API reports unavailable.
func DegradedHandler() http.Handler {
	r := chi.NewRouter()
	r.HandleFunc("/graphql", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "service started in a degraded state; check the logs", http.StatusServiceUnavailable)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "service started in a degraded state; check the logs", http.StatusServiceUnavailable)
	})
	return r
}
