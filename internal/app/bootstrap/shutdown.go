// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// shutdownTimeout bounds the whole teardown: HTTP drain, websocket
// close, worker stop, and the Mongo disconnect.
const shutdownTimeout = 10 * time.Second

// Shutdown tears the service down in reverse startup order. srv and
// svc may be nil when the corresponding phase never completed.
//
// Draining the HTTP server does not touch hijacked connections, so
// open websockets are closed explicitly after the drain.
func Shutdown(deps DBDeps, svc *Services, srv *http.Server, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("http drain incomplete", zap.Error(err))
		}
	}

	if svc != nil {
		svc.GraphQL.CloseAll()
		svc.BusStats.Stop()
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}
