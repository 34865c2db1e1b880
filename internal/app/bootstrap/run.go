// internal/app/bootstrap/run.go

// Package bootstrap wires configuration, the database, the query
// engine, and the HTTP server together, in that order. The listener
// only starts after the database connection and the engine build have
// both succeeded.
package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/timeouts"
)

// readHeaderTimeout bounds header parsing on new connections. Body
// reads stay unbounded because websocket connections are hijacked out
// of the server's control.
const readHeaderTimeout = 10 * time.Second

// Run boots the service and blocks until shutdown. The returned error
// is non-nil for fatal startup failures; main turns it into a non-zero
// exit.
//
// Failure handling is deliberately asymmetric: a database that cannot
// be reached within the connect window kills the process, while later
// startup failures only do so when STRICT_STARTUP is set. Otherwise
// the process stays up serving a degraded handler.
func Run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := ValidateConfig(cfg, logger); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("overrides", n))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := ConnectDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("database connection failed", zap.Error(err))
		return err
	}

	var (
		handler http.Handler
		svc     *Services
	)

	if err := EnsureSchema(ctx, deps, logger); err != nil {
		if cfg.StrictStartup {
			logger.Error("schema setup failed", zap.Error(err))
			return err
		}
		logger.Error("schema setup failed, continuing without it", zap.Error(err))
	}

	svc, err = Startup(ctx, cfg, deps, logger)
	if err != nil {
		if cfg.StrictStartup {
			logger.Error("startup failed", zap.Error(err))
			return err
		}
		logger.Error("startup failed, serving degraded handler", zap.Error(err))
		handler = DegradedHandler()
	} else {
		handler, err = BuildHandler(cfg, deps, svc, logger)
		if err != nil {
			if cfg.StrictStartup {
				logger.Error("handler build failed", zap.Error(err))
				return err
			}
			logger.Error("handler build failed, serving degraded handler", zap.Error(err))
			handler = DegradedHandler()
		}
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.Int("port", cfg.Port),
			zap.String("graphql", "/graphql"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		logger.Error("http server failed", zap.Error(err))
		Shutdown(deps, svc, nil, logger)
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	Shutdown(deps, svc, srv, logger)
	return nil
}
