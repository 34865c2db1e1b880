// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/indexes"
	"github.com/dalemusser/pulsehub/internal/app/system/timeouts"
	"github.com/dalemusser/pulsehub/internal/app/system/validators"
)

// dbConnectTimeout bounds the whole connection attempt, server
// selection and the verification ping included. A Mongo that cannot be
// reached inside this window fails startup.
const dbConnectTimeout = 5 * time.Second

// tcp4Dialer pins Mongo connections to IPv4. "localhost" resolving to
// ::1 first burns the connect window on hosts where Mongo only listens
// on 127.0.0.1.
type tcp4Dialer struct {
	d *net.Dialer
}

func (t tcp4Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if network == "tcp" {
		network = "tcp4"
	}
	return t.d.DialContext(ctx, network, address)
}

// ConnectDB connects to MongoDB and verifies the connection with a
// primary ping. Failure here is fatal to startup.
func ConnectDB(ctx context.Context, cfg Config, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(dbConnectTimeout).
		SetConnectTimeout(dbConnectTimeout).
		SetDialer(tcp4Dialer{d: &net.Dialer{}})

	ctx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(cfg.MongoDatabase),
	}, nil
}

// EnsureSchema reconciles collections, JSON-Schema validators, and
// indexes. Idempotent; safe to run on every startup.
func EnsureSchema(ctx context.Context, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Long(), logger, "schema reconcile")
	defer cancel()

	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
