// Package graph holds the GraphQL schema and its resolvers. The root
// Resolver serves queries, mutations, and subscriptions; per-request
// identity and the event bus both travel in the context, so one Resolver
// instance is shared by every request.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
	"github.com/dalemusser/pulsehub/internal/app/system/ratelimit"
	"github.com/dalemusser/pulsehub/internal/domain/models"
)

// Topics published on the in-process bus.
const (
	TopicPostAdded    = "post_added"
	TopicCommentAdded = "comment_added"
)

// UserStore is the slice of the users store the resolvers need.
type UserStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Search(ctx context.Context, term string, limit int64) ([]models.User, error)
	Create(ctx context.Context, u models.User, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type PostStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	List(ctx context.Context, limit, offset int64) ([]models.Post, error)
	ListByAuthor(ctx context.Context, authorID primitive.ObjectID, limit int64) ([]models.Post, error)
	Create(ctx context.Context, p models.Post) (models.Post, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type CommentStore interface {
	ListByPost(ctx context.Context, postID primitive.ObjectID, limit int64) ([]models.Comment, error)
	Create(ctx context.Context, c models.Comment) (models.Comment, error)
	DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}

type LoginStore interface {
	Record(ctx context.Context, userID primitive.ObjectID, ip, userAgent string) error
}

// Stores bundles the persistence interfaces behind the resolvers.
type Stores struct {
	Users    UserStore
	Posts    PostStore
	Comments CommentStore
	Logins   LoginStore
}

// Resolver is the root resolver.
type Resolver struct {
	Stores  Stores
	Tokens  *auth.TokenIssuer
	Limiter *ratelimit.LoginLimiter
	Log     *zap.Logger
}

var (
	errNotAuthenticated = errors.New("not authenticated")
	errNotAuthorized    = errors.New("not authorized")
	errNoBus            = errors.New("subscriptions are unavailable")
)

func objectID(id graphql.ID) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q", string(id))
	}
	return oid, nil
}

// publish sends payload on the request's bus. A context without a bus
// logs and drops the event; the mutation itself has already committed.
func (r *Resolver) publish(ctx context.Context, topic string, payload any) {
	bus, ok := pubsub.FromContext(ctx)
	if !ok {
		r.Log.Warn("no bus in context, event not published", zap.String("topic", topic))
		return
	}
	bus.Publish(topic, payload)
}
