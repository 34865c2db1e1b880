package commentstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/pulsehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pulsehub/internal/app/system/inputval"
	"github.com/dalemusser/pulsehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("comments")}
}

var errBadBody = fmt.Errorf("comment must be 1-%d characters", inputval.MaxCommentBodyLength)

// ListByPost returns a post's comments oldest-first, reading the
// conversation top to bottom.
func (s *Store) ListByPost(ctx context.Context, postID primitive.ObjectID, limit int64) ([]models.Comment, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Create inserts a new comment after sanitizing its body.
func (s *Store) Create(ctx context.Context, c models.Comment) (models.Comment, error) {
	c.ID = primitive.NewObjectID()
	c.Body = strings.TrimSpace(htmlsanitize.Sanitize(c.Body))

	if c.Body == "" || len(c.Body) > inputval.MaxCommentBodyLength {
		return models.Comment{}, errBadBody
	}
	if c.PostID.IsZero() {
		return models.Comment{}, errors.New("comment requires a post")
	}
	if c.AuthorID.IsZero() {
		return models.Comment{}, errors.New("comment requires an author")
	}

	c.CreatedAt = time.Now()

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

// DeleteByPost removes all comments on a post, returning how many were
// deleted. Used when the post itself is deleted.
func (s *Store) DeleteByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByPost returns the number of comments on a post.
func (s *Store) CountByPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"post_id": postID})
}
