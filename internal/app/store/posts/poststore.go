package poststore

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
	return &Store{c: db.Collection("posts")}
}

var (
	errBadTitle = fmt.Errorf("title must be 1-%d characters", inputval.MaxPostTitleLength)
	errBadBody  = fmt.Errorf("body must be 1-%d characters", inputval.MaxPostBodyLength)
)

// GetByID loads a post by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns posts newest-first. The (created_at, _id) sort keeps the
// order stable for posts created in the same millisecond.
func (s *Store) List(ctx context.Context, limit, offset int64) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListByAuthor returns a single author's posts newest-first.
func (s *Store) ListByAuthor(ctx context.Context, authorID primitive.ObjectID, limit int64) ([]models.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"author_id": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Create inserts a new post after validating and sanitizing its fields.
// The title is reduced to plain text; the body keeps safe user HTML.
func (s *Store) Create(ctx context.Context, p models.Post) (models.Post, error) {
	p.ID = primitive.NewObjectID()
	p.Title = htmlsanitize.StripTags(p.Title)
	p.Body = strings.TrimSpace(htmlsanitize.Sanitize(p.Body))

	if p.Title == "" || len(p.Title) > inputval.MaxPostTitleLength {
		return models.Post{}, errBadTitle
	}
	if p.Body == "" || len(p.Body) > inputval.MaxPostBodyLength {
		return models.Post{}, errBadBody
	}
	if p.AuthorID.IsZero() {
		return models.Post{}, errors.New("post requires an author")
	}

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Post{}, err
	}
	return p, nil
}

// Delete removes a post by ID. Returns the number of documents deleted
// (0 or 1). Comment cleanup is the caller's responsibility.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
