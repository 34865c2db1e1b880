package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/pulsehub/internal/app/system/normalize"
	"github.com/dalemusser/pulsehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// placeholderHash satisfies the users collection validator for fixtures
// whose password is never checked. It is not a hash of anything.
const placeholderHash = "$2a$12$abcdefghijklmnopqrstuvwxyz0123456789abcdefghijklmnopq"

// CreateUser creates a test user that cannot log in (its stored hash
// matches no password). Use CreateUserWithPassword when the test needs
// to authenticate.
func (f *Fixtures) CreateUser(ctx context.Context, displayName, email string) models.User {
	f.t.Helper()
	return f.insertUser(ctx, displayName, email, placeholderHash, "active")
}

// CreateUserWithPassword creates a test user whose password verifies.
// The hash uses bcrypt.MinCost to keep tests fast.
func (f *Fixtures) CreateUserWithPassword(ctx context.Context, displayName, email, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}
	return f.insertUser(ctx, displayName, email, string(hash), "active")
}

// CreateDisabledUser creates a test user with disabled status whose
// password verifies, for exercising the disabled-account login path.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, displayName, email, password string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("failed to hash fixture password: %v", err)
	}
	return f.insertUser(ctx, displayName, email, string(hash), "disabled")
}

func (f *Fixtures) insertUser(ctx context.Context, displayName, email, hash, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:            primitive.NewObjectID(),
		DisplayName:   displayName,
		DisplayNameCI: normalize.Fold(displayName),
		Email:         normalize.Email(email),
		PasswordHash:  hash,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreatePost creates a test post by the given author.
func (f *Fixtures) CreatePost(ctx context.Context, authorID primitive.ObjectID, title, body string) models.Post {
	f.t.Helper()

	now := time.Now().UTC()
	post := models.Post{
		ID:        primitive.NewObjectID(),
		AuthorID:  authorID,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("posts").InsertOne(ctx, post); err != nil {
		f.t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// CreateComment creates a test comment on the given post.
func (f *Fixtures) CreateComment(ctx context.Context, postID, authorID primitive.ObjectID, body string) models.Comment {
	f.t.Helper()

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("comments").InsertOne(ctx, comment); err != nil {
		f.t.Fatalf("failed to create test comment: %v", err)
	}
	return comment
}
