package graph_test

import (
	"context"
	"time"

	"github.com/dalemusser/pulsehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// In-memory store fakes. They record the arguments resolvers pass down
// so tests can assert on clamping and filtering without a database.

type fakeUsers struct {
	byID map[primitive.ObjectID]models.User

	searchResult    []models.User
	lastSearchTerm  string
	lastSearchLimit int64

	createErr error
	created   []models.User

	authUser *models.User
	authErr  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[primitive.ObjectID]models.User)}
}

func (f *fakeUsers) add(u models.User) models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &u, nil
}

func (f *fakeUsers) Search(_ context.Context, term string, limit int64) ([]models.User, error) {
	f.lastSearchTerm = term
	f.lastSearchLimit = limit
	return f.searchResult, nil
}

func (f *fakeUsers) Create(_ context.Context, u models.User, password string) (models.User, error) {
	if f.createErr != nil {
		return models.User{}, f.createErr
	}
	u = f.add(u)
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.authUser, nil
}

type fakePosts struct {
	byID map[primitive.ObjectID]models.Post

	listResult []models.Post
	lastLimit  int64
	lastOffset int64
}

func newFakePosts() *fakePosts {
	return &fakePosts{byID: make(map[primitive.ObjectID]models.Post)}
}

func (f *fakePosts) add(p models.Post) models.Post {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	f.byID[p.ID] = p
	return p
}

func (f *fakePosts) GetByID(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &p, nil
}

func (f *fakePosts) List(_ context.Context, limit, offset int64) ([]models.Post, error) {
	f.lastLimit = limit
	f.lastOffset = offset
	return f.listResult, nil
}

func (f *fakePosts) ListByAuthor(_ context.Context, authorID primitive.ObjectID, limit int64) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.byID {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePosts) Create(_ context.Context, p models.Post) (models.Post, error) {
	return f.add(p), nil
}

func (f *fakePosts) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := f.byID[id]; !ok {
		return 0, nil
	}
	delete(f.byID, id)
	return 1, nil
}

type fakeComments struct {
	byPost map[primitive.ObjectID][]models.Comment

	deletedFor []primitive.ObjectID
}

func newFakeComments() *fakeComments {
	return &fakeComments{byPost: make(map[primitive.ObjectID][]models.Comment)}
}

func (f *fakeComments) ListByPost(_ context.Context, postID primitive.ObjectID, limit int64) ([]models.Comment, error) {
	return f.byPost[postID], nil
}

func (f *fakeComments) Create(_ context.Context, c models.Comment) (models.Comment, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.byPost[c.PostID] = append(f.byPost[c.PostID], c)
	return c, nil
}

func (f *fakeComments) DeleteByPost(_ context.Context, postID primitive.ObjectID) (int64, error) {
	n := int64(len(f.byPost[postID]))
	delete(f.byPost, postID)
	f.deletedFor = append(f.deletedFor, postID)
	return n, nil
}

type loginRecord struct {
	userID    primitive.ObjectID
	ip        string
	userAgent string
}

type fakeLogins struct {
	records []loginRecord
}

func (f *fakeLogins) Record(_ context.Context, userID primitive.ObjectID, ip, userAgent string) error {
	f.records = append(f.records, loginRecord{userID: userID, ip: ip, userAgent: userAgent})
	return nil
}
