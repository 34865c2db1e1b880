// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a top-level entry in the feed.
type Post struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID primitive.ObjectID `bson:"author_id" json:"author_id"`
	Title    string             `bson:"title" json:"title"`
	Body     string             `bson:"body" json:"body"` // sanitized HTML

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
