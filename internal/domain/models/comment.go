// internal/domain/models/comment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a reply attached to a post.
type Comment struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID   primitive.ObjectID `bson:"post_id" json:"post_id"`
	AuthorID primitive.ObjectID `bson:"author_id" json:"author_id"`
	Body     string             `bson:"body" json:"body"` // sanitized HTML

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
