// Package postpolicy provides authorization policies for posts.
//
// Authorization rules:
//   - Any authenticated user can create posts and add comments
//   - Only the post's author can delete the post
//   - Unauthenticated requests cannot mutate anything
package postpolicy

import (
	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanCreate reports whether the viewer may create posts or comments.
func CanCreate(viewer *auth.Viewer) bool {
	return viewer != nil && viewer.ID != primitive.NilObjectID
}

// CanDelete reports whether the viewer may delete the post.
func CanDelete(viewer *auth.Viewer, post *models.Post) bool {
	if viewer == nil || post == nil {
		return false
	}
	return viewer.ID == post.AuthorID
}
