package graph

import (
	"context"
	"errors"

	"github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/pulsehub/internal/app/policy/postpolicy"
	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/app/system/timeouts"
	"github.com/dalemusser/pulsehub/internal/domain/models"
)

// CommentResolver wraps a comment document.
type CommentResolver struct {
	r *Resolver
	c models.Comment
}

func commentResolvers(r *Resolver, comments []models.Comment) []*CommentResolver {
	out := make([]*CommentResolver, 0, len(comments))
	for _, c := range comments {
		out = append(out, &CommentResolver{r: r, c: c})
	}
	return out
}

func (cr *CommentResolver) ID() graphql.ID {
	return graphql.ID(cr.c.ID.Hex())
}

func (cr *CommentResolver) PostID() graphql.ID {
	return graphql.ID(cr.c.PostID.Hex())
}

func (cr *CommentResolver) Body() string {
	return cr.c.Body
}

func (cr *CommentResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: cr.c.CreatedAt}
}

func (cr *CommentResolver) Author(ctx context.Context) (*UserResolver, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := cr.r.Stores.Users.GetByID(ctx, cr.c.AuthorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("comment author no longer exists")
		}
		return nil, err
	}
	return &UserResolver{r: cr.r, u: *u}, nil
}

// AddComment inserts a comment on an existing post for the viewer and
// announces it on the bus.
func (r *Resolver) AddComment(ctx context.Context, args struct {
	PostID graphql.ID
	Body   string
}) (*CommentResolver, error) {
	viewer, ok := auth.ViewerFrom(ctx)
	if !ok || !postpolicy.CanCreate(viewer) {
		return nil, errNotAuthenticated
	}

	postID, err := objectID(args.PostID)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	// The post must still exist; racing a delete yields an error, not an
	// orphan comment.
	if _, err := r.Stores.Posts.GetByID(opCtx, postID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("post not found")
		}
		return nil, err
	}

	comment, err := r.Stores.Comments.Create(opCtx, models.Comment{
		PostID:   postID,
		AuthorID: viewer.ID,
		Body:     args.Body,
	})
	if err != nil {
		return nil, err
	}

	r.publish(ctx, TopicCommentAdded, comment)
	return &CommentResolver{r: r, c: comment}, nil
}
