package graph

import (
	"context"
	"errors"

	"github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/policy/postpolicy"
	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/app/system/paging"
	"github.com/dalemusser/pulsehub/internal/app/system/timeouts"
	"github.com/dalemusser/pulsehub/internal/domain/models"
)

// PostResolver wraps a post document.
type PostResolver struct {
	r *Resolver
	p models.Post
}

func postResolvers(r *Resolver, posts []models.Post) []*PostResolver {
	out := make([]*PostResolver, 0, len(posts))
	for _, p := range posts {
		out = append(out, &PostResolver{r: r, p: p})
	}
	return out
}

func (pr *PostResolver) ID() graphql.ID {
	return graphql.ID(pr.p.ID.Hex())
}

func (pr *PostResolver) Title() string {
	return pr.p.Title
}

func (pr *PostResolver) Body() string {
	return pr.p.Body
}

func (pr *PostResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: pr.p.CreatedAt}
}

// Author resolves the post's author. The schema marks it non-null, so a
// missing author document surfaces as a field error.
func (pr *PostResolver) Author(ctx context.Context) (*UserResolver, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := pr.r.Stores.Users.GetByID(ctx, pr.p.AuthorID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("post author no longer exists")
		}
		return nil, err
	}
	return &UserResolver{r: pr.r, u: *u}, nil
}

// Comments returns the post's comments oldest-first, capped at the
// paging maximum.
func (pr *PostResolver) Comments(ctx context.Context) ([]*CommentResolver, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	comments, err := pr.r.Stores.Comments.ListByPost(ctx, pr.p.ID, paging.MaxLimit)
	if err != nil {
		return nil, err
	}
	return commentResolvers(pr.r, comments), nil
}

// Post looks up a single post; unknown IDs resolve to null.
func (r *Resolver) Post(ctx context.Context, args struct{ ID graphql.ID }) (*PostResolver, error) {
	id, err := objectID(args.ID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	p, err := r.Stores.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &PostResolver{r: r, p: *p}, nil
}

// Posts returns the feed, newest first. Limit is clamped to the paging
// bounds; a negative offset reads from the top.
func (r *Resolver) Posts(ctx context.Context, args struct {
	Limit  *int32
	Offset *int32
}) ([]*PostResolver, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	posts, err := r.Stores.Posts.List(ctx, paging.Limit(args.Limit), paging.Offset(args.Offset))
	if err != nil {
		return nil, err
	}
	return postResolvers(r, posts), nil
}

// CreatePost inserts a post for the viewer and announces it on the bus.
func (r *Resolver) CreatePost(ctx context.Context, args struct{ Title, Body string }) (*PostResolver, error) {
	viewer, ok := auth.ViewerFrom(ctx)
	if !ok || !postpolicy.CanCreate(viewer) {
		return nil, errNotAuthenticated
	}

	opCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	post, err := r.Stores.Posts.Create(opCtx, models.Post{
		AuthorID: viewer.ID,
		Title:    args.Title,
		Body:     args.Body,
	})
	if err != nil {
		return nil, err
	}

	r.publish(ctx, TopicPostAdded, post)
	return &PostResolver{r: r, p: post}, nil
}

// DeletePost removes the viewer's own post and its comments. Returns
// false when the post is already gone.
func (r *Resolver) DeletePost(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	viewer, ok := auth.ViewerFrom(ctx)
	if !ok {
		return false, errNotAuthenticated
	}

	id, err := objectID(args.ID)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	post, err := r.Stores.Posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	if !postpolicy.CanDelete(viewer, post) {
		return false, errNotAuthorized
	}

	deleted, err := r.Stores.Posts.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted == 0 {
		return false, nil
	}

	// Orphaned comments are invisible (every read is by post_id), so a
	// failure here only wastes space.
	if _, err := r.Stores.Comments.DeleteByPost(ctx, id); err != nil {
		r.Log.Error("failed to delete comments for post",
			zap.String("post_id", id.Hex()),
			zap.Error(err),
		)
	}
	return true, nil
}
