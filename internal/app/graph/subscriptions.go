package graph

import (
	"context"

	"github.com/graph-gophers/graphql-go"

	"github.com/dalemusser/pulsehub/internal/app/system/pubsub"
	"github.com/dalemusser/pulsehub/internal/domain/models"
)

// PostAdded streams every new post. The subscription lives until the
// context is canceled; the bus closes the event channel then.
func (r *Resolver) PostAdded(ctx context.Context) (<-chan *PostResolver, error) {
	bus, ok := pubsub.FromContext(ctx)
	if !ok {
		return nil, errNoBus
	}

	events := bus.Subscribe(ctx, TopicPostAdded)
	out := make(chan *PostResolver)
	go func() {
		defer close(out)
		for evt := range events {
			post, ok := evt.(models.Post)
			if !ok {
				continue
			}
			select {
			case out <- &PostResolver{r: r, p: post}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// CommentAdded streams new comments on one post. Filtering happens here;
// the bus topic carries comments for all posts.
func (r *Resolver) CommentAdded(ctx context.Context, args struct{ PostID graphql.ID }) (<-chan *CommentResolver, error) {
	postID, err := objectID(args.PostID)
	if err != nil {
		return nil, err
	}

	bus, ok := pubsub.FromContext(ctx)
	if !ok {
		return nil, errNoBus
	}

	events := bus.Subscribe(ctx, TopicCommentAdded)
	out := make(chan *CommentResolver)
	go func() {
		defer close(out)
		for evt := range events {
			comment, ok := evt.(models.Comment)
			if !ok || comment.PostID != postID {
				continue
			}
			select {
			case out <- &CommentResolver{r: r, c: comment}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
