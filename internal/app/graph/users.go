package graph

import (
	"context"
	"errors"

	"github.com/graph-gophers/graphql-go"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/app/system/paging"
	"github.com/dalemusser/pulsehub/internal/app/system/timeouts"
	"github.com/dalemusser/pulsehub/internal/domain/models"
)

// UserResolver wraps a user document.
type UserResolver struct {
	r *Resolver
	u models.User
}

func (ur *UserResolver) ID() graphql.ID {
	return graphql.ID(ur.u.ID.Hex())
}

func (ur *UserResolver) DisplayName() string {
	return ur.u.DisplayName
}

func (ur *UserResolver) Email() string {
	return ur.u.Email
}

func (ur *UserResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: ur.u.CreatedAt}
}

// Posts returns the user's posts, newest first, capped at the paging
// maximum.
func (ur *UserResolver) Posts(ctx context.Context) ([]*PostResolver, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	posts, err := ur.r.Stores.Posts.ListByAuthor(ctx, ur.u.ID, paging.MaxLimit)
	if err != nil {
		return nil, err
	}
	return postResolvers(ur.r, posts), nil
}

// Me resolves to the viewer's user record, or null for anonymous
// requests. A token whose user no longer exists also resolves to null.
func (r *Resolver) Me(ctx context.Context) (*UserResolver, error) {
	viewer, ok := auth.ViewerFrom(ctx)
	if !ok {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := r.Stores.Users.GetByID(ctx, viewer.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &UserResolver{r: r, u: *u}, nil
}

// User looks up a single user; unknown IDs resolve to null.
func (r *Resolver) User(ctx context.Context, args struct{ ID graphql.ID }) (*UserResolver, error) {
	id, err := objectID(args.ID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := r.Stores.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &UserResolver{r: r, u: *u}, nil
}

// Users searches display names by case-insensitive prefix. An absent or
// empty search term lists users alphabetically instead.
func (r *Resolver) Users(ctx context.Context, args struct{ Search *string }) ([]*UserResolver, error) {
	term := ""
	if args.Search != nil {
		term = *args.Search
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	users, err := r.Stores.Users.Search(ctx, term, paging.DefaultLimit)
	if err != nil {
		return nil, err
	}

	out := make([]*UserResolver, 0, len(users))
	for _, u := range users {
		out = append(out, &UserResolver{r: r, u: u})
	}
	return out, nil
}
