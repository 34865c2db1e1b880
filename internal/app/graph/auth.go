package graph

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"github.com/dalemusser/pulsehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/pulsehub/internal/app/system/timeouts"
	"github.com/dalemusser/pulsehub/internal/domain/models"
)

// AuthPayloadResolver is the result of register and login.
type AuthPayloadResolver struct {
	token string
	user  *UserResolver
}

func (ar *AuthPayloadResolver) Token() string {
	return ar.token
}

func (ar *AuthPayloadResolver) User() *UserResolver {
	return ar.user
}

// Register creates an account and signs the new user in.
func (r *Resolver) Register(ctx context.Context, args struct {
	DisplayName string
	Email       string
	Password    string
}) (*AuthPayloadResolver, error) {
	if !htmlsanitize.IsPlainText(args.DisplayName) {
		return nil, errors.New("display name cannot contain HTML")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	u, err := r.Stores.Users.Create(ctx, models.User{
		DisplayName: args.DisplayName,
		Email:       args.Email,
	}, args.Password)
	if err != nil {
		return nil, err
	}

	token, err := r.Tokens.Mint(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	return &AuthPayloadResolver{token: token, user: &UserResolver{r: r, u: u}}, nil
}

// Login verifies credentials and returns a fresh token. Attempts are
// rate limited by client IP and by email before the password check.
func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*AuthPayloadResolver, error) {
	ip := auth.ClientIPFrom(ctx)

	if r.Limiter != nil {
		if allowed, reason := r.Limiter.Check(ip, args.Email); !allowed {
			return nil, errors.New(reason)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	u, err := r.Stores.Users.Authenticate(ctx, args.Email, args.Password)
	if err != nil {
		return nil, err
	}

	if r.Limiter != nil {
		r.Limiter.ResetEmail(args.Email)
	}

	token, err := r.Tokens.Mint(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	// The login record is best effort; the login itself already succeeded.
	if err := r.Stores.Logins.Record(ctx, u.ID, ip, auth.UserAgentFrom(ctx)); err != nil {
		r.Log.Warn("failed to record login",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err),
		)
	}

	return &AuthPayloadResolver{token: token, user: &UserResolver{r: r, u: *u}}, nil
}
