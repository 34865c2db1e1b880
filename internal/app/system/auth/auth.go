package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/pulsehub/internal/app/system/ratelimit"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Viewer & context plumbing                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// Viewer is the authenticated identity injected into request contexts.
// Anonymous requests simply have no viewer; nothing in the HTTP layer
// rejects them.
type Viewer struct {
	ID    primitive.ObjectID
	Email string
}

type ctxKey string

const (
	viewerKey    ctxKey = "viewer"
	clientIPKey  ctxKey = "client_ip"
	userAgentKey ctxKey = "user_agent"
)

// WithViewer returns a copy of ctx that carries the viewer.
func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFrom returns the viewer and a "found?" flag.
func ViewerFrom(ctx context.Context) (*Viewer, bool) {
	v, ok := ctx.Value(viewerKey).(*Viewer)
	return v, ok
}

// WithClientIP returns a copy of ctx that carries the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFrom returns the client IP recorded by the HTTP middleware,
// or "" if the context never passed through it.
func ClientIPFrom(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}

// WithUserAgent returns a copy of ctx that carries the User-Agent header.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey, ua)
}

// UserAgentFrom returns the User-Agent recorded by the HTTP middleware,
// or "" if the context never passed through it.
func UserAgentFrom(ctx context.Context) string {
	ua, _ := ctx.Value(userAgentKey).(string)
	return ua
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token minting & verification                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// DefaultTokenTTL is how long a minted token stays valid unless
// configured otherwise.
const DefaultTokenTTL = 168 * time.Hour

// Claims is the JWT payload minted at login.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

// TokenIssuer mints and verifies the signed bearer tokens used by the API.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer signing with HMAC-SHA256.
// A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Mint signs a token for the given user.
func (t *TokenIssuer) Mint(userID primitive.ObjectID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			Issuer:    "pulsehub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: userID.Hex(),
		Email:  email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Verify parses and validates a token string and returns the viewer it
// identifies. Expired, malformed, or foreign-signed tokens return an error.
func (t *TokenIssuer) Verify(token string) (*Viewer, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	hexID := claims.UserID
	if hexID == "" {
		hexID = claims.Subject
	}
	id, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a valid user id: %w", err)
	}

	return &Viewer{ID: id, Email: claims.Email}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| HTTP middleware                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// BearerToken extracts the token from an Authorization header.
// Returns "" when the header is absent or uses a different scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware resolves the Authorization header into a viewer on the
// request context. Requests with a missing, malformed, or expired token
// proceed anonymously; resolvers decide per field whether a viewer is
// required. The client IP is recorded on every request for rate limiting.
func Middleware(issuer *TokenIssuer, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithClientIP(r.Context(), ratelimit.ClientIP(r))
			ctx = WithUserAgent(ctx, r.UserAgent())

			if token := BearerToken(r); token != "" {
				if viewer, err := issuer.Verify(token); err == nil {
					ctx = WithViewer(ctx, viewer)
				} else if log != nil {
					log.Debug("rejected bearer token", zap.Error(err))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
