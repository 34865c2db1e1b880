package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/pulsehub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestTokenSecret signs tokens in tests. Any non-empty string works; it
// only has to match between the issuer and the middleware under test.
const TestTokenSecret = "test-secret-please-ignore"

// NewTokenIssuer returns a token issuer wired with the shared test secret.
func NewTokenIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(TestTokenSecret, 0)
	if err != nil {
		t.Fatalf("failed to create test token issuer: %v", err)
	}
	return issuer
}

// WithViewer injects an authenticated viewer into the request context,
// bypassing the bearer-token middleware.
func WithViewer(r *http.Request, id primitive.ObjectID, email string) *http.Request {
	ctx := auth.WithViewer(r.Context(), &auth.Viewer{ID: id, Email: email})
	return r.WithContext(ctx)
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewAuthenticatedRequest creates an HTTP request carrying a valid bearer
// token for the given user, minted with the shared test secret.
func NewAuthenticatedRequest(t *testing.T, method, target string, id primitive.ObjectID, email string) *http.Request {
	t.Helper()

	token, err := NewTokenIssuer(t).Mint(id, email)
	if err != nil {
		t.Fatalf("failed to mint test token: %v", err)
	}
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}
