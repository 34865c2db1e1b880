// internal/app/system/limits/limits.go
package limits

// Request body size limits.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxGraphQLRequestSize is the maximum size of a GraphQL POST body.
	MaxGraphQLRequestSize = 1 << 20 // 1 MB

	// MaxWSMessageSize is the maximum size of a single websocket frame
	// on the subscription transport.
	MaxWSMessageSize = 1 << 20 // 1 MB
)
