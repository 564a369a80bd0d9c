// Package common contains constants and small helpers shared across the
// gophdrive client packages.
package common

const (
	// AuthorizationHeaderName carries the bearer token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme prefixes the token in the Authorization header.
	BearerScheme = "Bearer"

	// RequestIDHeaderName carries a per-request correlation id.
	RequestIDHeaderName = "X-Request-ID"

	// DefaultContentType is assumed when the service does not name one.
	DefaultContentType = "application/octet-stream"
)
