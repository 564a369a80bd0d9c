// Package client is the request gateway between the gophdrive CLI and the
// remote storage service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface):
//     Register, Login, ListFiles, Upload, Download, Delete and Ping.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) with one base URL,
//     a per-request timeout, an X-Request-ID header on every call and the
//     bearer token read through a TokenProvider on every call.
//
// # Error Handling
//
// Non-2xx responses become *APIError values whose Unwrap returns one of the
// sentinels ErrUnauthorized, ErrValidation, ErrNotFound, ErrUnavailable or
// ErrServer, so callers match them with errors.Is. Transport failures wrap
// ErrUnavailable. Describe picks the most specific user-facing message.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context and honor cancellation.
package client
