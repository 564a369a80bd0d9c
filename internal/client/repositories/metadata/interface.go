// Package metadata is the durable key/value table behind the credential
// store. Values are opaque bytes; callers own their encoding.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns the value stored under key. found is false when the key
	// is absent; that is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
