// Package metadata is the client's local key/value cache. It holds the
// session email and refresh token between runs.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyEmail        = "email"
	KeyRefreshToken = "refresh_token"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key; deleting a missing key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}
