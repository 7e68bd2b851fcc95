// Package metadata is the client's local key/value table. It holds the
// persisted session and the tokens issued by the server.
package metadata

import (
	"context"
)

// Key names a metadata entry.
type Key string

const (
	// KeySession holds the identity payload as JSON.
	KeySession Key = "session"
	// KeySessionToken holds the server session token.
	KeySessionToken Key = "session_token"
	// KeyPending holds the pending registration of a first sign-in as JSON.
	KeyPending Key = "pending_registration"
)

// Repository stores opaque values by key. Get returns nil, nil for an absent
// key.
type Repository interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Delete(ctx context.Context, keys ...Key) error
	List(ctx context.Context) (map[Key][]byte, error)
}
