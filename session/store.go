// Package session persists the bearer token handed out by the auth service.
//
// The token lives in a small key-value store injected into the login flow.
// Backends: a 0600 json file under the state dir (default), process memory
// (tests, one-shot runs) and redis (shared between machines).
package session

import (
	"context"
	"errors"
)

// TokenKey is the fixed key the session token is stored under
const TokenKey = "jwt"

var (
	// ErrNotFound is returned by Get for a missing key
	ErrNotFound = errors.New("session key not found")
	// ErrUnknownBackend is returned by Open for an unsupported store spec
	ErrUnknownBackend = errors.New("unknown token store backend")
	// ErrCorrupt is returned by FileStore.Get when the file does not parse.
	// Set and Delete move such a file aside and start over.
	ErrCorrupt = errors.New("session file is corrupt")
)

// Store is the key-value capability the flow persists into
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
