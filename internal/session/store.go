// Package session stores opaque web-session records: an unguessable
// string id, a serialized payload owned by the caller, and an expiry.
// A record past its expiry is treated as absent by every reader even
// before it is physically purged.
package session

import (
	"context"
	"errors"

	"github.com/BurntNail/denim/internal/model"
)

var (
	// ErrNotFound is returned when a session is absent or expired.
	ErrNotFound = errors.New("session not found")
	// ErrConflict is returned by Create on an id collision; callers
	// regenerate the token and retry.
	ErrConflict = errors.New("session id already exists")
)

// Store is the session persistence contract. Two backings exist:
// Postgres (shares the registry pool) and Redis (native TTL expiry).
type Store interface {
	// Create inserts a new session and fails with ErrConflict when
	// the id is already taken.
	Create(ctx context.Context, record model.Session) error
	// Save upserts a session, refreshing payload and expiry.
	Save(ctx context.Context, record model.Session) error
	// Load returns a live session, or ErrNotFound when the id is
	// unknown or the record has expired.
	Load(ctx context.Context, id string) (model.Session, error)
	// Delete removes a session; deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error
	// PurgeExpired physically removes expired rows and returns how
	// many were deleted. Backings that expire natively return 0.
	PurgeExpired(ctx context.Context) (int64, error)
}
