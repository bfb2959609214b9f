package sessionRepo

import (
	"context"
	"errors"
	"time"

	"stayloom/models"
)

// ErrNotFound is returned when a session is absent from the live store.
var ErrNotFound = errors.New("session not found")

// SessionStore holds live negotiation sessions. Implementations must back
// Save/Get with an atomically-updatable shared store so sessions survive
// process restarts, and Acquire with an insert-if-absent lock so rounds on
// one session are serialized across concurrent requests.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error)
	Save(ctx context.Context, session *models.NegotiationSession, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error

	// Acquire takes the per-session exclusive lock; it returns false when
	// another round is in flight. Release frees it.
	Acquire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, sessionID string) error

	// OpenSessionIDs lists sessions the expiry sweep should inspect.
	OpenSessionIDs(ctx context.Context) ([]string, error)
}

// SessionArchive receives sessions that reached a terminal status; the
// live store forgets them, the archive keeps the durable record.
type SessionArchive interface {
	Archive(ctx context.Context, session *models.NegotiationSession) error
	Lookup(ctx context.Context, sessionID string) (*models.NegotiationSession, error)
}
