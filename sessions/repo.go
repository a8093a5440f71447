package sessions

import "context"

// Store holds sessions keyed by an opaque id. Implementations must be safe for
// concurrent use and must never hand out a *Session that aliases stored state.
type Store interface {
	// Get returns the session or errors.ErrSessionNotFound when the id is
	// unknown or expired
	Get(ctx context.Context, id string) (*Session, error)

	// Create stores a fresh, unauthenticated session under a new random id
	Create(ctx context.Context) (string, *Session, error)

	// Save overwrites the session stored under id
	Save(ctx context.Context, id string, session *Session) error

	// Clear removes the session. Clearing an unknown id is not an error.
	Clear(ctx context.Context, id string) error

	// Update applies fn to the stored session atomically with respect to
	// every other Update on the same id. When fn returns an error nothing is
	// written and the error is returned unchanged.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)

	// Close releases background resources
	Close() error
}
