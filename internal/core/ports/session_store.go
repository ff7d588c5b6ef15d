package ports

import (
	"context"

	"github.com/99minutos/passport/internal/core/domain"
)

// SessionStore keeps login sessions in an expiring key-value store.
type SessionStore interface {
	// Save stores the session until its ExpiresAt.
	Save(ctx context.Context, session *domain.Session) error
	// Find returns domain.ErrSessionNotFound when the session is absent or
	// has been evicted.
	Find(ctx context.Context, id string) (*domain.Session, error)
	// Delete reports whether a session was removed.
	Delete(ctx context.Context, id string) (bool, error)
}
