package ports

import (
	"context"

	"github.com/99minutos/passport/internal/core/domain"
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	// FindByEmailOrUserName matches on email, or on email OR userName when
	// userName is non-empty. Empty criteria are ignored; with none left, or
	// on no match, it returns domain.ErrUserNotFound.
	FindByEmailOrUserName(ctx context.Context, email, userName string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// Create inserts the user and returns it with its assigned ID.
	// A uniqueness violation is reported as domain.ErrDuplicateUser.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update applies changes to the user identified by id. Updating a
	// missing id is not an error; callers re-fetch to find out.
	Update(ctx context.Context, id string, changes domain.UserChanges) error
}
