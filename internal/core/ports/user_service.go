package ports

import (
	"context"
	"time"

	"github.com/99minutos/passport/internal/core/domain"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	UserName  string
	UserEmail string
	Password  string
	Nickname  string
	Phone     string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// VerificationInput identifies who a verification code is sent to.
// UserName is only used to address the message.
type VerificationInput struct {
	UserEmail string
	UserName  string
}

// UserService is the passport use-case surface consumed by the HTTP layer.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	SendVerification(ctx context.Context, in VerificationInput) error
	ConfirmVerification(ctx context.Context, email, code string) error
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

// SessionResolver maps a bearer token to its live session.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Session, error)
}
