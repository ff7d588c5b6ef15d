package ports

import (
	"context"

	"github.com/99minutos/passport/internal/core/domain"
)

// VerificationStore persists verification codes and the per-address
// issuance counter.
type VerificationStore interface {
	// IssueCount returns how many codes were issued to email in the current
	// window. It does not mutate state.
	IssueCount(ctx context.Context, email string) (int, error)
	// SaveCode stores code under email and increments the window counter as
	// one atomic step. When the counter has already reached policy.Limit
	// nothing is written and domain.ErrRateLimitExceeded is returned.
	SaveCode(ctx context.Context, email, code string, policy domain.CodePolicy) (int, error)
	// FindCode returns domain.ErrCodeNotFound once the code has expired.
	FindCode(ctx context.Context, email string) (string, error)
	DeleteCode(ctx context.Context, email string) error
}
