package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/passport/internal/core/domain"
	"github.com/99minutos/passport/internal/core/ports"
)

const maxPasswordBytes = 72

// CredentialService checks submitted credentials against stored users and
// owns every write to the user record.
type CredentialService struct {
	repo ports.UserRepository
	cost int
	now  func() time.Time
}

// NewCredentialService returns a CredentialService hashing with the given
// bcrypt cost. A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewCredentialService(repo ports.UserRepository, cost int) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialService{repo: repo, cost: cost, now: time.Now}
}

// FindByEmailOrUserName returns the user matching email, or email OR userName
// when userName is given. A miss is (nil, nil).
func (s *CredentialService) FindByEmailOrUserName(ctx context.Context, email, userName string) (*domain.User, error) {
	user, err := s.repo.FindByEmailOrUserName(ctx, normalizeEmail(email), strings.TrimSpace(userName))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageFailure("find user", err)
	}
	return user, nil
}

// Authenticate returns the user owning email when password matches.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.FindByEmailOrUserName(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user.WithoutCredential(), nil
}

// Register creates a new account unless the user name or email is taken.
func (s *CredentialService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	userName := strings.TrimSpace(in.UserName)
	email := normalizeEmail(in.UserEmail)
	password := strings.TrimSpace(in.Password)
	if userName == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}

	existing, err := s.FindByEmailOrUserName(ctx, email, userName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateUser
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		UserName:     userName,
		UserEmail:    email,
		PasswordHash: string(hash),
		Nickname:     strings.TrimSpace(in.Nickname),
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, domain.ErrDuplicateUser) {
		return nil, err
	}
	if err != nil {
		return nil, storageFailure("create user", err)
	}
	return created.WithoutCredential(), nil
}

// UpdateProfile applies a partial update to the user identified by id and
// returns the re-fetched record.
func (s *CredentialService) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.User, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	changes := domain.UserChanges{
		Nickname:  trimmed(upd.Nickname),
		Phone:     trimmed(upd.Phone),
		AvatarURL: trimmed(upd.AvatarURL),
		Bio:       trimmed(upd.Bio),
		UpdatedAt: s.now().UTC(),
	}

	if upd.UserName != nil || upd.UserEmail != nil {
		changes.UserName = trimmed(upd.UserName)
		if upd.UserEmail != nil {
			email := normalizeEmail(*upd.UserEmail)
			changes.UserEmail = &email
		}
		if (changes.UserName != nil && *changes.UserName == "") || (changes.UserEmail != nil && *changes.UserEmail == "") {
			return nil, domain.ErrInvalidInput
		}
		if err := s.ensureAvailable(ctx, id, deref(changes.UserEmail), deref(changes.UserName)); err != nil {
			return nil, err
		}
	}

	if upd.Password != nil {
		password := strings.TrimSpace(*upd.Password)
		if password == "" {
			return nil, domain.ErrInvalidInput
		}
		hash, err := s.hashPassword(password)
		if err != nil {
			return nil, err
		}
		changes.PasswordHash = &hash
	}

	if err := s.repo.Update(ctx, id, changes); err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			return nil, err
		}
		return nil, storageFailure("update user", err)
	}

	return s.Get(ctx, id)
}

// Get returns the user identified by id without its credential.
func (s *CredentialService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storageFailure("get user", err)
	}
	return user.WithoutCredential(), nil
}

// ensureAvailable fails with ErrDuplicateUser when email or userName belongs
// to an account other than id.
func (s *CredentialService) ensureAvailable(ctx context.Context, id, email, userName string) error {
	other, err := s.FindByEmailOrUserName(ctx, email, userName)
	if err != nil {
		return err
	}
	if other != nil && other.ID != id {
		return domain.ErrDuplicateUser
	}
	return nil
}

// hashPassword bcrypt-hashes password. bcrypt reads at most 72 bytes, so
// longer input is refused rather than silently truncated.
func (s *CredentialService) hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorageFailure, op, err)
}
