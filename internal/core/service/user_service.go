package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/99minutos/passport/internal/core/domain"
	"github.com/99minutos/passport/internal/core/ports"
)

type userService struct {
	credentials *CredentialService
	tokens      *TokenService
	codes       *VerificationService
	log         zerolog.Logger
}

// NewUserService returns the passport UserService built on its three
// collaborators.
func NewUserService(
	credentials *CredentialService,
	tokens *TokenService,
	codes *VerificationService,
	log zerolog.Logger,
) ports.UserService {
	return &userService{
		credentials: credentials,
		tokens:      tokens,
		codes:       codes,
		log:         log,
	}
}

func (s *userService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	user, err := s.credentials.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("user_name", user.UserName).Msg("user registered")
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	user, err := s.credentials.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Str("email", normalizeEmail(email)).Err(err).Msg("login rejected")
		}
		return nil, err
	}

	token, session, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID).Str("session_id", session.ID).Msg("user logged in")
	return &ports.LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	if err := s.tokens.Revoke(ctx, token); err != nil {
		return err
	}
	s.log.Info().Msg("session revoked")
	return nil
}

func (s *userService) SendVerification(ctx context.Context, in ports.VerificationInput) error {
	return s.codes.Send(ctx, in.UserEmail, in.UserName)
}

func (s *userService) ConfirmVerification(ctx context.Context, email, code string) error {
	return s.codes.Confirm(ctx, email, code)
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.IsEmpty() {
		return s.credentials.Get(ctx, userID)
	}
	user, err := s.credentials.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("profile updated")
	return user, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.credentials.Get(ctx, userID)
}
