package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/passport/internal/core/domain"
	"github.com/99minutos/passport/internal/core/ports"
)

// TokenService issues, validates and revokes login tokens. A token is a
// signed JWT whose jti names a session record in the SessionStore; the
// record is authoritative, so deleting it revokes the token.
type TokenService struct {
	store  ports.SessionStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(store ports.SessionStore, secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = domain.DefaultLoginExpire
	}
	return &TokenService{store: store, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a session for userID and returns its token.
func (s *TokenService) Issue(ctx context.Context, userID string) (string, *domain.Session, error) {
	// whole seconds keep the JWT exp and the stored expiry identical
	now := s.now().UTC().Truncate(time.Second)
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.store.Save(ctx, session); err != nil {
		return "", nil, storageFailure("save session", err)
	}
	return token, session, nil
}

// Resolve returns the live session behind token. Forged, unknown and expired
// tokens all yield domain.ErrUnauthorized.
func (s *TokenService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.store.Find(ctx, claims.ID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, storageFailure("find session", err)
	}
	if session.UserID != claims.Subject || !session.ActiveAt(s.now()) {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

// IsValid reports whether token names a live session. Only a backing-store
// failure produces an error.
func (s *TokenService) IsValid(ctx context.Context, token string) (bool, error) {
	_, err := s.Resolve(ctx, token)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrUnauthorized):
		return false, nil
	default:
		return false, err
	}
}

// Revoke ends the session behind token.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, session.ID)
	if err != nil {
		return storageFailure("delete session", err)
	}
	if !deleted {
		return fmt.Errorf("%w: session %s vanished before delete", domain.ErrStorageFailure, session.ID)
	}
	return nil
}
