package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"html"
	"io"
	"math/big"
	"strings"

	"github.com/rs/zerolog"

	"github.com/99minutos/passport/internal/core/domain"
	"github.com/99minutos/passport/internal/core/ports"
)

const verificationSubject = "Your verification code"

var codeSpace = big.NewInt(1_000_000) // 10^VerificationCodeLength

// VerificationService issues rate-limited one-time codes and delivers them
// by email.
type VerificationService struct {
	store  ports.VerificationStore
	mailer ports.Mailer
	policy domain.CodePolicy
	random io.Reader
	log    zerolog.Logger
}

// NewVerificationService returns a VerificationService. Zero policy fields
// take the package defaults.
func NewVerificationService(store ports.VerificationStore, mailer ports.Mailer, policy domain.CodePolicy, log zerolog.Logger) *VerificationService {
	def := domain.DefaultCodePolicy()
	if policy.TTL <= 0 {
		policy.TTL = def.TTL
	}
	if policy.Window <= 0 {
		policy.Window = def.Window
	}
	if policy.Limit <= 0 {
		policy.Limit = def.Limit
	}
	return &VerificationService{
		store:  store,
		mailer: mailer,
		policy: policy,
		random: rand.Reader,
		log:    log,
	}
}

// Send runs the full issuance flow for email: generate, check the window
// counter, persist, deliver. It stops at the first failure.
func (s *VerificationService) Send(ctx context.Context, email, userName string) error {
	email = normalizeEmail(email)
	if email == "" {
		return domain.ErrInvalidInput
	}
	userName = strings.TrimSpace(userName)
	if userName == "" {
		userName = domain.DefaultAddressName
	}

	code, err := s.GenerateCode()
	if err != nil {
		return err
	}

	count, err := s.CheckRateLimit(ctx, email)
	if err != nil {
		return err
	}

	issued, err := s.PersistCode(ctx, email, code, count)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimitExceeded) {
			s.log.Warn().Str("email", email).Int("count", count).Msg("verification rate limit hit")
		}
		return err
	}

	if err := s.Dispatch(ctx, email, userName, code); err != nil {
		return err
	}

	s.log.Info().Str("email", email).Int("issued", issued).Msg("verification code sent")
	return nil
}

// GenerateCode returns a fresh zero-padded decimal code.
func (s *VerificationService) GenerateCode() (string, error) {
	n, err := rand.Int(s.random, codeSpace)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailure, err)
	}
	return fmt.Sprintf("%0*d", domain.VerificationCodeLength, n.Int64()), nil
}

// CheckRateLimit returns how many codes email received in the current window.
func (s *VerificationService) CheckRateLimit(ctx context.Context, email string) (int, error) {
	count, err := s.store.IssueCount(ctx, normalizeEmail(email))
	if err != nil {
		return 0, storageFailure("read issue count", err)
	}
	return count, nil
}

// PersistCode stores code for email and bumps the window counter. It refuses
// once currentCount has reached the limit; the store re-checks atomically so
// concurrent requests cannot overshoot it either.
func (s *VerificationService) PersistCode(ctx context.Context, email, code string, currentCount int) (int, error) {
	if currentCount >= s.policy.Limit {
		return currentCount, domain.ErrRateLimitExceeded
	}

	issued, err := s.store.SaveCode(ctx, normalizeEmail(email), code, s.policy)
	if errors.Is(err, domain.ErrRateLimitExceeded) {
		return issued, err
	}
	if err != nil {
		return 0, storageFailure("save code", err)
	}
	return issued, nil
}

// Dispatch hands the code to the mailer. It does not retry.
func (s *VerificationService) Dispatch(ctx context.Context, email, userName, code string) error {
	body := fmt.Sprintf(
		`<p>Dear %s,</p><p>Your verification code is <strong>%s</strong>. It expires in %d minutes.</p>`,
		html.EscapeString(userName), code, int(s.policy.TTL.Minutes()),
	)
	if err := s.mailer.Send(ctx, email, verificationSubject, body); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err)
	}
	return nil
}

// Lookup returns the code currently stored for email.
func (s *VerificationService) Lookup(ctx context.Context, email string) (string, error) {
	code, err := s.store.FindCode(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrCodeNotFound) {
		return "", domain.ErrInvalidCode
	}
	if err != nil {
		return "", storageFailure("find code", err)
	}
	return code, nil
}

// Confirm checks code against the stored one and consumes it on success.
func (s *VerificationService) Confirm(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return domain.ErrInvalidCode
	}

	stored, err := s.Lookup(ctx, email)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return domain.ErrInvalidCode
	}

	if err := s.store.DeleteCode(ctx, email); err != nil {
		return storageFailure("delete code", err)
	}
	return nil
}
