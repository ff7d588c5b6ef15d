package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/passport/internal/core/domain"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func newVerificationSvc(store *stubCodeStore, mailer *stubMailer) *VerificationService {
	return NewVerificationService(store, mailer, domain.CodePolicy{
		TTL:    5 * time.Minute,
		Window: time.Minute,
		Limit:  3,
	}, zerolog.Nop())
}

func TestVerificationService_GenerateCode(t *testing.T) {
	svc := newVerificationSvc(newStubCodeStore(newFakeClock()), &stubMailer{})

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := svc.GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode: %v", err)
		}
		if !sixDigits.MatchString(code) {
			t.Fatalf("unexpected code format %q", code)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatalf("codes are not varying")
	}
}

func TestVerificationService_GenerateCode_Failure(t *testing.T) {
	svc := newVerificationSvc(newStubCodeStore(newFakeClock()), &stubMailer{})
	svc.random = failingReader{}

	if _, err := svc.GenerateCode(); !errors.Is(err, domain.ErrGenerationFailure) {
		t.Fatalf("expected ErrGenerationFailure, got %v", err)
	}
	if err := svc.Send(context.Background(), "a@x.com", ""); !errors.Is(err, domain.ErrGenerationFailure) {
		t.Fatalf("Send: expected ErrGenerationFailure, got %v", err)
	}
}

func TestVerificationService_Send_HappyPath(t *testing.T) {
	clock := newFakeClock()
	store := newStubCodeStore(clock)
	mailer := &stubMailer{}
	svc := newVerificationSvc(store, mailer)
	ctx := context.Background()

	if err := svc.Send(ctx, "A@x.com", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.to != "a@x.com" {
		t.Fatalf("unexpected recipient %q", mail.to)
	}
	if !strings.Contains(mail.body, domain.DefaultAddressName) {
		t.Fatalf("expected default salutation in %q", mail.body)
	}

	code, err := svc.Lookup(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !strings.Contains(mail.body, code) {
		t.Fatalf("mail body does not carry stored code %q", code)
	}
	if n, _ := svc.CheckRateLimit(ctx, "a@x.com"); n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}
}

func TestVerificationService_RateLimitEnforced(t *testing.T) {
	clock := newFakeClock()
	store := newStubCodeStore(clock)
	mailer := &stubMailer{}
	svc := newVerificationSvc(store, mailer)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.Send(ctx, "a@x.com", "alice"); err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
	}
	before, _ := svc.Lookup(ctx, "a@x.com")

	if err := svc.Send(ctx, "a@x.com", "alice"); !errors.Is(err, domain.ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
	if store.saves != 3 {
		t.Fatalf("over-limit request must not persist, saves=%d", store.saves)
	}
	if len(mailer.sent) != 3 {
		t.Fatalf("over-limit request must not send, sent=%d", len(mailer.sent))
	}
	if after, _ := svc.Lookup(ctx, "a@x.com"); after != before {
		t.Fatalf("over-limit request overwrote code")
	}

	// other addresses are unaffected
	if err := svc.Send(ctx, "b@x.com", ""); err != nil {
		t.Fatalf("other address: %v", err)
	}

	clock.Advance(time.Minute)
	if err := svc.Send(ctx, "a@x.com", "alice"); err != nil {
		t.Fatalf("new window should allow issuance: %v", err)
	}
}

func TestVerificationService_PersistCode_RefusesAtCap(t *testing.T) {
	store := newStubCodeStore(newFakeClock())
	svc := newVerificationSvc(store, &stubMailer{})

	if _, err := svc.PersistCode(context.Background(), "a@x.com", "123456", 3); !errors.Is(err, domain.ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestVerificationService_CodeExpires(t *testing.T) {
	clock := newFakeClock()
	svc := newVerificationSvc(newStubCodeStore(clock), &stubMailer{})
	ctx := context.Background()

	if _, err := svc.PersistCode(ctx, "a@x.com", "424242", 0); err != nil {
		t.Fatalf("PersistCode: %v", err)
	}

	clock.Advance(5*time.Minute - time.Second)
	if code, err := svc.Lookup(ctx, "a@x.com"); err != nil || code != "424242" {
		t.Fatalf("expected stored code before TTL, got %q %v", code, err)
	}

	clock.Advance(time.Second)
	if _, err := svc.Lookup(ctx, "a@x.com"); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode after TTL, got %v", err)
	}
}

func TestVerificationService_Failures(t *testing.T) {
	ctx := context.Background()

	store := newStubCodeStore(newFakeClock())
	store.countErr = errBackend
	svc := newVerificationSvc(store, &stubMailer{})
	if err := svc.Send(ctx, "a@x.com", ""); !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("count failure: expected ErrStorageFailure, got %v", err)
	}

	store = newStubCodeStore(newFakeClock())
	store.saveErr = errBackend
	svc = newVerificationSvc(store, &stubMailer{})
	if err := svc.Send(ctx, "a@x.com", ""); !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("save failure: expected ErrStorageFailure, got %v", err)
	}

	mailer := &stubMailer{err: errBackend}
	svc = newVerificationSvc(newStubCodeStore(newFakeClock()), mailer)
	if err := svc.Send(ctx, "a@x.com", ""); !errors.Is(err, domain.ErrDeliveryFailure) {
		t.Fatalf("mail failure: expected ErrDeliveryFailure, got %v", err)
	}

	if err := svc.Send(ctx, "  ", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank email: expected ErrInvalidInput, got %v", err)
	}
}

func TestVerificationService_Confirm(t *testing.T) {
	svc := newVerificationSvc(newStubCodeStore(newFakeClock()), &stubMailer{})
	ctx := context.Background()

	_, _ = svc.PersistCode(ctx, "a@x.com", "111222", 0)

	if err := svc.Confirm(ctx, "a@x.com", "999999"); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("wrong code: expected ErrInvalidCode, got %v", err)
	}
	if err := svc.Confirm(ctx, "a@x.com", "111222"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := svc.Confirm(ctx, "a@x.com", "111222"); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("codes are single use, got %v", err)
	}
}

func TestNewVerificationService_Defaults(t *testing.T) {
	svc := NewVerificationService(newStubCodeStore(newFakeClock()), &stubMailer{}, domain.CodePolicy{}, zerolog.Nop())
	if svc.policy != domain.DefaultCodePolicy() {
		t.Fatalf("unexpected policy %+v", svc.policy)
	}
}
