package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/99minutos/passport/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Clock
// ---------------------------------------------------------------------------

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ---------------------------------------------------------------------------
// User repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User
	nextID    int
	findErr   error
	createErr error
	updateErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByEmailOrUserName(_ context.Context, email, userName string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if (email != "" && u.UserEmail == email) || (userName != "" && u.UserName == userName) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("u%d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) Update(_ context.Context, id string, c domain.UserChanges) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.UserName, c.UserName)
	set(&u.UserEmail, c.UserEmail)
	set(&u.PasswordHash, c.PasswordHash)
	set(&u.Nickname, c.Nickname)
	set(&u.Phone, c.Phone)
	set(&u.AvatarURL, c.AvatarURL)
	set(&u.Bio, c.Bio)
	u.UpdatedAt = c.UpdatedAt
	return nil
}

// ---------------------------------------------------------------------------
// Session store
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	sessions  map[string]domain.Session
	saveErr   error
	findErr   error
	deleteErr error
	// deleteMiss makes Delete report nothing removed.
	deleteMiss bool
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, session *domain.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *stubSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) (bool, error) {
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if s.deleteMiss {
		return false, nil
	}
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok, nil
}

// ---------------------------------------------------------------------------
// Verification store
// ---------------------------------------------------------------------------

type storedCode struct {
	code      string
	expiresAt time.Time
}

type windowCounter struct {
	n       int
	resetAt time.Time
}

type stubCodeStore struct {
	clock    *fakeClock
	codes    map[string]storedCode
	counters map[string]windowCounter
	countErr error
	saveErr  error
	saves    int
}

func newStubCodeStore(clock *fakeClock) *stubCodeStore {
	return &stubCodeStore{
		clock:    clock,
		codes:    make(map[string]storedCode),
		counters: make(map[string]windowCounter),
	}
}

func (s *stubCodeStore) IssueCount(_ context.Context, email string) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	c, ok := s.counters[email]
	if !ok || !s.clock.Now().Before(c.resetAt) {
		return 0, nil
	}
	return c.n, nil
}

func (s *stubCodeStore) SaveCode(_ context.Context, email, code string, p domain.CodePolicy) (int, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	now := s.clock.Now()
	c, ok := s.counters[email]
	if !ok || !now.Before(c.resetAt) {
		c = windowCounter{resetAt: now.Add(p.Window)}
	}
	if c.n >= p.Limit {
		return c.n, domain.ErrRateLimitExceeded
	}
	c.n++
	s.counters[email] = c
	s.codes[email] = storedCode{code: code, expiresAt: now.Add(p.TTL)}
	s.saves++
	return c.n, nil
}

func (s *stubCodeStore) FindCode(_ context.Context, email string) (string, error) {
	c, ok := s.codes[email]
	if !ok || !s.clock.Now().Before(c.expiresAt) {
		return "", domain.ErrCodeNotFound
	}
	return c.code, nil
}

func (s *stubCodeStore) DeleteCode(_ context.Context, email string) error {
	delete(s.codes, email)
	return nil
}

// ---------------------------------------------------------------------------
// Mailer
// ---------------------------------------------------------------------------

type sentMail struct {
	to, subject, body string
}

type stubMailer struct {
	err  error
	sent []sentMail
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// failingReader makes crypto/rand.Int fail.
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

var errBackend = errors.New("backend unavailable")
