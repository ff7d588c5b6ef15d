package domain

import "time"

// DefaultLoginExpire is how long a login session stays active.
const DefaultLoginExpire = 3600 * time.Second

// Session is the server-side record behind a login token. It references the
// user by id only; deleting a session never touches the user.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActiveAt reports whether the session is still usable at now.
func (s *Session) ActiveAt(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}
