package domain

import "time"

// User is a registered account. PasswordHash never leaves the service layer
// populated; see WithoutCredential.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WithoutCredential returns a copy of u with the stored credential cleared.
func (u *User) WithoutCredential() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// ProfileUpdate is a partial update; nil fields are left untouched.
type ProfileUpdate struct {
	UserName  *string
	UserEmail *string
	Password  *string
	Nickname  *string
	Phone     *string
	AvatarURL *string
	Bio       *string
}

// IsEmpty reports whether the update carries no fields.
func (p ProfileUpdate) IsEmpty() bool {
	return p.UserName == nil && p.UserEmail == nil && p.Password == nil &&
		p.Nickname == nil && p.Phone == nil && p.AvatarURL == nil && p.Bio == nil
}

// UserChanges is what the repository applies. Password is already hashed.
type UserChanges struct {
	UserName     *string
	UserEmail    *string
	PasswordHash *string
	Nickname     *string
	Phone        *string
	AvatarURL    *string
	Bio          *string
	UpdatedAt    time.Time
}
