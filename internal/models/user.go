package models

import "time"

// User is the persisted account record. PasswordHash and RefreshToken are
// secret state and never serialize into API responses.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	PasswordHash  string    `json:"-"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasRefreshToken reports whether the single refresh token slot is occupied.
func (u *User) HasRefreshToken() bool {
	return u.RefreshToken != ""
}
