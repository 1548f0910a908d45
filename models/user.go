// File: /models/user.go
package models

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleReader Role = "reader"
)

type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:191"`
	Email     string    `json:"-" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null;size:255"`
	Name      string    `json:"name" gorm:"not null;size:255"`
	Role      Role      `json:"role" gorm:"not null;default:'reader';size:20"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Posts    []Post    `json:"-" gorm:"foreignKey:AuthorID"`
	Comments []Comment `json:"-" gorm:"foreignKey:AuthorID"`
}

// IsAdmin reports whether the user may author and manage posts.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// MarshalJSON leaves the email out and adds the Gravatar built from it, so
// authors can be shown on public pages.
func (u User) MarshalJSON() ([]byte, error) {
	type publicUser User
	return json.Marshal(struct {
		publicUser
		AvatarURL string `json:"avatar_url"`
	}{
		publicUser: publicUser(u),
		AvatarURL:  GravatarURL(u.Email),
	})
}

// GravatarURL returns the retro-style 100px Gravatar for email.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	params := url.Values{"d": {"retro"}, "s": {"100"}, "r": {"g"}}
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?" + params.Encode()
}
