// Package models contains data structures for the application's domain models.
package models

import "time"

// User is a registered account. Password always holds the bcrypt hash.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Identity is the (id, email, username) triple carried by a session token.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Identity returns the token identity for the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Username: u.Username}
}

// AuthPayload is returned by register and login: every user field except the
// password, plus a freshly issued token.
type AuthPayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Token     string    `json:"token"`
}
