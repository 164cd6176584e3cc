// Package models holds the domain entities shared by repositories, services
// and the HTTP layer.
package models

import (
	"strings"
	"time"
)

// Role is a user's authorization role.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// USNLength is the exact length of a university seat number.
const USNLength = 10

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// User is a persisted account. PasswordHash and the reset fields never leave
// the server.
type User struct {
	ID               string     `json:"id" bson:"_id"`
	Name             string     `json:"name" bson:"name"`
	USN              string     `json:"usn" bson:"usn"`
	Email            string     `json:"email" bson:"email"`
	PasswordHash     string     `json:"-" bson:"password_hash"`
	Phone            string     `json:"phone,omitempty" bson:"phone"`
	Semester         int        `json:"semester,omitempty" bson:"semester"`
	Role             Role       `json:"role" bson:"role"`
	ResetTokenHash   *string    `json:"-" bson:"reset_token_hash,omitempty"`
	ResetTokenExpiry *time.Time `json:"-" bson:"reset_token_expiry,omitempty"`
	CreatedAt        time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" bson:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicUser is the projection returned alongside session tokens.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	USN   string `json:"usn"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Public returns the token-response projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, USN: u.USN, Email: u.Email, Role: u.Role}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUSN trims and uppercases a USN.
func NormalizeUSN(usn string) string {
	return strings.ToUpper(strings.TrimSpace(usn))
}
