package model

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Password     string    `json:"-"` // bcrypt hash, never serialized
	Role         string    `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Password reset ticket. At most one outstanding ticket per user; a new
	// request overwrites the previous one.
	ResetTokenHash sql.NullString `json:"-"`
	ResetExpiresAt sql.NullTime   `json:"-"`
}

// PublicInfo is the identity payload embedded in auth responses.
type PublicInfo struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) PublicInfo() PublicInfo {
	return PublicInfo{ID: u.ID, Email: u.Email, Name: u.Name}
}
