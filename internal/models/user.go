package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity is the authenticated principal as reported by the auth backend.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Profile struct {
	ID           string
	Email        string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type AuthSession struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}
