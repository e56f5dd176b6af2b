package domain

import (
	"errors"
	"time"
)

// User represents a system user
type User struct {
	ID             string
	Name           string
	Email          string
	HashedPassword string
	CreatedAt      time.Time
}

// Sanitized returns a copy of the user without credentials.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.HashedPassword = ""
	return &c
}

// Authentication errors
var (
	ErrInvalidCredentialsEmail    = errors.New("invalid email")
	ErrInvalidCredentialsPassword = errors.New("invalid password")

	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
