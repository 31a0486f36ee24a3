package models

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("email is not a valid address")
	ErrPasswordRequired = errors.New("password is required")
)

// Credentials is the request body for register and login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate mirrors the browser's required/type=email checks.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return ErrEmailRequired
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return ErrEmailInvalid
	}
	if c.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}

// TokenResponse is returned by a successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// User is an account as reported by the API
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}
