package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
)

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")

// User models an authenticated back-office actor. There is no ambient session
// state: identity and role travel as explicit claims on every administrative call.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ActorContext identifies who performs an administrative operation. It is
// derived from verified JWT claims by the transport layer and passed down
// explicitly so the core never reads ambient session state.
type ActorContext struct {
	Username string
	Role     string
}
