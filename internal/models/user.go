package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated view of a user that reaches the relay.
type Identity struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, DisplayName: u.Username}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=50"`
	Username string `json:"username" validate:"required,min=4,max=15"`
	Password string `json:"password" validate:"required,min=8,max=80"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=4,max=15"`
	Password string `json:"password" validate:"required,min=8,max=80"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
