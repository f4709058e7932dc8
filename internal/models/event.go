package models

// UserRegisteredEvent is published after a user account is created.
type UserRegisteredEvent struct {
	UserID       int64  `json:"user_id"`       // UserID is the id of the new user.
	Username     string `json:"username"`      // Username of the new user.
	Email        string `json:"email"`         // Email of the new user.
	RegisteredAt int64  `json:"registered_at"` // RegisteredAt is the Unix timestamp (in seconds) of the registration.
}
