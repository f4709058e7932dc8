package models

// UserDB represents a user record in the database
type UserDB struct {
	ID           int64  `json:"id" db:"id"`             // Primary key
	Username     string `json:"username" db:"username"` // Unique username
	Email        string `json:"email" db:"email"`       // User email
	PasswordHash string `json:"-" db:"password_hash"`   // Hashed password
}

// UserDetailsResponse is the public view of a user returned by the profile endpoint
// swagger:model UserDetailsResponse
type UserDetailsResponse struct {
	// User id
	// example: 1
	ID int64 `json:"id"`

	// Username
	// example: john_doe
	Username string `json:"username"`

	// Email
	// example: john@example.com
	Email string `json:"email"`
}

// ErrorResponse is the body of every failed request
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// example: Invalid token
	Error string `json:"error"`
}
