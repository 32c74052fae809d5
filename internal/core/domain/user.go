package domain

import "time"

// User is an account that owns sales. It is created by registration and
// never mutated afterwards.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
