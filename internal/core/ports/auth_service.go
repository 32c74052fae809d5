package ports

import (
	"context"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

// RegisterInput carries the fields accepted by registration.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// Authenticator resolves a presented bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*domain.User, error)
}

type AuthService interface {
	Authenticator
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// Login returns the user's token, creating it on first use.
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Logout(ctx context.Context, key string) error
}
